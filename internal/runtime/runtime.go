// Where: internal/runtime/runtime.go
// What: Runtime profile registry and source-tree inference.
// Why: Centralize runtime behavior to avoid scattered conditional logic.
package runtime

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

type Kind string

const (
	KindPython Kind = "python"
	KindNode   Kind = "node"
)

const (
	defaultPythonRuntime = "python3.12"
	defaultNodeRuntime   = "nodejs20.x"
)

var (
	// ErrUndetected is returned when a source tree carries no
	// recognized language marker.
	ErrUndetected = errors.New("runtime: no language marker found in source path")
	// ErrAmbiguous is returned when a source tree carries markers for
	// more than one language.
	ErrAmbiguous = errors.New("runtime: multiple language markers found in source path")
)

type Profile struct {
	Name        string
	Kind        Kind
	Interpreter string
	Image       string
}

// Resolve maps a runtime identifier to its profile. An empty
// identifier resolves to the default Python runtime.
func Resolve(runtime string) (Profile, error) {
	normalized := strings.TrimSpace(strings.ToLower(runtime))
	if normalized == "" {
		normalized = defaultPythonRuntime
	}

	if strings.HasPrefix(normalized, "python") {
		version := strings.TrimPrefix(normalized, "python")
		if version == "" {
			version = "3.12"
		}
		return Profile{
			Name:        normalized,
			Kind:        KindPython,
			Interpreter: "python3",
			Image:       "public.ecr.aws/lambda/python:" + version,
		}, nil
	}

	if strings.HasPrefix(normalized, "nodejs") {
		version := strings.TrimSuffix(strings.TrimPrefix(normalized, "nodejs"), ".x")
		if version == "" {
			version = "20"
		}
		return Profile{
			Name:        normalized,
			Kind:        KindNode,
			Interpreter: "node",
			Image:       "public.ecr.aws/lambda/nodejs:" + version,
		}, nil
	}

	return Profile{}, fmt.Errorf("unsupported runtime: %s", runtime)
}

// Infer inspects the top-level entries of sourcePath for language
// markers (.py for Python, .js/.mjs for Node) and resolves the
// matching default runtime. Exactly one marker language must be
// present; otherwise an explicit runtime is required.
func Infer(sourcePath string) (Profile, error) {
	entries, err := os.ReadDir(sourcePath)
	if err != nil {
		return Profile{}, fmt.Errorf("scan source path: %w", err)
	}

	python := false
	node := false
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := strings.ToLower(entry.Name())
		switch {
		case strings.HasSuffix(name, ".py"):
			python = true
		case strings.HasSuffix(name, ".js"), strings.HasSuffix(name, ".mjs"):
			node = true
		}
	}

	switch {
	case python && node:
		return Profile{}, fmt.Errorf("%w: %s", ErrAmbiguous, sourcePath)
	case python:
		return Resolve(defaultPythonRuntime)
	case node:
		return Resolve(defaultNodeRuntime)
	default:
		return Profile{}, fmt.Errorf("%w: %s", ErrUndetected, sourcePath)
	}
}

// ResolveOrInfer prefers an explicit runtime identifier and falls back
// to marker inference over sourcePath.
func ResolveOrInfer(runtime, sourcePath string) (Profile, error) {
	if strings.TrimSpace(runtime) != "" {
		return Resolve(runtime)
	}
	return Infer(sourcePath)
}
