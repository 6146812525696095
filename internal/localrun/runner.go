// Where: internal/localrun/runner.go
// What: Offline handler invocation on the host interpreter.
// Why: Handlers must be testable without the remote platform or packaging.
package localrun

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/slipway-sh/slipway/internal/runtime"
)

// Request describes one offline invocation of the configured handler.
type Request struct {
	FunctionName string
	Handler      string
	SourceDir    string
	Runtime      runtime.Profile
	Payload      []byte
	MemorySize   int
	Timeout      int
}

// Result carries the handler's JSON-encoded return value.
type Result struct {
	Payload []byte
}

// Invoker runs a handler without touching the remote platform.
type Invoker interface {
	Invoke(ctx context.Context, req Request) (*Result, error)
}

// CommandRunner executes an interpreter process and returns its
// standard output.
type CommandRunner interface {
	Run(ctx context.Context, dir string, stderr io.Writer, name string, args ...string) ([]byte, error)
}

// ExecRunner is the os/exec implementation of CommandRunner.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, dir string, stderr io.Writer, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stderr = stderr
	var out bytes.Buffer
	cmd.Stdout = &out
	err := cmd.Run()
	return out.Bytes(), err
}

// HostRunner executes the handler through the locally installed
// interpreter for its runtime.
type HostRunner struct {
	Exec   CommandRunner
	Stderr io.Writer
	Logger *slog.Logger
}

// NewHostRunner returns a host runner writing handler diagnostics to
// stderr.
func NewHostRunner(stderr io.Writer, logger *slog.Logger) *HostRunner {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &HostRunner{Exec: ExecRunner{}, Stderr: stderr, Logger: logger}
}

func (r *HostRunner) Invoke(ctx context.Context, req Request) (*Result, error) {
	workDir, driverPath, err := stageDriver(req, func(dir string) string {
		return filepath.Join(dir, "payload.json")
	})
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(workDir)

	r.Logger.Debug("running handler locally",
		slog.String("handler", req.Handler),
		slog.String("interpreter", req.Runtime.Interpreter))

	out, err := r.Exec.Run(ctx, req.SourceDir, r.Stderr, req.Runtime.Interpreter, driverPath)
	if err != nil {
		return nil, fmt.Errorf("local invoke: %w", err)
	}
	return &Result{Payload: out}, nil
}

// stageDriver writes the payload file and the rendered driver shim
// into a fresh scratch directory. payloadPath maps the scratch
// directory to the payload location the driver will see at run time.
func stageDriver(req Request, payloadPath func(dir string) string) (string, string, error) {
	module, function, err := splitHandler(req.Handler)
	if err != nil {
		return "", "", err
	}
	name, err := driverName(req.Runtime.Kind)
	if err != nil {
		return "", "", err
	}

	workDir, err := os.MkdirTemp("", "slipway-local-")
	if err != nil {
		return "", "", fmt.Errorf("create scratch dir: %w", err)
	}

	if err := os.WriteFile(filepath.Join(workDir, "payload.json"), req.Payload, 0o600); err != nil {
		os.RemoveAll(workDir)
		return "", "", fmt.Errorf("write payload: %w", err)
	}

	driver, err := renderDriver(req.Runtime.Kind, driverData{
		FunctionName: req.FunctionName,
		Module:       module,
		Function:     function,
		MemorySize:   req.MemorySize,
		Timeout:      req.Timeout,
		RequestID:    uuid.NewString(),
		PayloadPath:  payloadPath(workDir),
	})
	if err != nil {
		os.RemoveAll(workDir)
		return "", "", err
	}

	driverPath := filepath.Join(workDir, name)
	if err := os.WriteFile(driverPath, []byte(driver), 0o600); err != nil {
		os.RemoveAll(workDir)
		return "", "", fmt.Errorf("write driver: %w", err)
	}
	return workDir, driverPath, nil
}
