// Where: internal/localrun/driver.go
// What: Driver script generation for offline handler execution.
// Why: The interpreter needs a shim that fabricates the invocation context.
package localrun

import (
	"bytes"
	"embed"
	"fmt"
	"path"
	"strings"
	"sync"
	"text/template"

	"github.com/Masterminds/sprig/v3"

	"github.com/slipway-sh/slipway/internal/runtime"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templateCache sync.Map

type driverData struct {
	FunctionName string
	Module       string
	Function     string
	MemorySize   int
	Timeout      int
	RequestID    string
	PayloadPath  string
}

// splitHandler breaks a "module.function" reference at its last dot.
func splitHandler(handler string) (string, string, error) {
	at := strings.LastIndex(handler, ".")
	if at <= 0 || at == len(handler)-1 {
		return "", "", fmt.Errorf("handler %q is not of the form module.function", handler)
	}
	return handler[:at], handler[at+1:], nil
}

// driverName returns the shim file name for the runtime kind.
func driverName(kind runtime.Kind) (string, error) {
	switch kind {
	case runtime.KindPython:
		return "driver.py", nil
	case runtime.KindNode:
		return "driver.mjs", nil
	default:
		return "", fmt.Errorf("no local driver for runtime kind %s", kind)
	}
}

func renderDriver(kind runtime.Kind, data driverData) (string, error) {
	name, err := driverName(kind)
	if err != nil {
		return "", err
	}
	return renderTemplate(name+".tmpl", data)
}

func renderTemplate(name string, data any) (string, error) {
	tmpl, err := loadTemplate(name)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func loadTemplate(name string) (*template.Template, error) {
	if value, ok := templateCache.Load(name); ok {
		cached, ok := value.(*template.Template)
		if !ok {
			return nil, fmt.Errorf("template cache type mismatch for %s", name)
		}
		return cached, nil
	}
	pathName := "templates/" + name
	tmpl, err := template.New(path.Base(pathName)).Funcs(sprig.TxtFuncMap()).ParseFS(templateFS, pathName)
	if err != nil {
		return nil, err
	}
	templateCache.Store(name, tmpl)
	return tmpl, nil
}
