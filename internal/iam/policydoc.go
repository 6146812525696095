// Where: internal/iam/policydoc.go
// What: Render trust and logging policy documents from embedded templates.
// Why: Role creation needs JSON documents scoped to the deployment.
package iam

import (
	"bytes"
	"embed"
	"fmt"
	"path"
	"sync"
	"text/template"

	"github.com/Masterminds/sprig/v3"

	"github.com/slipway-sh/slipway/internal/meta"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templateCache sync.Map

// TrustDocument returns the assume-role document trusting the function
// execution service.
func TrustDocument() (string, error) {
	return renderTemplate("trust.json.tmpl", nil)
}

type loggingDocumentData struct {
	Region    string
	AccountID string
	LogGroup  string
}

// LoggingDocument returns an inline policy granting log writes scoped to
// the function's log group.
func LoggingDocument(region, accountID, functionName string) (string, error) {
	return renderTemplate("logging.json.tmpl", loggingDocumentData{
		Region:    region,
		AccountID: accountID,
		LogGroup:  meta.LogGroupPrefix + functionName,
	})
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
