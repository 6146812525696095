// Where: internal/architecture/dependency_contracts_test.go
// What: Contract checks for anti-pattern dependency usage.
// Why: Resources must reach the platform only through provider interfaces,
// and client construction must stay in wire.
package architecture

import (
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	pathpkg "path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"testing"
)

type dependencyContract struct {
	forbiddenImportPrefixes []string
	forbiddenCalls          map[string][]string
}

var dependencyContracts = map[string]dependencyContract{
	// Resource packages talk to the platform through the narrow
	// provider interfaces, never the SDK clients directly.
	"function":    {forbiddenImportPrefixes: []string{"github.com/aws/aws-sdk-go-v2/service/"}},
	"iam":         {forbiddenImportPrefixes: []string{"github.com/aws/aws-sdk-go-v2/service/"}},
	"eventsource": {forbiddenImportPrefixes: []string{"github.com/aws/aws-sdk-go-v2/service/"}},
	"logs":        {forbiddenImportPrefixes: []string{"github.com/aws/aws-sdk-go-v2/service/"}},
	"stack":       {forbiddenImportPrefixes: []string{"github.com/aws/aws-sdk-go-v2/"}},
	// Local invocation never touches the platform SDK at all.
	"localrun": {forbiddenImportPrefixes: []string{"github.com/aws/aws-sdk-go-v2/"}},
	// Command handlers receive collaborators from wire instead of
	// constructing clients themselves.
	"app": {
		forbiddenCalls: map[string][]string{
			internalImportPrefix + "provider": {"NewClientFactory"},
			internalImportPrefix + "localrun": {"NewContainerClient"},
		},
	},
}

func TestDependencyContracts(t *testing.T) {
	t.Parallel()

	internalRoot := resolveInternalRoot(t)
	fset := token.NewFileSet()
	violations := []string{}

	err := filepath.WalkDir(internalRoot, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".go") || strings.HasSuffix(d.Name(), "_test.go") {
			return nil
		}
		rel, err := filepath.Rel(internalRoot, path)
		if err != nil {
			return err
		}
		contract, ok := dependencyContracts[topPackage(rel)]
		if !ok {
			return nil
		}

		file, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly|parser.SkipObjectResolution)
		if err != nil {
			return err
		}
		violations = append(violations, importViolations(fset, rel, file, contract)...)

		if len(contract.forbiddenCalls) > 0 {
			full, err := parser.ParseFile(fset, path, nil, parser.SkipObjectResolution)
			if err != nil {
				return err
			}
			violations = append(violations, callViolations(fset, rel, full, contract)...)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("scan internal packages: %v", err)
	}

	if len(violations) > 0 {
		sort.Strings(violations)
		t.Fatalf("dependency contract violations:\n%s", strings.Join(violations, "\n"))
	}
}

func importViolations(fset *token.FileSet, rel string, file *ast.File, contract dependencyContract) []string {
	out := []string{}
	for _, imp := range file.Imports {
		importPath := strings.Trim(imp.Path.Value, "\"")
		for _, prefix := range contract.forbiddenImportPrefixes {
			if strings.HasPrefix(importPath, prefix) {
				line := fset.Position(imp.Pos()).Line
				out = append(out, rel+":"+strconv.Itoa(line)+" -> import "+importPath)
			}
		}
	}
	return out
}

func callViolations(fset *token.FileSet, rel string, file *ast.File, contract dependencyContract) []string {
	aliases := importAliases(file)
	out := []string{}
	ast.Inspect(file, func(node ast.Node) bool {
		call, ok := node.(*ast.CallExpr)
		if !ok {
			return true
		}
		selector, ok := call.Fun.(*ast.SelectorExpr)
		if !ok {
			return true
		}
		ident, ok := selector.X.(*ast.Ident)
		if !ok {
			return true
		}
		importPath, ok := aliases[ident.Name]
		if !ok {
			return true
		}
		for _, symbol := range contract.forbiddenCalls[importPath] {
			if selector.Sel.Name == symbol {
				line := fset.Position(call.Pos()).Line
				out = append(out, rel+":"+strconv.Itoa(line)+" -> call "+importPath+"."+symbol)
			}
		}
		return true
	})
	return out
}

func importAliases(file *ast.File) map[string]string {
	aliases := map[string]string{}
	for _, imp := range file.Imports {
		importPath := strings.Trim(imp.Path.Value, "\"")
		if importPath == "" {
			continue
		}
		alias := pathpkg.Base(importPath)
		if imp.Name != nil {
			if imp.Name.Name == "_" || imp.Name.Name == "." {
				continue
			}
			alias = imp.Name.Name
		}
		aliases[alias] = importPath
	}
	return aliases
}
