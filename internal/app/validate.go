// Where: internal/app/validate.go
// What: Validate command helpers.
// Why: Surface configuration problems before any remote call.
package app

import (
	"fmt"
	"io"

	"github.com/slipway-sh/slipway/internal/config"
)

// runValidate executes the 'validate' command which checks the
// configuration against the schema and resolves its defaults.
func runValidate(cli CLI, deps Dependencies, out io.Writer) int {
	spec, err := config.Load(cli.Config)
	if err != nil {
		return exitWithError(out, err)
	}

	console := newConsole(cli, out)
	console.Success(fmt.Sprintf("%s is valid", cli.Config))
	console.Item("Deployment", spec.Name)
	console.Item("Function", spec.Lambda.Name)
	if spec.ManagesRole() {
		console.Item("Role", spec.RoleName())
	}
	if count := len(spec.Lambda.EventSources); count > 0 {
		console.Item("Event sources", count)
	}
	return 0
}
