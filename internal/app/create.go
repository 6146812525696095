// Where: internal/app/create.go
// What: Create command helpers.
// Why: First-time provisioning of the function and its managed resources.
package app

import (
	"context"
	"io"
)

// runCreate executes the 'create' command which provisions the policies,
// the role, and the function in dependency order.
func runCreate(cli CLI, deps Dependencies, out io.Writer) int {
	info, err := resolveCommandContext(cli)
	if err != nil {
		return exitWithError(out, err)
	}
	opts, err := stackOptions(cli.Create.FailFast)
	if err != nil {
		return exitWithError(out, err)
	}

	ctx := context.Background()
	stk, err := buildStack(ctx, deps, info, opts)
	if err != nil {
		return exitWithError(out, err)
	}

	console := newConsole(cli, out)
	console.Header("🚀", "Creating "+stk.Name())
	return finishReport(console, stk.Create(ctx), "Create complete")
}
