// Where: internal/app/delete.go
// What: Delete command helpers.
// Why: Tear down the deployment with an explicit confirmation gate.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// runDelete executes the 'delete' command which removes the bindings, the
// log group, the function, and the managed role and policies.
func runDelete(cli CLI, deps Dependencies, out io.Writer) int {
	info, err := resolveCommandContext(cli)
	if err != nil {
		return exitWithError(out, err)
	}

	if !cli.Delete.Yes {
		if deps.Prompter == nil {
			return exitWithError(out, errors.New("delete requires --yes in non-interactive mode"))
		}
		confirmed, err := deps.Prompter.Confirm(fmt.Sprintf("Delete deployment %s?", info.Spec.Name))
		if err != nil {
			return exitWithError(out, err)
		}
		if !confirmed {
			fmt.Fprintln(out, "Aborted.")
			return 1
		}
	}

	opts, err := stackOptions(cli.Delete.FailFast)
	if err != nil {
		return exitWithError(out, err)
	}

	ctx := context.Background()
	stk, err := buildStack(ctx, deps, info, opts)
	if err != nil {
		return exitWithError(out, err)
	}

	console := newConsole(cli, out)
	console.Header("🧹", "Deleting "+stk.Name())
	return finishReport(console, stk.Delete(ctx), "Delete complete")
}
