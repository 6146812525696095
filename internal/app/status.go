// Where: internal/app/status.go
// What: Status command helpers.
// Why: One aggregated readout, human or JSON, per deployment.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/slipway-sh/slipway/internal/stack"
	"github.com/slipway-sh/slipway/internal/ui"
)

// runStatus executes the 'status' command which reads every resource of
// the deployment and prints the aggregate.
func runStatus(cli CLI, deps Dependencies, out io.Writer) int {
	info, err := resolveCommandContext(cli)
	if err != nil {
		return exitWithError(out, err)
	}
	opts, err := stackOptions(false)
	if err != nil {
		return exitWithError(out, err)
	}

	ctx := context.Background()
	stk, err := buildStack(ctx, deps, info, opts)
	if err != nil {
		return exitWithError(out, err)
	}

	status, err := stk.Status(ctx)
	if err != nil {
		return exitWithError(out, err)
	}

	if cli.Status.JSON {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(status); err != nil {
			return exitWithError(out, err)
		}
		return 0
	}

	printStatus(newConsole(cli, out), status)
	return 0
}

func printStatus(console *ui.Console, status *stack.Status) {
	console.Header("📦", "Deployment "+status.Name)
	console.Item("State", status.State)

	if status.Policies != nil {
		for _, policy := range *status.Policies {
			console.Item("Policy "+policy.Name, foundLabel(policy.Found, policy.ARN))
		}
	}
	if status.Role != nil {
		console.Item("Role "+status.Role.Name, foundLabel(status.Role.Found, status.Role.ARN))
	}

	if status.Function == nil {
		console.Item("Function", "not found")
	} else {
		console.Item("Function", status.Function.ARN)
		console.Item("Runtime", status.Function.Runtime)
		console.Item("Handler", status.Function.Handler)
		console.Item("Code size", status.Function.CodeSize)
		if status.Function.LastModified != "" {
			console.Item("Modified", status.Function.LastModified)
		}
	}

	for _, source := range status.EventSources {
		console.Item("Source", fmt.Sprintf("%s %s [%s]", source.Kind, source.ARN, source.State))
	}
}

func foundLabel(found bool, arn string) string {
	if !found {
		return "not found"
	}
	return arn
}
