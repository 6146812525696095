// Where: internal/app/deploy.go
// What: Deploy and update-code command helpers.
// Why: Converge the remote deployment on the configuration.
package app

import (
	"context"
	"io"
)

// runDeploy executes the 'deploy' command which creates missing resources
// and updates existing ones to match the configuration.
func runDeploy(cli CLI, deps Dependencies, out io.Writer) int {
	info, err := resolveCommandContext(cli)
	if err != nil {
		return exitWithError(out, err)
	}
	opts, err := stackOptions(cli.Deploy.FailFast)
	if err != nil {
		return exitWithError(out, err)
	}

	ctx := context.Background()
	stk, err := buildStack(ctx, deps, info, opts)
	if err != nil {
		return exitWithError(out, err)
	}

	console := newConsole(cli, out)
	console.Header("🚀", "Deploying "+stk.Name())
	return finishReport(console, stk.Deploy(ctx), "Deploy complete")
}

// runUpdateCode executes the 'update-code' command which repackages the
// source and pushes the artifact without touching configuration.
func runUpdateCode(cli CLI, deps Dependencies, out io.Writer) int {
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

	console := newConsole(cli, out)
	console.Header("🚀", "Updating code of "+stk.Name())
	if err := stk.UpdateCode(ctx); err != nil {
		return exitWithError(out, err)
	}
	console.Success("Code updated")
	return 0
}
