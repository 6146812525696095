// Where: internal/app/event_sources.go
// What: Event source command helpers.
// Why: Bindings attach after deployment and get their own verbs.
package app

import (
	"context"
	"fmt"
	"io"
)

// runEventSourcesAdd executes 'event-sources add' which attaches every
// configured binding to the deployed function.
func runEventSourcesAdd(cli CLI, deps Dependencies, out io.Writer) int {
	return runEventSourcesReconcile(cli, deps, out, false)
}

// runEventSourcesUpdate executes 'event-sources update' which reconciles
// existing bindings and creates missing ones.
func runEventSourcesUpdate(cli CLI, deps Dependencies, out io.Writer) int {
	return runEventSourcesReconcile(cli, deps, out, true)
}

func runEventSourcesReconcile(cli CLI, deps Dependencies, out io.Writer, update bool) int {
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
	console.Header("🔗", "Binding event sources to "+stk.Name())
	if update {
		return finishReport(console, stk.UpdateEventSources(ctx), "Event sources reconciled")
	}
	return finishReport(console, stk.AddEventSources(ctx), "Event sources attached")
}

// runEventSourcesStatus executes 'event-sources status' which reads the
// state of every configured binding.
func runEventSourcesStatus(cli CLI, deps Dependencies, out io.Writer) int {
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

	statuses, err := stk.EventSourceStatus(ctx)
	if err != nil {
		return exitWithError(out, err)
	}

	console := newConsole(cli, out)
	console.Header("🔗", "Event sources of "+stk.Name())
	if len(statuses) == 0 {
		console.ItemPlain("none configured")
		return 0
	}
	for _, source := range statuses {
		console.Item(string(source.Kind), fmt.Sprintf("%s [%s]", source.ARN, source.State))
	}
	return 0
}
