// Where: internal/app/tail.go
// What: Tail command helpers.
// Why: Stream the function's remote log events to the terminal.
package app

import (
	"context"
	"errors"
	"io"

	"github.com/slipway-sh/slipway/internal/logs"
)

// runTail executes the 'tail' command which prints log events oldest
// first and, with --follow, keeps polling for new ones.
func runTail(cli CLI, deps Dependencies, out io.Writer) int {
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

	tailOpts := logs.TailOptions{
		Follow:   cli.Tail.Follow,
		Interval: cli.Tail.Interval,
	}
	if err := stk.Tail(ctx, out, tailOpts); err != nil && !errors.Is(err, context.Canceled) {
		return exitWithError(out, err)
	}
	return 0
}
