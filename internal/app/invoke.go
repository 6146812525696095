// Where: internal/app/invoke.go
// What: Remote invocation command helpers.
// Why: Share payload resolution and result printing across the invoke verbs.
package app

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/slipway-sh/slipway/internal/provider"
	"github.com/slipway-sh/slipway/internal/ui"
)

// runInvoke executes the 'invoke' command, a synchronous invocation of
// the deployed function. With --dry-run the platform only validates the
// call.
func runInvoke(cli CLI, deps Dependencies, out io.Writer) int {
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
	if cli.Invoke.DryRun {
		result, err := stk.InvokeDryRun(ctx, payloadBytes(cli.Invoke.Payload))
		if err != nil {
			return exitWithError(out, err)
		}
		console.Success(fmt.Sprintf("Dry run passed (status %d)", result.StatusCode))
		return 0
	}

	result, err := stk.Invoke(ctx, payloadBytes(cli.Invoke.Payload))
	if err != nil {
		return exitWithError(out, err)
	}
	return printInvokeResult(console, out, result)
}

// runInvokeAsync executes the 'invoke-async' command which queues the
// event and returns without waiting for the handler.
func runInvokeAsync(cli CLI, deps Dependencies, out io.Writer) int {
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

	result, err := stk.InvokeAsync(ctx, payloadBytes(cli.InvokeAsync.Payload))
	if err != nil {
		return exitWithError(out, err)
	}
	newConsole(cli, out).Success(fmt.Sprintf("Queued (status %d)", result.StatusCode))
	return 0
}

func payloadBytes(arg string) []byte {
	if arg == "" {
		return nil
	}
	return []byte(arg)
}

func printInvokeResult(console *ui.Console, out io.Writer, result *provider.InvokeResult) int {
	if result.LogTail != "" {
		for _, line := range strings.Split(strings.TrimRight(result.LogTail, "\n"), "\n") {
			console.ItemPlain(line)
		}
	}
	if len(result.Payload) > 0 {
		fmt.Fprintln(out, string(result.Payload))
	}
	if result.FunctionError != "" {
		console.Error("function error: " + result.FunctionError)
		return 1
	}
	return 0
}
