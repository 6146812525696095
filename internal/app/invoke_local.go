// Where: internal/app/invoke_local.go
// What: Local invocation command helpers.
// Why: Run the handler offline, on the host interpreter or in a container.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/slipway-sh/slipway/internal/function"
	"github.com/slipway-sh/slipway/internal/localrun"
)

// runInvokeLocal executes the 'invoke-local' command. It never talks to
// the platform: the handler runs on the host interpreter, or inside the
// runtime image with --container.
func runInvokeLocal(cli CLI, deps Dependencies, out io.Writer) int {
	info, err := resolveCommandContext(cli)
	if err != nil {
		return exitWithError(out, err)
	}

	runner := deps.Local
	if cli.InvokeLocal.Container {
		if deps.LocalContainer == nil {
			return exitWithError(out, errors.New("invoke-local: container runner not configured"))
		}
		containerRunner, err := deps.LocalContainer()
		if err != nil {
			return exitWithError(out, err)
		}
		runner = containerRunner
	}
	if runner == nil {
		return exitWithError(out, errors.New("invoke-local: not implemented"))
	}

	req, err := localRequest(info, payloadBytes(cli.InvokeLocal.Payload))
	if err != nil {
		return exitWithError(out, err)
	}

	result, err := runner.Invoke(context.Background(), req)
	if err != nil {
		return exitWithError(out, err)
	}
	if len(result.Payload) > 0 {
		fmt.Fprintln(out, strings.TrimRight(string(result.Payload), "\n"))
	}
	return 0
}

// localRequest resolves the handler location, runtime, and payload the
// same way a remote deployment would.
func localRequest(info commandContext, explicit []byte) (localrun.Request, error) {
	fn := function.New(info.Spec.Lambda, function.Deps{BaseDir: info.BaseDir})
	payload, err := fn.Payload(explicit)
	if err != nil {
		return localrun.Request{}, err
	}
	profile, err := fn.RuntimeProfile()
	if err != nil {
		return localrun.Request{}, err
	}
	return localrun.Request{
		FunctionName: info.Spec.Lambda.Name,
		Handler:      info.Spec.Lambda.Handler,
		SourceDir:    fn.SourcePath(),
		Runtime:      profile,
		Payload:      payload,
		MemorySize:   info.Spec.Lambda.MemorySize,
		Timeout:      info.Spec.Lambda.Timeout,
	}, nil
}
