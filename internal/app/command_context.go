// Where: internal/app/command_context.go
// What: Shared context resolution for CLI commands.
// Why: Reduce duplicated config loading and stack assembly across commands.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/slipway-sh/slipway/internal/config"
	"github.com/slipway-sh/slipway/internal/constants"
	"github.com/slipway-sh/slipway/internal/envutil"
	"github.com/slipway-sh/slipway/internal/stack"
	"github.com/slipway-sh/slipway/internal/ui"
	"github.com/slipway-sh/slipway/internal/wait"
)

func exitWithError(out io.Writer, err error) int {
	fmt.Fprintln(out, err)
	return 1
}

type commandContext struct {
	Spec    *config.DeploymentSpec
	BaseDir string
}

// resolveCommandContext loads the configuration file and applies the
// global CLI overrides. Relative paths inside the configuration are
// anchored at the file's directory.
func resolveCommandContext(cli CLI) (commandContext, error) {
	spec, err := config.Load(cli.Config)
	if err != nil {
		return commandContext{}, err
	}
	if cli.Profile != "" {
		spec.Profile = cli.Profile
	}
	if cli.Region != "" {
		spec.Region = cli.Region
	}
	return commandContext{Spec: spec, BaseDir: filepath.Dir(cli.Config)}, nil
}

func newConsole(cli CLI, out io.Writer) *ui.Console {
	enabled := !cli.NoEmoji && !envutil.Bool(constants.EnvNoEmoji)
	return ui.NewWithEmoji(out, enabled)
}

func stackOptions(failFast bool) (stack.Options, error) {
	timeout, err := envutil.Duration(constants.EnvWaitTimeout, 0)
	if err != nil {
		return stack.Options{}, err
	}
	return stack.Options{FailFast: failFast, Wait: wait.Config{Timeout: timeout}}, nil
}

func buildStack(ctx context.Context, deps Dependencies, info commandContext, opts stack.Options) (Stacker, error) {
	if deps.Stacks == nil {
		return nil, errors.New("platform access not configured")
	}
	return deps.Stacks.Build(ctx, info.Spec, info.BaseDir, opts)
}

func printReport(console *ui.Console, report *stack.Report) {
	for _, step := range report.Steps {
		if step.Err != nil {
			console.Error(step.Name + ": " + step.Err.Error())
			continue
		}
		console.Success(step.Name)
	}
}

func finishReport(console *ui.Console, report *stack.Report, done string) int {
	printReport(console, report)
	if !report.OK() {
		return 1
	}
	console.Info(done)
	return 0
}
