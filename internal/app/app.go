// Where: internal/app/app.go
// What: CLI entrypoint logic.
// Why: Provide a testable command dispatcher.
package app

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"github.com/slipway-sh/slipway/internal/interaction"
	"github.com/slipway-sh/slipway/internal/localrun"
	"github.com/slipway-sh/slipway/internal/version"
)

// Dependencies holds all injected dependencies required for CLI command
// execution. This structure enables dependency injection for testing and
// allows swapping the platform and the local runners.
type Dependencies struct {
	Out            io.Writer
	LogLevel       *slog.LevelVar
	Stacks         StackBuilder
	Local          localrun.Invoker
	LocalContainer func() (localrun.Invoker, error)
	Prompter       interaction.Prompter
}

// CLI defines the command-line interface structure parsed by Kong.
// It contains global flags and all subcommand definitions.
type CLI struct {
	Config  string `short:"c" default:"slipway.yml" help:"Path to the deployment configuration"`
	Profile string `help:"Credential profile override"`
	Region  string `help:"Region override"`
	EnvFile string `name:"env-file" help:"Path to .env file"`
	Debug   bool   `help:"Enable debug logging"`
	NoEmoji bool   `name:"no-emoji" help:"Disable emoji in output"`

	Create       CreateCmd       `cmd:"" help:"Provision the function and its managed resources"`
	Deploy       DeployCmd       `cmd:"" help:"Create or update everything to match the configuration"`
	UpdateCode   UpdateCodeCmd   `cmd:"" name:"update-code" help:"Push code changes without touching configuration"`
	Delete       DeleteCmd       `cmd:"" help:"Tear down the function and its managed resources"`
	Status       StatusCmd       `cmd:"" help:"Show the deployment status"`
	Invoke       InvokeCmd       `cmd:"" help:"Invoke the deployed function"`
	InvokeAsync  InvokeAsyncCmd  `cmd:"" name:"invoke-async" help:"Queue an asynchronous invocation"`
	InvokeLocal  InvokeLocalCmd  `cmd:"" name:"invoke-local" help:"Run the handler locally without deploying"`
	Tail         TailCmd         `cmd:"" help:"Print function log events"`
	EventSources EventSourcesCmd `cmd:"" name:"event-sources" help:"Manage event source bindings"`
	Validate     ValidateCmd     `cmd:"" help:"Validate the configuration file"`
	Version      VersionCmd      `cmd:"" help:"Show version information"`
}

type VersionCmd struct{}

type (
	CreateCmd struct {
		FailFast bool `name:"fail-fast" help:"Stop at the first failed step"`
	}
	DeployCmd struct {
		FailFast bool `name:"fail-fast" help:"Stop at the first failed step"`
	}
	UpdateCodeCmd struct{}
	DeleteCmd     struct {
		Yes      bool `short:"y" help:"Skip confirmation prompt"`
		FailFast bool `name:"fail-fast" help:"Stop at the first failed step"`
	}
	StatusCmd struct {
		JSON bool `name:"json" help:"Emit machine-readable JSON"`
	}
	ValidateCmd struct{}
)

type InvokeCmd struct {
	Payload string `arg:"" optional:"" help:"JSON payload (default: configured test data)"`
	DryRun  bool   `name:"dry-run" help:"Validate the invocation without running the handler"`
}

type InvokeAsyncCmd struct {
	Payload string `arg:"" optional:"" help:"JSON payload (default: configured test data)"`
}

type InvokeLocalCmd struct {
	Payload   string `arg:"" optional:"" help:"JSON payload (default: configured test data)"`
	Container bool   `help:"Run inside the runtime container image"`
}

type TailCmd struct {
	Follow   bool          `short:"f" help:"Keep polling for new events"`
	Interval time.Duration `default:"2s" help:"Poll interval while following"`
}

type EventSourcesCmd struct {
	Add    EventSourcesAddCmd    `cmd:"" help:"Attach the configured event sources"`
	Update EventSourcesUpdateCmd `cmd:"" help:"Reconcile the configured event sources"`
	Status EventSourcesStatusCmd `cmd:"" help:"Show event source binding state"`
}

type (
	EventSourcesAddCmd    struct{}
	EventSourcesUpdateCmd struct{}
	EventSourcesStatusCmd struct{}
)

// Run is the main entry point for CLI command execution.
// It parses the command-line arguments, identifies the requested command,
// and dispatches to the appropriate handler. Returns 0 on success, 1 on error.
func Run(args []string, deps Dependencies) int {
	out := deps.Out
	if out == nil {
		out = os.Stdout
	}

	cli := CLI{}
	parser, err := kong.New(&cli)
	if err != nil {
		return exitWithError(out, err)
	}

	ctx, err := parser.Parse(args)
	if err != nil {
		return exitWithError(out, err)
	}

	// Load environment file if provided or if .env exists in current directory
	if cli.EnvFile != "" {
		if err := godotenv.Load(cli.EnvFile); err != nil {
			fmt.Fprintf(out, "Warning: failed to load env file %s: %v\n", cli.EnvFile, err)
		}
	} else {
		if _, err := os.Stat(".env"); err == nil {
			if err := godotenv.Load(); err != nil {
				fmt.Fprintf(out, "Warning: failed to load .env: %v\n", err)
			}
		}
	}

	if cli.Debug && deps.LogLevel != nil {
		deps.LogLevel.Set(slog.LevelDebug)
	}

	command := ctx.Command()
	if exitCode, handled := dispatchCommand(command, cli, deps, out); handled {
		return exitCode
	}

	fmt.Fprintln(out, "unknown command")
	return 1
}

type commandHandler func(CLI, Dependencies, io.Writer) int

type prefixHandler struct {
	prefix  string
	handler commandHandler
}

func dispatchCommand(command string, cli CLI, deps Dependencies, out io.Writer) (int, bool) {
	exactHandlers := map[string]commandHandler{
		"create":               runCreate,
		"deploy":               runDeploy,
		"update-code":          runUpdateCode,
		"delete":               runDelete,
		"status":               runStatus,
		"invoke":               runInvoke,
		"invoke-async":         runInvokeAsync,
		"invoke-local":         runInvokeLocal,
		"tail":                 runTail,
		"event-sources add":    runEventSourcesAdd,
		"event-sources update": runEventSourcesUpdate,
		"event-sources status": runEventSourcesStatus,
		"validate":             runValidate,
		"version":              func(_ CLI, _ Dependencies, out io.Writer) int { return runVersion(out) },
	}

	if handler, ok := exactHandlers[command]; ok {
		return handler(cli, deps, out), true
	}

	// Payload-carrying invocations parse as "invoke <payload>". The plain
	// "invoke" prefix must stay last because it also matches the other two.
	prefixHandlers := []prefixHandler{
		{prefix: "invoke-async", handler: runInvokeAsync},
		{prefix: "invoke-local", handler: runInvokeLocal},
		{prefix: "invoke", handler: runInvoke},
	}

	for _, entry := range prefixHandlers {
		if strings.HasPrefix(command, entry.prefix) {
			return entry.handler(cli, deps, out), true
		}
	}

	return 1, false
}

// runVersion prints the version information of the CLI.
func runVersion(out io.Writer) int {
	fmt.Fprintln(out, version.GetVersion())
	return 0
}
