// Where: internal/wire/wire.go
// What: CLI dependency wiring.
// Why: Centralize dependency construction for reuse by main and tests.
package wire

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/slipway-sh/slipway/internal/app"
	"github.com/slipway-sh/slipway/internal/config"
	"github.com/slipway-sh/slipway/internal/interaction"
	"github.com/slipway-sh/slipway/internal/localrun"
	"github.com/slipway-sh/slipway/internal/provider"
	"github.com/slipway-sh/slipway/internal/stack"
)

var (
	// NewClientFactory builds the platform client factory. Tests may
	// override this helper.
	NewClientFactory = provider.NewClientFactory
	// NewContainerClient creates the Docker client for container-backed
	// local invocation. Tests may override this helper.
	NewContainerClient = localrun.NewContainerClient
	// Stdout is the writer used for CLI output.
	Stdout io.Writer = os.Stdout
	// Stderr receives logging and local handler diagnostics.
	Stderr io.Writer = os.Stderr
)

// BuildDependencies constructs the dependency bundle the CLI runs
// against. Platform clients are not connected here; the stack builder
// connects lazily so offline commands never touch the network.
func BuildDependencies() app.Dependencies {
	level := &slog.LevelVar{}
	level.Set(slog.LevelWarn)
	logger := slog.New(slog.NewTextHandler(Stderr, &slog.HandlerOptions{Level: level}))

	return app.Dependencies{
		Out:      Stdout,
		LogLevel: level,
		Stacks:   StackBuilder{Logger: logger},
		Local:    localrun.NewHostRunner(Stderr, logger),
		LocalContainer: func() (localrun.Invoker, error) {
			dockerClient, err := NewContainerClient()
			if err != nil {
				return nil, err
			}
			return localrun.NewContainerRunner(dockerClient, Stderr, logger), nil
		},
		Prompter: interaction.HuhPrompter{},
	}
}

// StackBuilder assembles a deployment stack against the live platform.
type StackBuilder struct {
	Logger *slog.Logger
}

// Build connects the service clients for the spec's profile and region
// and constructs the stack for one deployment run.
func (b StackBuilder) Build(ctx context.Context, spec *config.DeploymentSpec, baseDir string, opts stack.Options) (app.Stacker, error) {
	factory := NewClientFactory(provider.Options{Profile: spec.Profile, Region: spec.Region})
	clients, err := factory.Connect(ctx)
	if err != nil {
		return nil, err
	}
	return stack.New(spec, stack.Deps{Clients: clients, BaseDir: baseDir, Logger: b.Logger}, opts)
}
