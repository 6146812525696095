// Where: internal/app/deps.go
// What: Injection seams between command handlers and the deployment stack.
// Why: Handlers run against interfaces so tests never need platform clients.
package app

import (
	"context"
	"io"

	"github.com/slipway-sh/slipway/internal/config"
	"github.com/slipway-sh/slipway/internal/eventsource"
	"github.com/slipway-sh/slipway/internal/logs"
	"github.com/slipway-sh/slipway/internal/provider"
	"github.com/slipway-sh/slipway/internal/stack"
)

// Stacker is the per-deployment operation surface the handlers drive.
// *stack.Stack satisfies it.
type Stacker interface {
	Name() string
	Create(ctx context.Context) *stack.Report
	Deploy(ctx context.Context) *stack.Report
	UpdateCode(ctx context.Context) error
	Delete(ctx context.Context) *stack.Report
	Status(ctx context.Context) (*stack.Status, error)
	AddEventSources(ctx context.Context) *stack.Report
	UpdateEventSources(ctx context.Context) *stack.Report
	EventSourceStatus(ctx context.Context) ([]eventsource.Status, error)
	Invoke(ctx context.Context, payload []byte) (*provider.InvokeResult, error)
	InvokeAsync(ctx context.Context, payload []byte) (*provider.InvokeResult, error)
	InvokeDryRun(ctx context.Context, payload []byte) (*provider.InvokeResult, error)
	Tail(ctx context.Context, w io.Writer, opts logs.TailOptions) error
}

// StackBuilder connects to the platform and assembles the stack for one
// resolved configuration.
type StackBuilder interface {
	Build(ctx context.Context, spec *config.DeploymentSpec, baseDir string, opts stack.Options) (Stacker, error)
}
