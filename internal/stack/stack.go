// Where: internal/stack/stack.go
// What: Deployment orchestrator sequencing resource lifecycles.
// Why: Ordering, consistency waits, and failure policy belong in one place.
package stack

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/slipway-sh/slipway/internal/config"
	"github.com/slipway-sh/slipway/internal/eventsource"
	"github.com/slipway-sh/slipway/internal/function"
	"github.com/slipway-sh/slipway/internal/iam"
	"github.com/slipway-sh/slipway/internal/logs"
	"github.com/slipway-sh/slipway/internal/provider"
	"github.com/slipway-sh/slipway/internal/wait"
)

// Options select per-run orchestration behavior.
type Options struct {
	// FailFast aborts a multi-step operation at the first failed step.
	// The default is to continue and collect every outcome.
	FailFast bool
	// Wait bounds the consistency polls after role creation and
	// resource deletion. The zero value uses the default bounds.
	Wait wait.Config
}

// Deps carries the collaborators a Stack operates through.
type Deps struct {
	Clients provider.Clients
	// BaseDir anchors relative paths from the configuration file.
	BaseDir string
	Logger  *slog.Logger
}

// Stack owns one function, its optional managed role and policies, its
// event source bindings, and its log channel for one deployment run.
type Stack struct {
	name       string
	opts       Options
	logger     *slog.Logger
	function   *function.Function
	role       *iam.Role
	manageRole bool
	policies   []*iam.Policy
	bindings   []eventsource.Binding
	logChannel *logs.Channel
}

// New builds the resource objects for one deployment run. Event source
// specs with an unrecognized producer kind fail here, before any
// remote call is issued.
func New(spec *config.DeploymentSpec, deps Deps, opts Options) (*Stack, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	s := &Stack{
		name:       spec.Name,
		opts:       opts,
		logger:     logger,
		manageRole: spec.ManagesRole(),
	}

	s.function = function.New(spec.Lambda, function.Deps{
		API:     deps.Clients.Functions,
		Objects: deps.Clients.Objects,
		BaseDir: deps.BaseDir,
		Logger:  logger,
	})

	// The role object is built even for unmanaged deployments: those
	// still resolve an externally provisioned role by name.
	s.role = iam.NewRole(spec.RoleName(), iam.RoleDeps{
		API:      deps.Clients.IAM,
		Identity: deps.Clients.Identity,
		Region:   deps.Clients.Region,
		Logger:   logger,
	})

	if spec.IAM != nil {
		for _, policySpec := range spec.IAM.Policies {
			s.policies = append(s.policies, iam.NewPolicy(policySpec, iam.PolicyDeps{
				API:     deps.Clients.IAM,
				BaseDir: deps.BaseDir,
				Logger:  logger,
			}))
		}
	}

	for _, sourceSpec := range spec.Lambda.EventSources {
		binding, err := eventsource.New(sourceSpec, eventsource.Deps{
			Mappings: deps.Clients.Mappings,
			Objects:  deps.Clients.Objects,
			Topics:   deps.Clients.Topics,
			Tables:   deps.Clients.Tables,
			Logger:   logger,
		})
		if err != nil {
			return nil, err
		}
		s.bindings = append(s.bindings, binding)
	}

	s.logChannel = logs.NewChannel(spec.Lambda.Name, deps.Clients.Logs, logger)
	return s, nil
}

// Name returns the deployment name.
func (s *Stack) Name() string { return s.name }

// Create provisions every managed resource in dependency order:
// policies, then the role, then a readiness wait, then the function.
func (s *Stack) Create(ctx context.Context) *Report {
	return s.converge(ctx, false)
}

// Deploy is the idempotent variant of Create: resources that already
// exist are updated in place instead of recreated.
func (s *Stack) Deploy(ctx context.Context) *Report {
	return s.converge(ctx, true)
}

func (s *Stack) converge(ctx context.Context, upsert bool) *Report {
	report := &Report{}
	run := s.runner(report)

	for _, policy := range s.policies {
		action := policy.Create
		if upsert {
			action = policy.Deploy
		}
		run.step("policy "+policy.Label(), func() error { return action(ctx) })
	}

	if s.manageRole {
		var policyARNs []string
		created := run.step("role "+s.role.Name(), func() error {
			arns, err := s.policyARNs(ctx)
			if err != nil {
				return err
			}
			policyARNs = arns
			return s.role.Create(ctx, s.function.Name(), policyARNs)
		})
		// The role and its attachments must be visible before the
		// function can reference them.
		if created {
			run.step("role readiness", func() error {
				return wait.Until(ctx, s.opts.Wait, func(ctx context.Context) (bool, error) {
					return s.role.Ready(ctx, policyARNs)
				})
			})
		}
	}

	run.step("function "+s.function.Name(), func() error {
		roleARN, err := s.role.Resolve(ctx)
		if err != nil {
			return err
		}
		action := s.function.Create
		if upsert {
			action = s.function.Deploy
		}
		return action(ctx, roleARN)
	})
	return report
}

// AddEventSources attaches every configured event source binding to
// the deployed function. Adding an already attached binding is a
// no-op.
func (s *Stack) AddEventSources(ctx context.Context) *Report {
	return s.reconcileBindings(ctx, false)
}

// UpdateEventSources reconciles binding parameters against the live
// bindings, creating any that are missing.
func (s *Stack) UpdateEventSources(ctx context.Context) *Report {
	return s.reconcileBindings(ctx, true)
}

func (s *Stack) reconcileBindings(ctx context.Context, update bool) *Report {
	report := &Report{}
	run := s.runner(report)

	var fn eventsource.FunctionRef
	resolved := run.step("resolve function", func() error {
		ref, err := s.functionRef(ctx)
		if err != nil {
			return err
		}
		if ref.ARN == "" {
			return fmt.Errorf("function %s is not deployed", s.function.Name())
		}
		fn = ref
		return nil
	})
	if !resolved {
		return report
	}

	for _, binding := range s.bindings {
		action := binding.Add
		if update {
			action = binding.Update
		}
		run.step("source "+binding.ARN(), func() error { return action(ctx, fn) })
	}
	return report
}

// UpdateCode repackages the source tree and pushes only the code
// artifact. Configuration and IAM resources are left untouched.
func (s *Stack) UpdateCode(ctx context.Context) error {
	return s.function.UpdateCode(ctx)
}

// Invoke runs the function synchronously and returns the full result.
func (s *Stack) Invoke(ctx context.Context, payload []byte) (*provider.InvokeResult, error) {
	return s.function.Invoke(ctx, payload, provider.InvokeSync)
}

// InvokeAsync queues an event invocation and returns immediately.
func (s *Stack) InvokeAsync(ctx context.Context, payload []byte) (*provider.InvokeResult, error) {
	return s.function.Invoke(ctx, payload, provider.InvokeAsync)
}

// InvokeDryRun validates the invocation without executing the handler.
func (s *Stack) InvokeDryRun(ctx context.Context, payload []byte) (*provider.InvokeResult, error) {
	return s.function.Invoke(ctx, payload, provider.InvokeDryRun)
}

// Tail streams the function's log events to w.
func (s *Stack) Tail(ctx context.Context, w io.Writer, opts logs.TailOptions) error {
	return s.logChannel.Tail(ctx, w, opts)
}

// Delete tears the deployment down in reverse dependency order:
// bindings, log group, function, role, policies. Later resources are
// still attempted when an earlier removal fails, unless fail-fast is
// set.
func (s *Stack) Delete(ctx context.Context) *Report {
	report := &Report{}
	run := s.runner(report)

	fn, err := s.functionRef(ctx)
	if err != nil {
		s.logger.Warn("function identity not resolvable", slog.Any("error", err))
		fn = eventsource.FunctionRef{Name: s.function.Name()}
	}
	for _, binding := range s.bindings {
		run.step("source "+binding.ARN(), func() error { return binding.Remove(ctx, fn) })
	}

	run.step("log group", func() error { return s.logChannel.Delete(ctx) })

	if run.step("function "+s.function.Name(), func() error { return s.function.Delete(ctx) }) {
		run.step("function settle", func() error { return s.waitGone(ctx, s.functionGone) })
	}

	if s.manageRole {
		if run.step("role "+s.role.Name(), func() error {
			arns, err := s.policyARNs(ctx)
			if err != nil {
				return err
			}
			return s.role.Delete(ctx, arns)
		}) {
			run.step("role settle", func() error { return s.waitGone(ctx, s.roleGone) })
		}
	}

	for _, policy := range s.policies {
		run.step("policy "+policy.Label(), func() error { return policy.Delete(ctx) })
	}
	return report
}

// Status fans read-only queries out to every owned resource. Unmanaged
// role and policy slots stay nil so callers can tell them apart from
// managed-but-missing resources.
func (s *Stack) Status(ctx context.Context) (*Status, error) {
	status := &Status{
		Name:         s.name,
		EventSources: []eventsource.Status{},
	}

	if len(s.policies) > 0 {
		entries := make([]PolicyStatus, 0, len(s.policies))
		for _, policy := range s.policies {
			record, err := policy.Status(ctx)
			if err != nil {
				return nil, err
			}
			entries = append(entries, mapPolicyStatus(policy.Label(), record))
		}
		status.Policies = &entries
	}

	if s.manageRole {
		record, err := s.role.Status(ctx)
		if err != nil {
			return nil, err
		}
		status.Role = mapRoleStatus(s.role.Name(), record)
	}

	record, err := s.function.Status(ctx)
	if err != nil {
		return nil, err
	}
	status.Function = mapFunctionStatus(record)

	sources, err := s.bindingStatuses(ctx)
	if err != nil {
		return nil, err
	}
	status.EventSources = sources

	status.State = DeriveState(*status)
	return status, nil
}

// EventSourceStatus reports only the binding slots.
func (s *Stack) EventSourceStatus(ctx context.Context) ([]eventsource.Status, error) {
	return s.bindingStatuses(ctx)
}

func (s *Stack) bindingStatuses(ctx context.Context) ([]eventsource.Status, error) {
	statuses := make([]eventsource.Status, 0, len(s.bindings))
	if len(s.bindings) == 0 {
		return statuses, nil
	}

	fn, err := s.functionRef(ctx)
	if err != nil {
		return nil, err
	}
	for _, binding := range s.bindings {
		st, err := binding.Status(ctx, fn)
		if err != nil {
			return nil, err
		}
		if st == nil {
			st = &eventsource.Status{Kind: binding.Kind(), ARN: binding.ARN(), State: "Absent"}
		}
		statuses = append(statuses, *st)
	}
	return statuses, nil
}

func (s *Stack) runner(report *Report) *runner {
	return &runner{report: report, failFast: s.opts.FailFast, logger: s.logger}
}

func (s *Stack) functionRef(ctx context.Context) (eventsource.FunctionRef, error) {
	arn, err := s.function.Resolve(ctx)
	if err != nil {
		return eventsource.FunctionRef{}, err
	}
	return eventsource.FunctionRef{Name: s.function.Name(), ARN: arn}, nil
}

// policyARNs resolves every configured policy identity. A policy that
// cannot be resolved is skipped with a warning so one missing policy
// does not block the remaining attachments.
func (s *Stack) policyARNs(ctx context.Context) ([]string, error) {
	arns := make([]string, 0, len(s.policies))
	for _, policy := range s.policies {
		arn, err := policy.Resolve(ctx)
		if err != nil {
			return nil, err
		}
		if arn == "" {
			s.logger.Warn("policy not resolvable", slog.String("policy", policy.Label()))
			continue
		}
		arns = append(arns, arn)
	}
	return arns, nil
}

func (s *Stack) waitGone(ctx context.Context, gone wait.Predicate) error {
	return wait.Until(ctx, s.opts.Wait, gone)
}

func (s *Stack) functionGone(ctx context.Context) (bool, error) {
	record, err := s.function.Status(ctx)
	if err != nil {
		return false, err
	}
	return record == nil, nil
}

func (s *Stack) roleGone(ctx context.Context) (bool, error) {
	record, err := s.role.Status(ctx)
	if err != nil {
		return false, err
	}
	return record == nil, nil
}
