// Where: internal/stack/report.go
// What: Per-step outcome collection for multi-resource operations.
// Why: The platform offers no transactions; callers need to see which steps failed.
package stack

import (
	"errors"
	"fmt"
	"log/slog"
)

// StepResult records the outcome of one step of a multi-resource
// operation. Err is nil when the step succeeded.
type StepResult struct {
	Name string
	Err  error
}

// Report aggregates the step outcomes of one orchestrator operation.
// Steps appear in execution order; steps skipped after a fail-fast
// abort are not recorded.
type Report struct {
	Steps []StepResult
}

// OK reports whether every recorded step succeeded.
func (r *Report) OK() bool {
	for _, step := range r.Steps {
		if step.Err != nil {
			return false
		}
	}
	return true
}

// Failed returns the steps that ended in an error.
func (r *Report) Failed() []StepResult {
	var failed []StepResult
	for _, step := range r.Steps {
		if step.Err != nil {
			failed = append(failed, step)
		}
	}
	return failed
}

// Err joins the failed steps into a single error, or returns nil when
// the operation completed cleanly.
func (r *Report) Err() error {
	var errs []error
	for _, step := range r.Steps {
		if step.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", step.Name, step.Err))
		}
	}
	return errors.Join(errs...)
}

// runner executes steps in sequence and records each outcome. In
// fail-fast mode the first failure halts the run; every later step is
// skipped and left out of the report.
type runner struct {
	report   *Report
	failFast bool
	logger   *slog.Logger
	halted   bool
}

// step runs fn unless the runner has halted. It reports whether the
// step ran and succeeded.
func (r *runner) step(name string, fn func() error) bool {
	if r.halted {
		return false
	}

	err := fn()
	r.report.Steps = append(r.report.Steps, StepResult{Name: name, Err: err})
	if err == nil {
		return true
	}

	r.logger.Warn("step failed", slog.String("step", name), slog.Any("error", err))
	if r.failFast {
		r.halted = true
	}
	return false
}
