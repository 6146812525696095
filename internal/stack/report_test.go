// Where: internal/stack/report_test.go
// What: Tests for step outcome collection and the fail-fast runner.
package stack

import (
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestReportErrJoinsFailedSteps(t *testing.T) {
	report := &Report{Steps: []StepResult{
		{Name: "policy custom", Err: nil},
		{Name: "role hello", Err: errors.New("denied")},
		{Name: "function hello", Err: errors.New("no role")},
	}}

	if report.OK() {
		t.Fatalf("report with failures must not be OK")
	}
	if len(report.Failed()) != 2 {
		t.Fatalf("unexpected failed steps: %+v", report.Failed())
	}

	err := report.Err()
	if err == nil {
		t.Fatalf("expected joined error")
	}
	for _, want := range []string{"role hello: denied", "function hello: no role"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("missing %q in %v", want, err)
		}
	}
}

func TestReportEmptyIsOK(t *testing.T) {
	report := &Report{}
	if !report.OK() || report.Err() != nil {
		t.Fatalf("empty report must be clean")
	}
}

func TestRunnerContinuesByDefault(t *testing.T) {
	report := &Report{}
	run := &runner{report: report, logger: slog.New(slog.DiscardHandler)}

	run.step("first", func() error { return errors.New("boom") })
	ran := false
	run.step("second", func() error { ran = true; return nil })

	if !ran {
		t.Fatalf("later steps must still run without fail-fast")
	}
	if len(report.Steps) != 2 {
		t.Fatalf("unexpected steps: %+v", report.Steps)
	}
}

func TestRunnerFailFastHalts(t *testing.T) {
	report := &Report{}
	run := &runner{report: report, failFast: true, logger: slog.New(slog.DiscardHandler)}

	run.step("first", func() error { return errors.New("boom") })
	ran := false
	run.step("second", func() error { ran = true; return nil })

	if ran {
		t.Fatalf("fail-fast must skip later steps")
	}
	if len(report.Steps) != 1 {
		t.Fatalf("skipped steps must not be recorded: %+v", report.Steps)
	}
}
