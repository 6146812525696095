// Where: internal/app/status_test.go
// What: Tests for the status readout.
// Why: JSON output must keep unmanaged slots distinguishable from missing ones.
package app

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/slipway-sh/slipway/internal/eventsource"
	"github.com/slipway-sh/slipway/internal/stack"
)

func deployedStatus() *stack.Status {
	policies := []stack.PolicyStatus{{Name: "custom", Found: true, ARN: "arn:aws:iam::123456789012:policy/custom"}}
	return &stack.Status{
		Name:     "hello",
		State:    stack.StateDeployed,
		Policies: &policies,
		Role:     &stack.RoleStatus{Name: "hello", Found: true, ARN: "arn:aws:iam::123456789012:role/hello"},
		Function: &stack.FunctionStatus{
			Name:    "hello",
			ARN:     "arn:aws:lambda:us-east-1:123456789012:function:hello",
			Runtime: "python3.12",
			Handler: "app.handler",
		},
		EventSources: []eventsource.Status{
			{Kind: eventsource.KindKinesis, ARN: "arn:aws:kinesis:us-east-1:123456789012:stream/clicks", State: "Enabled"},
		},
	}
}

func TestRunStatusHuman(t *testing.T) {
	stacker, _, deps, out, cfgPath := newTestHarness(t)
	stacker.status = deployedStatus()

	if exitCode := Run([]string{"-c", cfgPath, "status"}, deps); exitCode != 0 {
		t.Fatalf("expected exit code 0, got %d\n%s", exitCode, out.String())
	}
	text := out.String()
	for _, want := range []string{
		"Deployment hello",
		"deployed",
		"Policy custom",
		"Role hello",
		"arn:aws:lambda:us-east-1:123456789012:function:hello",
		"stream/clicks",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("output missing %q:\n%s", want, text)
		}
	}
}

func TestRunStatusHumanUnmanaged(t *testing.T) {
	stacker, _, deps, out, cfgPath := newTestHarness(t)
	stacker.status = &stack.Status{
		Name:         "hello",
		State:        stack.StateAbsent,
		EventSources: []eventsource.Status{},
	}

	if exitCode := Run([]string{"-c", cfgPath, "status"}, deps); exitCode != 0 {
		t.Fatalf("expected exit code 0, got %d", exitCode)
	}
	text := out.String()
	if !strings.Contains(text, "Function") || !strings.Contains(text, "not found") {
		t.Fatalf("missing absent function marker:\n%s", text)
	}
	if strings.Contains(text, "Role") {
		t.Fatalf("unmanaged role printed:\n%s", text)
	}
}

func TestRunStatusJSON(t *testing.T) {
	stacker, _, deps, out, cfgPath := newTestHarness(t)
	stacker.status = deployedStatus()

	if exitCode := Run([]string{"-c", cfgPath, "status", "--json"}, deps); exitCode != 0 {
		t.Fatalf("expected exit code 0, got %d\n%s", exitCode, out.String())
	}

	var decoded map[string]any
	if err := json.Unmarshal(out.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON output: %v\n%s", err, out.String())
	}
	if decoded["name"] != "hello" || decoded["state"] != "deployed" {
		t.Fatalf("decoded = %v", decoded)
	}
	if _, ok := decoded["function"].(map[string]any); !ok {
		t.Fatalf("function block missing: %v", decoded)
	}
}

func TestRunStatusJSONUnmanagedSlotsAreNull(t *testing.T) {
	stacker, _, deps, out, cfgPath := newTestHarness(t)
	stacker.status = &stack.Status{
		Name:         "hello",
		State:        stack.StateAbsent,
		EventSources: []eventsource.Status{},
	}

	if exitCode := Run([]string{"-c", cfgPath, "status", "--json"}, deps); exitCode != 0 {
		t.Fatalf("expected exit code 0, got %d", exitCode)
	}
	text := out.String()
	if !strings.Contains(text, "\"policies\": null") {
		t.Fatalf("unmanaged policies not null:\n%s", text)
	}
	if !strings.Contains(text, "\"event_sources\": []") {
		t.Fatalf("event sources not an empty array:\n%s", text)
	}
}

func TestRunStatusError(t *testing.T) {
	stacker, _, deps, out, cfgPath := newTestHarness(t)
	stacker.statusErr = errTest

	if exitCode := Run([]string{"-c", cfgPath, "status"}, deps); exitCode != 1 {
		t.Fatalf("expected exit code 1")
	}
	if !strings.Contains(out.String(), "boom") {
		t.Fatalf("missing error: %q", out.String())
	}
}
