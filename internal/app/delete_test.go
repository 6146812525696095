// Where: internal/app/delete_test.go
// What: Tests for the delete confirmation gate.
// Why: A teardown must never run on an unconfirmed prompt.
package app

import (
	"errors"
	"strings"
	"testing"
)

type fakePrompter struct {
	confirmed bool
	err       error
	titles    []string
}

func (p *fakePrompter) Confirm(title string) (bool, error) {
	p.titles = append(p.titles, title)
	return p.confirmed, p.err
}

func TestRunDeleteWithYesSkipsPrompt(t *testing.T) {
	stacker, _, deps, out, cfgPath := newTestHarness(t)
	prompter := &fakePrompter{}
	deps.Prompter = prompter

	exitCode := Run([]string{"-c", cfgPath, "delete", "--yes"}, deps)
	if exitCode != 0 {
		t.Fatalf("expected exit code 0, got %d\n%s", exitCode, out.String())
	}
	if len(prompter.titles) != 0 {
		t.Fatalf("prompter called with --yes: %v", prompter.titles)
	}
	if len(stacker.calls) != 1 || stacker.calls[0] != "delete" {
		t.Fatalf("calls = %v", stacker.calls)
	}
}

func TestRunDeleteConfirmed(t *testing.T) {
	stacker, _, deps, _, cfgPath := newTestHarness(t)
	prompter := &fakePrompter{confirmed: true}
	deps.Prompter = prompter

	if exitCode := Run([]string{"-c", cfgPath, "delete"}, deps); exitCode != 0 {
		t.Fatalf("expected exit code 0, got %d", exitCode)
	}
	if len(prompter.titles) != 1 || !strings.Contains(prompter.titles[0], "hello") {
		t.Fatalf("prompt titles = %v", prompter.titles)
	}
	if len(stacker.calls) != 1 || stacker.calls[0] != "delete" {
		t.Fatalf("calls = %v", stacker.calls)
	}
}

func TestRunDeleteDeclined(t *testing.T) {
	stacker, _, deps, out, cfgPath := newTestHarness(t)
	deps.Prompter = &fakePrompter{confirmed: false}

	exitCode := Run([]string{"-c", cfgPath, "delete"}, deps)
	if exitCode != 1 {
		t.Fatalf("expected exit code 1, got %d", exitCode)
	}
	if !strings.Contains(out.String(), "Aborted.") {
		t.Fatalf("missing abort message: %q", out.String())
	}
	if len(stacker.calls) != 0 {
		t.Fatalf("stack touched after decline: %v", stacker.calls)
	}
}

func TestRunDeletePromptError(t *testing.T) {
	stacker, _, deps, out, cfgPath := newTestHarness(t)
	deps.Prompter = &fakePrompter{err: errors.New("tty gone")}

	if exitCode := Run([]string{"-c", cfgPath, "delete"}, deps); exitCode != 1 {
		t.Fatalf("expected exit code 1")
	}
	if !strings.Contains(out.String(), "tty gone") {
		t.Fatalf("missing prompt error: %q", out.String())
	}
	if len(stacker.calls) != 0 {
		t.Fatalf("stack touched after prompt error: %v", stacker.calls)
	}
}

func TestRunDeleteWithoutPrompterRequiresYes(t *testing.T) {
	stacker, _, deps, out, cfgPath := newTestHarness(t)
	deps.Prompter = nil

	if exitCode := Run([]string{"-c", cfgPath, "delete"}, deps); exitCode != 1 {
		t.Fatalf("expected exit code 1")
	}
	if !strings.Contains(out.String(), "delete requires --yes") {
		t.Fatalf("missing guidance: %q", out.String())
	}
	if len(stacker.calls) != 0 {
		t.Fatalf("stack touched without confirmation: %v", stacker.calls)
	}
}
