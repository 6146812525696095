// Where: internal/interaction/confirm.go
// What: Interactive confirmation using the huh library.
// Why: Give destructive commands a keyboard-driven yes/no gate.
package interaction

import (
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
)

var runConfirmPrompt = func(title string, confirmed *bool) error {
	return huh.NewConfirm().
		Title(title).
		Affirmative("Yes").
		Negative("No").
		Value(confirmed).
		Run()
}

// HuhPrompter implements the Prompter interface using the huh TUI library.
// Without a terminal on stdin it falls back to a line-based y/N prompt so
// piped input still works.
type HuhPrompter struct{}

func (p HuhPrompter) Confirm(title string) (bool, error) {
	if !IsTerminal(os.Stdin) {
		return PromptYesNo(title)
	}
	var confirmed bool
	if err := runConfirmPrompt(title, &confirmed); err != nil {
		return false, fmt.Errorf("prompt confirm: %w", err)
	}
	return confirmed, nil
}
