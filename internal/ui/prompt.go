package ui

import (
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/staabm/platformsh-cli/internal/errors"
	"golang.org/x/term"
)

// Interactive reports whether stdin is a terminal, i.e. whether the CLI
// may prompt the user at all.
func Interactive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// Prompter asks the user yes/no and free-text questions. The CLI commands
// depend on this interface so tests can script answers.
type Prompter interface {
	// Confirm asks a yes/no question with the given default.
	Confirm(title string, defaultYes bool) (bool, error)

	// Input asks for a line of text, offering autocomplete suggestions
	// and a default value.
	Input(title, defaultValue string, suggestions []string) (string, error)
}

// HuhPrompter implements Prompter with interactive huh forms.
type HuhPrompter struct{}

func (HuhPrompter) Confirm(title string, defaultYes bool) (bool, error) {
	answer := defaultYes
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Value(&answer),
		),
	)

	if err := form.Run(); err != nil {
		return false, errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to read confirmation",
			"Use --yes to skip interactive prompts")
	}
	return answer, nil
}

func (HuhPrompter) Input(title, defaultValue string, suggestions []string) (string, error) {
	value := defaultValue
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(title).
				Suggestions(suggestions).
				Value(&value),
		),
	)

	if err := form.Run(); err != nil {
		return "", errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to read input",
			"Use --yes to skip interactive prompts")
	}

	if strings.TrimSpace(value) == "" {
		return defaultValue, nil
	}
	return strings.TrimSpace(value), nil
}
