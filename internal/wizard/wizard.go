// Package wizard provides interactive prompts for CLI commands.
//
// Every prompt takes an autoAccept flag; when set the defaults are
// returned without rendering anything, so --yes and non-interactive
// callers share one code path with the interactive flow.
package wizard

import (
	"fmt"

	"github.com/charmbracelet/huh"
)

// Option is one selectable entry.
type Option struct {
	Value string
	Label string
}

// MultiSelect presents options with the given defaults preselected and
// returns the chosen values in option order.
func MultiSelect(title string, options []Option, defaults []string, autoAccept bool) ([]string, error) {
	if autoAccept {
		return defaults, nil
	}

	preselected := make(map[string]bool, len(defaults))
	for _, d := range defaults {
		preselected[d] = true
	}
	opts := make([]huh.Option[string], 0, len(options))
	for _, o := range options {
		opts = append(opts, huh.NewOption(o.Label, o.Value).Selected(preselected[o.Value]))
	}

	var selected []string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title(title).
				Options(opts...).
				Value(&selected),
		),
	)
	if err := form.Run(); err != nil {
		return nil, fmt.Errorf("prompt cancelled: %w", err)
	}
	return selected, nil
}

// Confirm asks a yes/no question.
func Confirm(title string, def bool, autoAccept bool) (bool, error) {
	if autoAccept {
		return def, nil
	}

	confirmed := def
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Value(&confirmed),
		),
	)
	if err := form.Run(); err != nil {
		return false, fmt.Errorf("prompt cancelled: %w", err)
	}
	return confirmed, nil
}

// Input asks for a single free-form line.
func Input(title, placeholder string, autoAccept bool) (string, error) {
	if autoAccept {
		return "", nil
	}

	var value string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(title).
				Placeholder(placeholder).
				Value(&value),
		),
	)
	if err := form.Run(); err != nil {
		return "", fmt.Errorf("prompt cancelled: %w", err)
	}
	return value, nil
}
