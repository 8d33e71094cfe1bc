package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/existflow/habitgrid/internal/api"
	"github.com/existflow/habitgrid/internal/model"
)

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(s, "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid habit id %q", s)
	}
	return id, nil
}

// mutationError names the habit when the server rejects a write with 404 or 409
func mutationError(action string, id int64, err error) error {
	switch {
	case api.IsNotFound(err):
		return fmt.Errorf("habit %d no longer exists: %w", id, err)
	case api.IsConflict(err):
		return fmt.Errorf("habit %d is already recorded for that day: %w", id, err)
	}
	return fmt.Errorf("failed to %s: %w", action, err)
}

// habitForm builds the interactive name/colour form used by add and edit
func habitForm(title string, form *model.HabitForm) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(title).
				Description("Habit name").
				Value(&form.Name).
				Validate(func(s string) error {
					return model.HabitForm{Name: s, Colour: model.DefaultColour}.Validate()
				}),
			huh.NewInput().
				Title("Colour").
				Description("Hex colour, e.g. #4ecdc4").
				Value(&form.Colour).
				Validate(func(s string) error {
					return model.HabitForm{Name: "x", Colour: s}.Validate()
				}),
		),
	).WithTheme(huh.ThemeDracula())
}

// confirm asks a yes/no question
func confirm(question string) (bool, error) {
	ok := false
	err := huh.NewConfirm().
		Title(question).
		Affirmative("Yes").
		Negative("No").
		Value(&ok).
		Run()
	return ok, err
}
