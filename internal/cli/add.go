package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/existflow/habitgrid/internal/model"
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a new habit",
	Long: `Add a new habit. Without --name an interactive form is shown.

Examples:
  habitgrid add
  habitgrid add --name "Read" --colour "#ff6b6b"`,
	Args: cobra.NoArgs,
	RunE: runAdd,
}

var (
	addName   string
	addColour string
)

func init() {
	addCmd.Flags().StringVarP(&addName, "name", "n", "", "Habit name")
	addCmd.Flags().StringVarP(&addColour, "colour", "c", model.DefaultColour, "Hex colour (#RRGGBB)")
}

func runAdd(cmd *cobra.Command, args []string) error {
	form := model.HabitForm{Name: addName, Colour: addColour}

	if form.Name == "" {
		if !interactive() {
			return fmt.Errorf("--name is required when not running in a terminal")
		}
		if err := habitForm("New habit", &form).Run(); err != nil {
			return err
		}
	}

	t := newTracker()
	h, err := t.CreateHabit(cmd.Context(), form)
	if err != nil {
		return fmt.Errorf("failed to add habit: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Added: \"%s\" (ID: %d)\n", h.Name, h.ID)
	return nil
}
