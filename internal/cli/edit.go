package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var editCmd = &cobra.Command{
	Use:   "edit [habit-id]",
	Short: "Rename or recolour a habit",
	Long: `Change a habit's name or colour. Without flags an interactive form is shown.

Examples:
  habitgrid edit 3
  habitgrid edit 3 --colour "#95e1a3"`,
	Args: cobra.ExactArgs(1),
	RunE: runEdit,
}

var (
	editName   string
	editColour string
)

func init() {
	editCmd.Flags().StringVarP(&editName, "name", "n", "", "New name")
	editCmd.Flags().StringVarP(&editColour, "colour", "c", "", "New hex colour")
}

func runEdit(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	t := newTracker()
	if err := t.Refresh(cmd.Context()); err != nil {
		return fmt.Errorf("failed to load habits: %w", err)
	}
	h, ok := t.Habit(id)
	if !ok {
		return fmt.Errorf("habit not found: %d", id)
	}

	form := h.Form()
	flagsSet := cmd.Flags().Changed("name") || cmd.Flags().Changed("colour")
	if cmd.Flags().Changed("name") {
		form.Name = editName
	}
	if cmd.Flags().Changed("colour") {
		form.Colour = editColour
	}

	if !flagsSet {
		if !interactive() {
			return fmt.Errorf("pass --name or --colour when not running in a terminal")
		}
		if err := habitForm("Edit habit", &form).Run(); err != nil {
			return err
		}
	}

	if err := t.EditHabit(cmd.Context(), id, form); err != nil {
		return mutationError("update habit", id, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Updated: \"%s\"\n", form.Normalize().Name)
	return nil
}
