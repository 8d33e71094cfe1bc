package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var moveCmd = &cobra.Command{
	Use:   "move [habit-id] [target-id]",
	Short: "Move a habit to another habit's position",
	Long: `Reorder habits: the first habit takes the position of the second and
the habits in between shift by one.

Examples:
  habitgrid move 5 1`,
	Args: cobra.ExactArgs(2),
	RunE: runMove,
}

func runMove(cmd *cobra.Command, args []string) error {
	source, err := parseID(args[0])
	if err != nil {
		return err
	}
	target, err := parseID(args[1])
	if err != nil {
		return err
	}

	t := newTracker()
	if err := t.Refresh(cmd.Context()); err != nil {
		return fmt.Errorf("failed to load habits: %w", err)
	}
	for _, id := range []int64{source, target} {
		if _, ok := t.Habit(id); !ok {
			return fmt.Errorf("habit not found: %d", id)
		}
	}

	if err := t.Reorder(cmd.Context(), source, target); err != nil {
		return mutationError("reorder habits", source, err)
	}

	out := cmd.OutOrStdout()
	for _, h := range t.Habits() {
		fmt.Fprintf(out, "%3d. %s\n", h.Index, h.Name)
	}
	return nil
}
