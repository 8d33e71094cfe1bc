package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/existflow/habitgrid/internal/calendar"
	"github.com/existflow/habitgrid/internal/grid"
)

var doneCmd = &cobra.Command{
	Use:   "done [habit-id]",
	Short: "Toggle a habit for a day",
	Long: `Mark a habit done for a day, or unmark it if it already is.

Examples:
  habitgrid done 3
  habitgrid done 3 --date 2024-01-15`,
	Args: cobra.ExactArgs(1),
	RunE: runDone,
}

var doneDate string

func init() {
	doneCmd.Flags().StringVarP(&doneDate, "date", "d", "", "Day to toggle (YYYY-MM-DD), defaults to today")
}

func runDone(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	day := calendar.Today(time.Now())
	if doneDate != "" {
		day, err = calendar.ParseDay(doneDate, time.Local)
		if err != nil {
			return err
		}
	}

	t := newTracker()
	if err := t.Refresh(cmd.Context()); err != nil {
		return fmt.Errorf("failed to load habits: %w", err)
	}
	h, ok := t.Habit(id)
	if !ok {
		return fmt.Errorf("habit not found: %d", id)
	}
	_, wasDone := grid.MatchingEntry(h.Entries, day)

	celebrate, err := t.ToggleEntry(cmd.Context(), id, day)
	if err != nil {
		return mutationError("update habit", id, err)
	}

	out := cmd.OutOrStdout()
	label := day.Format("Mon Jan 2")
	if wasDone {
		fmt.Fprintf(out, "○ Unmarked: \"%s\" on %s\n", h.Name, label)
		return nil
	}

	combo := 0
	if updated, ok := t.Habit(id); ok {
		if e, ok := grid.MatchingEntry(updated.Entries, day); ok {
			combo = e.Combo
		}
	}
	fmt.Fprintf(out, "✓ Completed: \"%s\" on %s", h.Name, label)
	if combo > 1 {
		fmt.Fprintf(out, " (%d day combo)", combo)
	}
	fmt.Fprintln(out)

	if celebrate {
		fmt.Fprintf(out, "🎉 Every habit done for %s!\n", label)
	}
	return nil
}
