package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var removeCmd = &cobra.Command{
	Use:     "remove [habit-id]",
	Aliases: []string{"rm"},
	Short:   "Remove a habit",
	Long: `Hide a habit from the grid. Its history stays on the server unless --purge is given.

Examples:
  habitgrid remove 3
  habitgrid rm 3 --purge --yes`,
	Args: cobra.ExactArgs(1),
	RunE: runRemove,
}

var (
	removePurge bool
	removeYes   bool
)

func init() {
	removeCmd.Flags().BoolVar(&removePurge, "purge", false, "Delete the habit and all its entries")
	removeCmd.Flags().BoolVarP(&removeYes, "yes", "y", false, "Do not ask for confirmation")
}

func runRemove(cmd *cobra.Command, args []string) error {
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

	// Check config
	if cfg.ConfirmRemove && !removeYes {
		if !interactive() {
			return fmt.Errorf("refusing to remove without confirmation, pass --yes")
		}
		question := fmt.Sprintf("Remove \"%s\" (ID: %d)?", h.Name, h.ID)
		if removePurge {
			question = fmt.Sprintf("Permanently delete \"%s\" and its history?", h.Name)
		}
		ok, err := confirm(question)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
			return nil
		}
	}

	if removePurge {
		if err := t.PurgeHabit(cmd.Context(), id); err != nil {
			return mutationError("delete habit", id, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "🗑️  Deleted: \"%s\"\n", h.Name)
		return nil
	}

	if err := t.RemoveHabit(cmd.Context(), id); err != nil {
		return mutationError("remove habit", id, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "🗑️  Removed: \"%s\"\n", h.Name)
	return nil
}
