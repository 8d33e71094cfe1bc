package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/existflow/habitgrid/internal/calendar"
	"github.com/existflow/habitgrid/internal/grid"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "Show the habit grid for a month",
	Long: `Print every habit against the days of a month.

Examples:
  habitgrid list
  habitgrid list --month 2024-02`,
	RunE: runList,
}

var listMonth string

func init() {
	listCmd.Flags().StringVarP(&listMonth, "month", "m", "", "Month to show (YYYY-MM), defaults to the current month")
}

func runList(cmd *cobra.Command, args []string) error {
	t := newTracker()
	if listMonth != "" {
		month, err := calendar.ParseMonth(listMonth, time.Local)
		if err != nil {
			return err
		}
		t.SetPivot(month)
	}

	if err := t.Refresh(cmd.Context()); err != nil {
		return fmt.Errorf("failed to load habits: %w", err)
	}

	rows := t.Rows()
	if len(rows) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No habits yet. Add one with: habitgrid add --name \"Read\"")
		return nil
	}

	printGrid(cmd.OutOrStdout(), t.Pivot(), rows)
	return nil
}

func printGrid(w io.Writer, pivot time.Time, rows []grid.Row) {
	days := len(rows[0].Cells)
	nameWidth := 4
	for _, r := range rows {
		if n := len([]rune(r.Habit.Name)); n > nameWidth {
			nameWidth = n
		}
	}
	if nameWidth > 24 {
		nameWidth = 24
	}

	fmt.Fprintf(w, "\n📅 %s\n", calendar.FormatMonth(pivot))
	fmt.Fprintln(w, strings.Repeat("─", nameWidth+10+days*2))

	header := strings.Repeat(" ", nameWidth+10)
	for _, c := range rows[0].Cells {
		header += fmt.Sprintf("%-2d", c.Date.Day()%10)
	}
	fmt.Fprintln(w, header)

	for _, r := range rows {
		name := []rune(r.Habit.Name)
		if len(name) > nameWidth {
			name = name[:nameWidth]
		}
		line := fmt.Sprintf("%5d  %-*s   ", r.Habit.ID, nameWidth, string(name))
		for _, c := range r.Cells {
			line += renderCell(r.Habit.Colour, c)
		}
		line += fmt.Sprintf("  ✓%d", r.CompletedCount())
		fmt.Fprintln(w, line)
	}
	fmt.Fprintln(w)
}

func renderCell(colour string, c grid.Cell) string {
	switch c.State {
	case grid.Completed:
		shade := grid.CellColour(colour, c.Opacity, "#000000")
		return lipgloss.NewStyle().Foreground(lipgloss.Color(shade)).Render("■ ")
	case grid.TodayIncomplete:
		return lipgloss.NewStyle().Foreground(lipgloss.Color(colour)).Render("□ ")
	case grid.Future:
		return "  "
	default:
		return "· "
	}
}
