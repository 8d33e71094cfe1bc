// Package grid derives the per-cell render state of the habit calendar.
package grid

import (
	"time"

	"github.com/existflow/habitgrid/internal/calendar"
	"github.com/existflow/habitgrid/internal/model"
)

// Cell is one (habit, day) position in the grid
type Cell struct {
	Date     time.Time
	State    CellState
	Entry    model.HabitEntry
	HasEntry bool
	Opacity  float64
}

// Row is one habit across every day of the pivot month
type Row struct {
	Habit model.Habit
	Cells []Cell
}

// BuildRows derives the full grid for pivot's month as seen at now
func BuildRows(habits []model.Habit, pivot, now time.Time) []Row {
	days := calendar.DaysInMonth(pivot.Year(), pivot.Month(), pivot.Location())

	rows := make([]Row, 0, len(habits))
	for _, h := range habits {
		row := Row{Habit: h, Cells: make([]Cell, len(days))}
		for i, d := range days {
			cell := Cell{Date: d, State: Classify(h.Entries, d, now)}
			if entry, ok := MatchingEntry(h.Entries, d); ok {
				cell.Entry = entry
				cell.HasEntry = true
				cell.Opacity = RenderOpacity(entry)
			}
			row.Cells[i] = cell
		}
		rows = append(rows, row)
	}
	return rows
}

// CompletedCount returns how many cells of the row are completed
func (r Row) CompletedCount() int {
	n := 0
	for _, c := range r.Cells {
		if c.State == Completed {
			n++
		}
	}
	return n
}

// BestCombo returns the highest combo shown in the row
func (r Row) BestCombo() int {
	best := 0
	for _, c := range r.Cells {
		if c.HasEntry && c.Entry.Combo > best {
			best = c.Entry.Combo
		}
	}
	return best
}
