package grid

import (
	"time"

	"github.com/existflow/habitgrid/internal/calendar"
	"github.com/existflow/habitgrid/internal/model"
	"github.com/lucasb-eyer/go-colorful"
)

const (
	// FullCombo is the streak length at which a cell reaches full colour
	FullCombo = 10

	minOpacity = 0.3
	maxOpacity = 1.0
)

// CellState is the categorical render state of one (habit, day) cell
type CellState int

const (
	PastIncomplete CellState = iota
	Completed
	TodayIncomplete
	Future
)

// String returns a short name for the state
func (s CellState) String() string {
	switch s {
	case Completed:
		return "completed"
	case TodayIncomplete:
		return "today-incomplete"
	case Future:
		return "future"
	default:
		return "past-incomplete"
	}
}

// Toggleable reports whether the user may mark or unmark the cell
func (s CellState) Toggleable() bool {
	return s != Future
}

// RenderOpacity maps an entry's combo onto [0.3, 1.0]
func RenderOpacity(entry model.HabitEntry) float64 {
	combo := entry.Combo
	if combo < 0 {
		combo = 0
	}
	if combo > FullCombo {
		combo = FullCombo
	}

	opacity := float64(combo)/FullCombo + minOpacity
	if opacity > maxOpacity {
		opacity = maxOpacity
	}
	return opacity
}

// Classify decides the state of the cell for date.
// Order matters: completed, then today, then future, else past.
func Classify(entries []model.HabitEntry, date, now time.Time) CellState {
	if _, ok := MatchingEntry(entries, date); ok {
		return Completed
	}
	if calendar.DatesMatch(date, now) {
		return TodayIncomplete
	}
	if calendar.Before(now, date) {
		return Future
	}
	return PastIncomplete
}

// CellColour blends the habit colour toward background by 1-opacity.
// Terminals have no alpha channel, so streak saturation is rendered this way.
// An unparsable habit colour is returned unchanged.
func CellColour(habitColour string, opacity float64, background string) string {
	fg, err := colorful.Hex(habitColour)
	if err != nil {
		return habitColour
	}
	bg, err := colorful.Hex(background)
	if err != nil {
		return fg.Hex()
	}

	if opacity < 0 {
		opacity = 0
	}
	if opacity > 1 {
		opacity = 1
	}
	return bg.BlendLab(fg, opacity).Clamped().Hex()
}
