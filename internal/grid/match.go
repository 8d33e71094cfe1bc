package grid

import (
	"time"

	"github.com/existflow/habitgrid/internal/calendar"
	"github.com/existflow/habitgrid/internal/model"
)

// MatchingEntry returns the entry recorded on date's calendar day, if any
func MatchingEntry(entries []model.HabitEntry, date time.Time) (model.HabitEntry, bool) {
	for _, e := range entries {
		if calendar.DatesMatch(e.Date, date) {
			return e, true
		}
	}
	return model.HabitEntry{}, false
}

// AllComplete reports whether every active habit has an entry on date.
// An empty active set counts as complete.
func AllComplete(habits []model.Habit, date time.Time) bool {
	for _, h := range habits {
		if !h.Active {
			continue
		}
		if _, ok := MatchingEntry(h.Entries, date); !ok {
			return false
		}
	}
	return true
}
