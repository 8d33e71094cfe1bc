package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/existflow/habitgrid/internal/calendar"
	"github.com/existflow/habitgrid/internal/model"
)

// Wire shapes use pointers so a missing field can be told apart from a zero value.

type wireHabit struct {
	ID      *int64       `json:"id"`
	Name    *string      `json:"name"`
	Colour  *string      `json:"colour"`
	Index   *int64       `json:"index"`
	Active  *bool        `json:"active"`
	Entries *[]wireEntry `json:"entries"`
}

type wireEntry struct {
	ID    *int64     `json:"id"`
	Date  *time.Time `json:"date"`
	Combo *int       `json:"combo"`
}

type createEntryRequest struct {
	HabitID int64     `json:"habitId"`
	Date    time.Time `json:"date"`
}

func decodeHabits(op string, body []byte) ([]model.Habit, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, &SchemaError{Op: op, Err: fmt.Errorf("expected a JSON array of habits")}
	}

	var raw []wireHabit
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, &SchemaError{Op: op, Err: err}
	}

	habits := make([]model.Habit, 0, len(raw))
	for i, w := range raw {
		h, err := w.toHabit(true)
		if err != nil {
			return nil, &SchemaError{Op: op, Field: fmt.Sprintf("[%d].%s", i, err.field), Err: err.err}
		}
		habits = append(habits, h)
	}
	return habits, nil
}

func decodeHabit(op string, body []byte) (model.Habit, error) {
	var w wireHabit
	if err := json.Unmarshal(body, &w); err != nil {
		return model.Habit{}, &SchemaError{Op: op, Err: err}
	}
	h, ferr := w.toHabit(false)
	if ferr != nil {
		return model.Habit{}, &SchemaError{Op: op, Field: ferr.field, Err: ferr.err}
	}
	return h, nil
}

func decodeEntry(op string, body []byte) (model.HabitEntry, error) {
	var w wireEntry
	if err := json.Unmarshal(body, &w); err != nil {
		return model.HabitEntry{}, &SchemaError{Op: op, Err: err}
	}
	e, ferr := w.toEntry()
	if ferr != nil {
		return model.HabitEntry{}, &SchemaError{Op: op, Field: ferr.field, Err: ferr.err}
	}
	return e, nil
}

type fieldError struct {
	field string
	err   error
}

func missing(field string) *fieldError {
	return &fieldError{field: field, err: errMissing}
}

// toHabit converts a decoded habit. Entries are optional on create responses.
func (w wireHabit) toHabit(requireEntries bool) (model.Habit, *fieldError) {
	switch {
	case w.ID == nil:
		return model.Habit{}, missing("id")
	case w.Name == nil:
		return model.Habit{}, missing("name")
	case w.Colour == nil:
		return model.Habit{}, missing("colour")
	case w.Index == nil:
		return model.Habit{}, missing("index")
	case w.Active == nil:
		return model.Habit{}, missing("active")
	case requireEntries && w.Entries == nil:
		return model.Habit{}, missing("entries")
	}
	if *w.ID <= 0 {
		return model.Habit{}, &fieldError{field: "id", err: fmt.Errorf("must be positive, got %d", *w.ID)}
	}

	h := model.Habit{
		ID:      *w.ID,
		Name:    *w.Name,
		Colour:  *w.Colour,
		Index:   *w.Index,
		Active:  *w.Active,
		Entries: []model.HabitEntry{},
	}
	if w.Entries != nil {
		for i, we := range *w.Entries {
			e, ferr := we.toEntry()
			if ferr != nil {
				return model.Habit{}, &fieldError{field: fmt.Sprintf("entries[%d].%s", i, ferr.field), err: ferr.err}
			}
			h.Entries = append(h.Entries, e)
		}
	}
	return h, nil
}

func (w wireEntry) toEntry() (model.HabitEntry, *fieldError) {
	if w.ID == nil {
		return model.HabitEntry{}, missing("id")
	}
	if w.Date == nil || w.Date.IsZero() {
		return model.HabitEntry{}, missing("date")
	}
	e := model.HabitEntry{ID: *w.ID, Date: calendar.LocalDay(*w.Date)}
	if w.Combo != nil {
		if *w.Combo < 0 {
			return model.HabitEntry{}, &fieldError{field: "combo", err: fmt.Errorf("must not be negative, got %d", *w.Combo)}
		}
		e.Combo = *w.Combo
	}
	return e, nil
}
