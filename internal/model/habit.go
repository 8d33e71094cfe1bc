package model

import (
	"regexp"
	"sort"
	"strings"
	"time"
)

// DefaultColour is used for new habits when the user does not pick one
const DefaultColour = "#4ECDC4"

var colourPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// Habit represents a tracked recurring activity
type Habit struct {
	ID      int64        `json:"id"`
	Name    string       `json:"name"`
	Colour  string       `json:"colour"`
	Index   int64        `json:"index"`
	Active  bool         `json:"active"`
	Entries []HabitEntry `json:"entries"`
}

// HabitEntry records that a habit was completed on a calendar day
type HabitEntry struct {
	ID    int64     `json:"id"`
	Date  time.Time `json:"date"`
	Combo int       `json:"combo"`
}

// HabitForm holds the user-editable fields of a habit
type HabitForm struct {
	Name   string `json:"name"`
	Colour string `json:"colour"`
}

// Normalize trims whitespace and lowercases the colour
func (f HabitForm) Normalize() HabitForm {
	return HabitForm{
		Name:   strings.TrimSpace(f.Name),
		Colour: strings.ToLower(strings.TrimSpace(f.Colour)),
	}
}

// Validate checks the form the way the habit dialog does before submitting
func (f HabitForm) Validate() error {
	n := f.Normalize()
	if n.Name == "" {
		return &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if n.Colour == "" {
		return &ValidationError{Field: "colour", Reason: "must not be empty"}
	}
	if !colourPattern.MatchString(n.Colour) {
		return &ValidationError{Field: "colour", Reason: "must be a hex colour like #4ecdc4"}
	}
	return nil
}

// Form returns the editable fields of the habit
func (h Habit) Form() HabitForm {
	return HabitForm{Name: h.Name, Colour: h.Colour}
}

// Apply returns a copy of the habit with the form's fields set
func (h Habit) Apply(f HabitForm) Habit {
	n := f.Normalize()
	h.Name = n.Name
	h.Colour = n.Colour
	return h
}

// Clone returns a deep copy so callers can mutate entries safely
func (h Habit) Clone() Habit {
	c := h
	if h.Entries != nil {
		c.Entries = make([]HabitEntry, len(h.Entries))
		copy(c.Entries, h.Entries)
	}
	return c
}

// SortByIndex orders habits by their display index, keeping ties stable
func SortByIndex(habits []Habit) {
	sort.SliceStable(habits, func(i, j int) bool {
		return habits[i].Index < habits[j].Index
	})
}

// ActiveHabits filters out soft-deleted habits
func ActiveHabits(habits []Habit) []Habit {
	active := make([]Habit, 0, len(habits))
	for _, h := range habits {
		if h.Active {
			active = append(active, h)
		}
	}
	return active
}

// FindHabit returns the position of the habit with the given id, or -1
func FindHabit(habits []Habit, id int64) int {
	for i, h := range habits {
		if h.ID == id {
			return i
		}
	}
	return -1
}
