package tui

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/existflow/habitgrid/internal/calendar"
	"github.com/existflow/habitgrid/internal/model"
	"github.com/existflow/habitgrid/internal/tracker"
)

type memAPI struct {
	habits []model.Habit
	nextID int64
}

func (a *memAPI) ListHabits(ctx context.Context, userID int64) ([]model.Habit, error) {
	out := make([]model.Habit, len(a.habits))
	for i, h := range a.habits {
		out[i] = h.Clone()
	}
	return out, nil
}

func (a *memAPI) CreateHabit(ctx context.Context, userID int64, form model.HabitForm) (model.Habit, error) {
	a.nextID++
	h := model.Habit{ID: a.nextID, Name: form.Name, Colour: form.Colour, Index: int64(len(a.habits) + 1), Active: true}
	a.habits = append(a.habits, h)
	return h, nil
}

func (a *memAPI) UpdateHabit(ctx context.Context, habit model.Habit) error { return nil }

func (a *memAPI) DeleteHabit(ctx context.Context, habitID int64) error { return nil }

func (a *memAPI) CreateEntry(ctx context.Context, habitID int64, date time.Time) (model.HabitEntry, error) {
	a.nextID++
	e := model.HabitEntry{ID: a.nextID, Date: calendar.LocalDay(calendar.UTCMidnight(date)), Combo: 1}
	i := model.FindHabit(a.habits, habitID)
	a.habits[i].Entries = append(a.habits[i].Entries, e)
	return e, nil
}

func (a *memAPI) DeleteEntry(ctx context.Context, entryID int64) error { return nil }

func (a *memAPI) BulkUpdateHabits(ctx context.Context, userID int64, habits []model.Habit) error {
	return nil
}

var now = time.Date(2024, 1, 10, 12, 0, 0, 0, time.Local)

func newTestModel(t *testing.T) (Model, *memAPI) {
	t.Helper()
	api := &memAPI{nextID: 10, habits: []model.Habit{
		{ID: 1, Name: "Read", Colour: "#ff6b6b", Index: 1, Active: true},
		{ID: 2, Name: "Run", Colour: "#4ecdc4", Index: 2, Active: true},
	}}
	tr := tracker.New(api, 1)
	tr.SetClock(func() time.Time { return now })
	if err := tr.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	m := NewModel(tr, Options{Timeout: time.Second})
	m.width, m.height = 140, 30
	return m, api
}

func press(t *testing.T, m Model, msg tea.KeyMsg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestCursorStartsOnTodayAndClamps(t *testing.T) {
	m, _ := newTestModel(t)
	if m.col != 9 || m.row != 0 {
		t.Fatalf("expected cursor on Jan 10 of first habit, got row=%d col=%d", m.row, m.col)
	}

	m, _ = press(t, m, runes("k"))
	if m.row != 0 {
		t.Fatalf("cursor should not move above the first habit")
	}
	m, _ = press(t, m, runes("j"))
	m, _ = press(t, m, runes("j"))
	if m.row != 1 {
		t.Fatalf("cursor should stop on the last habit, got %d", m.row)
	}

	for i := 0; i < 40; i++ {
		m, _ = press(t, m, runes("l"))
	}
	if m.col != 30 {
		t.Fatalf("cursor should stop on Jan 31, got col %d", m.col)
	}

	// February has fewer days
	m, _ = press(t, m, runes("]"))
	if m.col != 28 {
		t.Fatalf("cursor should clamp to Feb 29, got col %d", m.col)
	}
}

func TestToggleFutureDayIsRefused(t *testing.T) {
	m, _ := newTestModel(t)
	m, _ = press(t, m, runes("l"))

	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeySpace})
	if cmd != nil {
		t.Fatalf("toggling a future day must not issue a command")
	}
	if m.message == "" {
		t.Fatalf("expected a message explaining the refusal")
	}
}

func TestToggleTodayCreatesEntry(t *testing.T) {
	m, api := newTestModel(t)

	m, cmd := press(t, m, runes("x"))
	if cmd == nil || !m.busy {
		t.Fatalf("expected a toggle command and busy state")
	}

	// a second intent while the first is in flight is dropped
	if _, again := press(t, m, runes("x")); again != nil {
		t.Fatalf("intent should be refused while busy")
	}

	next, _ := m.Update(cmd())
	m = next.(Model)
	if m.busy {
		t.Fatalf("busy should clear after the result arrives")
	}
	if len(api.habits[0].Entries) != 1 {
		t.Fatalf("expected an entry on the server")
	}
	if _, c, _ := m.currentCell(); !c.HasEntry {
		t.Fatalf("current cell should show the new entry")
	}
}

func TestCelebrationAfterLastHabit(t *testing.T) {
	m, _ := newTestModel(t)

	m, cmd := press(t, m, runes("x"))
	next, _ := m.Update(cmd())
	m = next.(Model)

	m, _ = press(t, m, runes("j"))
	m, cmd = press(t, m, runes("x"))
	next, _ = m.Update(cmd())
	m = next.(Model)

	if !m.celebrating(now) {
		t.Fatalf("expected celebration after completing every habit")
	}
	if m.celebrating(now.Add(celebrationLength)) {
		t.Fatalf("celebration should expire")
	}
}

func TestAddFormValidates(t *testing.T) {
	m, api := newTestModel(t)

	m, _ = press(t, m, runes("a"))
	if m.mode != ModeAddHabit {
		t.Fatalf("expected add mode")
	}
	if m.inputs[fieldColour].Value() != model.DefaultColour {
		t.Fatalf("colour should default to %s", model.DefaultColour)
	}

	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil || m.formErr == "" || m.mode != ModeAddHabit {
		t.Fatalf("empty name should keep the form open with an error")
	}

	m, _ = press(t, m, runes("Walk"))
	m, cmd = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil || m.mode != ModeNormal {
		t.Fatalf("valid form should submit")
	}
	next, _ := m.Update(cmd())
	m = next.(Model)
	if len(api.habits) != 3 || m.message != "Added: Walk" {
		t.Fatalf("expected habit added, message %q", m.message)
	}
}

func TestMoveGesture(t *testing.T) {
	m, _ := newTestModel(t)

	m, _ = press(t, m, runes("m"))
	if _, ok := m.tracker.Dragging(); !ok {
		t.Fatalf("m should grab the current habit")
	}
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if _, ok := m.tracker.Dragging(); ok {
		t.Fatalf("esc should cancel the gesture")
	}

	m, _ = press(t, m, runes("m"))
	m, _ = press(t, m, runes("j"))
	m, cmd := press(t, m, runes("m"))
	if cmd == nil {
		t.Fatalf("dropping on another habit should persist the order")
	}
	next, _ := m.Update(cmd())
	m = next.(Model)
	if m.message != "Moved: Read" {
		t.Fatalf("unexpected message %q", m.message)
	}
}

func TestMoveOfVanishedHabit(t *testing.T) {
	m, api := newTestModel(t)

	m, _ = press(t, m, runes("m"))
	if held, ok := m.tracker.Dragging(); !ok || held.ID != 1 {
		t.Fatalf("m should grab Read")
	}

	// Read disappears on the server and a refresh picks that up
	api.habits = api.habits[1:]
	if err := m.tracker.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	m.clampCursor(m.rows())

	m, cmd := press(t, m, runes("m"))
	if cmd == nil {
		t.Fatalf("dropping onto Run should run the move")
	}
	next, _ := m.Update(cmd())
	m = next.(Model)
	if m.message == "Moved: Read" {
		t.Fatalf("nothing moved, but the status claims it did")
	}
	if m.message != "Read is no longer on the grid, nothing moved" {
		t.Fatalf("unexpected message %q", m.message)
	}
}

func TestViewRenders(t *testing.T) {
	m, _ := newTestModel(t)
	if out := m.View(); out == "" || out == "Loading..." {
		t.Fatalf("expected rendered grid")
	}
	m, _ = press(t, m, runes("?"))
	if m.mode != ModeHelp {
		t.Fatalf("expected help mode")
	}
	m, _ = press(t, m, runes("q"))
	if m.mode != ModeNormal {
		t.Fatalf("any key should close help")
	}
}
