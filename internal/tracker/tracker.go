// Package tracker owns the client-side habit list and the grid's pivot month.
// Every mutation goes to the API first and is followed by a full refetch.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/existflow/habitgrid/internal/calendar"
	"github.com/existflow/habitgrid/internal/grid"
	"github.com/existflow/habitgrid/internal/logger"
	"github.com/existflow/habitgrid/internal/model"
	"github.com/existflow/habitgrid/internal/reorder"
)

var (
	ErrHabitNotFound = errors.New("habit not found")
	ErrFutureDay     = errors.New("cannot mark a day after today")
)

// API is the subset of the remote client the tracker needs
type API interface {
	ListHabits(ctx context.Context, userID int64) ([]model.Habit, error)
	CreateHabit(ctx context.Context, userID int64, form model.HabitForm) (model.Habit, error)
	UpdateHabit(ctx context.Context, habit model.Habit) error
	DeleteHabit(ctx context.Context, habitID int64) error
	CreateEntry(ctx context.Context, habitID int64, date time.Time) (model.HabitEntry, error)
	DeleteEntry(ctx context.Context, entryID int64) error
	BulkUpdateHabits(ctx context.Context, userID int64, habits []model.Habit) error
}

// State of the last network interaction
type State int

const (
	Idle State = iota
	Loading
	Error
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Tracker is safe for concurrent use
type Tracker struct {
	mu      sync.Mutex
	api     API
	userID  int64
	habits  []model.Habit
	pivot   time.Time
	state   State
	lastErr error
	drag    reorder.Controller
	now     func() time.Time
}

// New creates a tracker for userID with the pivot on the current month
func New(api API, userID int64) *Tracker {
	return &Tracker{
		api:    api,
		userID: userID,
		habits: []model.Habit{},
		pivot:  calendar.MonthStart(time.Now()),
		now:    time.Now,
	}
}

// SetClock replaces the time source and moves the pivot to its month
func (t *Tracker) SetClock(now func() time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.now = now
	t.pivot = calendar.MonthStart(now())
}

// Now returns the tracker's current time
func (t *Tracker) Now() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.now()
}

// Habits returns a copy of the current habit list in display order
func (t *Tracker) Habits() []model.Habit {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]model.Habit, len(t.habits))
	for i, h := range t.habits {
		out[i] = h.Clone()
	}
	return out
}

// Habit returns the habit with id
func (t *Tracker) Habit(id int64) (model.Habit, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	i := model.FindHabit(t.habits, id)
	if i < 0 {
		return model.Habit{}, false
	}
	return t.habits[i].Clone(), true
}

func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Loading reports whether a request is in flight; new intents should be refused
func (t *Tracker) Loading() bool {
	return t.State() == Loading
}

// Err returns the error that moved the tracker into the Error state
func (t *Tracker) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastErr
}

func (t *Tracker) setLoading() {
	t.mu.Lock()
	t.state = Loading
	t.mu.Unlock()
}

func (t *Tracker) fail(op string, err error) error {
	logger.Error("Tracker operation failed", logger.F("op", op), logger.F("error", err))
	t.mu.Lock()
	t.state = Error
	t.lastErr = err
	t.mu.Unlock()
	return err
}

// Refresh refetches the habit list and replaces the local copy wholesale
func (t *Tracker) Refresh(ctx context.Context) error {
	t.setLoading()
	return t.refresh(ctx)
}

func (t *Tracker) refresh(ctx context.Context) error {
	habits, err := t.api.ListHabits(ctx, t.userID)
	if err != nil {
		return t.fail("refresh", err)
	}
	// Soft-deleted habits never reach the grid
	habits = model.ActiveHabits(habits)
	model.SortByIndex(habits)

	t.mu.Lock()
	t.habits = habits
	t.state = Idle
	t.lastErr = nil
	t.mu.Unlock()

	logger.Debug("Habits refreshed", logger.F("count", len(habits)))
	return nil
}

// mutate runs one remote write and then refetches
func (t *Tracker) mutate(ctx context.Context, op string, write func() error) error {
	t.setLoading()
	if err := write(); err != nil {
		return t.fail(op, err)
	}
	return t.refresh(ctx)
}

func (t *Tracker) lookup(id int64) (model.Habit, error) {
	h, ok := t.Habit(id)
	if !ok {
		return model.Habit{}, fmt.Errorf("habit %d: %w", id, ErrHabitNotFound)
	}
	return h, nil
}

// ToggleEntry marks habitID done on date, or unmarks it when an entry exists.
// celebrate is true when the toggle created the last missing entry of the day.
func (t *Tracker) ToggleEntry(ctx context.Context, habitID int64, date time.Time) (celebrate bool, err error) {
	h, err := t.lookup(habitID)
	if err != nil {
		return false, err
	}
	if calendar.Before(t.Now(), date) {
		return false, ErrFutureDay
	}

	entry, exists := grid.MatchingEntry(h.Entries, date)
	if exists {
		err = t.mutate(ctx, "delete entry", func() error {
			return t.api.DeleteEntry(ctx, entry.ID)
		})
		return false, err
	}

	err = t.mutate(ctx, "create entry", func() error {
		_, err := t.api.CreateEntry(ctx, habitID, date)
		return err
	})
	if err != nil {
		return false, err
	}

	celebrate = t.CompletionCheck(date)
	if celebrate {
		logger.Info("All habits complete", logger.F("date", date.Format(time.DateOnly)))
	}
	return celebrate, nil
}

// CompletionCheck reports whether every active habit has an entry on date.
// It holds for an empty set.
func (t *Tracker) CompletionCheck(date time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return grid.AllComplete(t.habits, date)
}

// CreateHabit validates the form, creates the habit and refetches
func (t *Tracker) CreateHabit(ctx context.Context, form model.HabitForm) (model.Habit, error) {
	if err := form.Validate(); err != nil {
		return model.Habit{}, err
	}
	var created model.Habit
	err := t.mutate(ctx, "create habit", func() error {
		var err error
		created, err = t.api.CreateHabit(ctx, t.userID, form.Normalize())
		return err
	})
	return created, err
}

// EditHabit changes name and colour of an existing habit
func (t *Tracker) EditHabit(ctx context.Context, id int64, form model.HabitForm) error {
	if err := form.Validate(); err != nil {
		return err
	}
	h, err := t.lookup(id)
	if err != nil {
		return err
	}
	updated := h.Apply(form)
	return t.mutate(ctx, "edit habit", func() error {
		return t.api.UpdateHabit(ctx, updated)
	})
}

// RemoveHabit soft-deletes a habit by clearing its active flag
func (t *Tracker) RemoveHabit(ctx context.Context, id int64) error {
	h, err := t.lookup(id)
	if err != nil {
		return err
	}
	h.Active = false
	return t.mutate(ctx, "remove habit", func() error {
		return t.api.UpdateHabit(ctx, h)
	})
}

// PurgeHabit deletes a habit and its entries on the server
func (t *Tracker) PurgeHabit(ctx context.Context, id int64) error {
	return t.mutate(ctx, "purge habit", func() error {
		return t.api.DeleteHabit(ctx, id)
	})
}

// Reorder moves sourceID to targetID's position. The new order is shown
// immediately and then persisted; the refetch settles any disagreement.
func (t *Tracker) Reorder(ctx context.Context, sourceID, targetID int64) error {
	t.mu.Lock()
	moved, ok := reorder.Apply(t.habits, sourceID, targetID)
	t.mu.Unlock()
	if !ok {
		return nil
	}
	return t.persistOrder(ctx, moved)
}

func (t *Tracker) persistOrder(ctx context.Context, moved []model.Habit) error {
	t.mu.Lock()
	t.habits = moved
	t.mu.Unlock()

	logger.Debug("Reordering habits", logger.F("count", len(moved)))
	return t.mutate(ctx, "reorder habits", func() error {
		return t.api.BulkUpdateHabits(ctx, t.userID, moved)
	})
}

// DragStart picks up a habit for a reorder gesture
func (t *Tracker) DragStart(id int64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.drag.DragStart(t.habits, id)
}

// Dragging returns the habit held by the current gesture
func (t *Tracker) Dragging() (model.Habit, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.drag.Dragging()
}

// CancelDrag abandons the current gesture
func (t *Tracker) CancelDrag() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.drag.Cancel()
}

// DragEnd drops the held habit on targetID and reports whether the order
// changed. A drop outside any habit, on the dragged habit itself, or of a
// habit a refresh has since removed changes nothing.
func (t *Tracker) DragEnd(ctx context.Context, targetID int64, hasTarget bool) (bool, error) {
	t.mu.Lock()
	moved, ok := t.drag.DragEnd(t.habits, targetID, hasTarget)
	t.mu.Unlock()
	if !ok {
		return false, nil
	}
	return true, t.persistOrder(ctx, moved)
}

// Pivot returns the first day of the displayed month
func (t *Tracker) Pivot() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pivot
}

func (t *Tracker) NextMonth() time.Time {
	return t.shift(1)
}

func (t *Tracker) PrevMonth() time.Time {
	return t.shift(-1)
}

func (t *Tracker) shift(n int) time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pivot = calendar.ShiftMonth(t.pivot, n)
	return t.pivot
}

// JumpToToday moves the pivot back to the current month
func (t *Tracker) JumpToToday() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pivot = calendar.MonthStart(t.now())
	return t.pivot
}

// SetPivot shows the month containing month
func (t *Tracker) SetPivot(month time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pivot = calendar.MonthStart(month)
}

// Rows builds the grid for the pivot month
func (t *Tracker) Rows() []grid.Row {
	t.mu.Lock()
	defer t.mu.Unlock()
	return grid.BuildRows(t.habits, t.pivot, t.now())
}
