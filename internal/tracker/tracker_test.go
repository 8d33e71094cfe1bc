package tracker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/existflow/habitgrid/internal/calendar"
	"github.com/existflow/habitgrid/internal/model"
)

// fakeAPI keeps habits in memory the way the server does
type fakeAPI struct {
	mu     sync.Mutex
	habits []model.Habit
	nextID int64
	failOn map[string]error
	calls  []string
	onCall func(op string)
}

func newFakeAPI(habits ...model.Habit) *fakeAPI {
	return &fakeAPI{habits: habits, nextID: 100, failOn: map[string]error{}}
}

func (f *fakeAPI) record(op string) error {
	f.calls = append(f.calls, op)
	if f.onCall != nil {
		f.onCall(op)
	}
	return f.failOn[op]
}

func (f *fakeAPI) ListHabits(ctx context.Context, userID int64) ([]model.Habit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("list"); err != nil {
		return nil, err
	}
	out := []model.Habit{}
	for _, h := range f.habits {
		if h.Active {
			out = append(out, h.Clone())
		}
	}
	return out, nil
}

func (f *fakeAPI) CreateHabit(ctx context.Context, userID int64, form model.HabitForm) (model.Habit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("create habit"); err != nil {
		return model.Habit{}, err
	}
	f.nextID++
	h := model.Habit{ID: f.nextID, Name: form.Name, Colour: form.Colour, Index: int64(len(f.habits) + 1), Active: true, Entries: []model.HabitEntry{}}
	f.habits = append(f.habits, h)
	return h, nil
}

func (f *fakeAPI) UpdateHabit(ctx context.Context, habit model.Habit) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("update habit"); err != nil {
		return err
	}
	i := model.FindHabit(f.habits, habit.ID)
	if i < 0 {
		return errors.New("not found")
	}
	entries := f.habits[i].Entries
	f.habits[i] = habit
	f.habits[i].Entries = entries
	return nil
}

func (f *fakeAPI) DeleteHabit(ctx context.Context, habitID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("delete habit"); err != nil {
		return err
	}
	i := model.FindHabit(f.habits, habitID)
	if i < 0 {
		return errors.New("not found")
	}
	f.habits = append(f.habits[:i], f.habits[i+1:]...)
	return nil
}

func (f *fakeAPI) CreateEntry(ctx context.Context, habitID int64, date time.Time) (model.HabitEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("create entry"); err != nil {
		return model.HabitEntry{}, err
	}
	i := model.FindHabit(f.habits, habitID)
	if i < 0 {
		return model.HabitEntry{}, errors.New("not found")
	}
	f.nextID++
	e := model.HabitEntry{ID: f.nextID, Date: calendar.LocalDay(calendar.UTCMidnight(date)), Combo: 1}
	f.habits[i].Entries = append(f.habits[i].Entries, e)
	return e, nil
}

func (f *fakeAPI) DeleteEntry(ctx context.Context, entryID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("delete entry"); err != nil {
		return err
	}
	for i := range f.habits {
		for j, e := range f.habits[i].Entries {
			if e.ID == entryID {
				f.habits[i].Entries = append(f.habits[i].Entries[:j], f.habits[i].Entries[j+1:]...)
				return nil
			}
		}
	}
	return errors.New("not found")
}

func (f *fakeAPI) BulkUpdateHabits(ctx context.Context, userID int64, habits []model.Habit) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("bulk update"); err != nil {
		return err
	}
	for _, h := range habits {
		if i := model.FindHabit(f.habits, h.ID); i >= 0 {
			f.habits[i].Index = h.Index
		}
	}
	return nil
}

var fixedNow = time.Date(2024, 1, 10, 9, 0, 0, 0, time.Local)

func newTestTracker(t *testing.T, api *fakeAPI) *Tracker {
	t.Helper()
	tr := New(api, 1)
	tr.SetClock(func() time.Time { return fixedNow })
	if err := tr.Refresh(context.Background()); err != nil {
		t.Fatalf("initial refresh: %v", err)
	}
	return tr
}

func habit(id, index int64, name string) model.Habit {
	return model.Habit{ID: id, Name: name, Colour: "#ff6b6b", Index: index, Active: true, Entries: []model.HabitEntry{}}
}

func TestRefreshSortsByIndex(t *testing.T) {
	api := newFakeAPI(habit(1, 3, "C"), habit(2, 1, "A"), habit(3, 2, "B"))
	tr := newTestTracker(t, api)

	got := tr.Habits()
	if got[0].Name != "A" || got[1].Name != "B" || got[2].Name != "C" {
		t.Fatalf("habits not sorted by index: %+v", got)
	}
	if tr.State() != Idle {
		t.Fatalf("expected idle, got %s", tr.State())
	}
}

func TestToggleTwiceRestoresEntries(t *testing.T) {
	api := newFakeAPI(habit(1, 1, "Read"), habit(2, 2, "Run"))
	tr := newTestTracker(t, api)
	ctx := context.Background()
	day := time.Date(2024, 1, 5, 0, 0, 0, 0, time.Local)

	if _, err := tr.ToggleEntry(ctx, 1, day); err != nil {
		t.Fatalf("toggle on: %v", err)
	}
	h, _ := tr.Habit(1)
	if len(h.Entries) != 1 {
		t.Fatalf("expected one entry after toggle, got %d", len(h.Entries))
	}

	if _, err := tr.ToggleEntry(ctx, 1, day); err != nil {
		t.Fatalf("toggle off: %v", err)
	}
	h, _ = tr.Habit(1)
	if len(h.Entries) != 0 {
		t.Fatalf("expected no entries after second toggle, got %d", len(h.Entries))
	}
}

func TestToggleCelebratesOnLastHabit(t *testing.T) {
	api := newFakeAPI(habit(1, 1, "Read"), habit(2, 2, "Run"))
	tr := newTestTracker(t, api)
	ctx := context.Background()
	day := time.Date(2024, 1, 10, 0, 0, 0, 0, time.Local)

	celebrate, err := tr.ToggleEntry(ctx, 1, day)
	if err != nil || celebrate {
		t.Fatalf("first toggle: celebrate=%v err=%v", celebrate, err)
	}
	celebrate, err = tr.ToggleEntry(ctx, 2, day)
	if err != nil || !celebrate {
		t.Fatalf("second toggle should celebrate: celebrate=%v err=%v", celebrate, err)
	}

	// removing an entry never celebrates
	celebrate, err = tr.ToggleEntry(ctx, 2, day)
	if err != nil || celebrate {
		t.Fatalf("untoggle: celebrate=%v err=%v", celebrate, err)
	}
}

func TestToggleRejectsFutureAndUnknown(t *testing.T) {
	api := newFakeAPI(habit(1, 1, "Read"))
	tr := newTestTracker(t, api)
	ctx := context.Background()

	if _, err := tr.ToggleEntry(ctx, 1, fixedNow.AddDate(0, 0, 1)); !errors.Is(err, ErrFutureDay) {
		t.Fatalf("expected ErrFutureDay, got %v", err)
	}
	if _, err := tr.ToggleEntry(ctx, 42, fixedNow); !errors.Is(err, ErrHabitNotFound) {
		t.Fatalf("expected ErrHabitNotFound, got %v", err)
	}
	if len(api.calls) != 1 {
		t.Fatalf("rejected toggles must not reach the API, calls=%v", api.calls)
	}
}

func TestCompletionCheckEmptySet(t *testing.T) {
	tr := newTestTracker(t, newFakeAPI())
	if !tr.CompletionCheck(fixedNow) {
		t.Fatalf("empty active set should count as complete")
	}
	if !tr.CompletionCheck(fixedNow) {
		t.Fatalf("completion check should be idempotent")
	}
}

func TestFailedMutationEntersErrorState(t *testing.T) {
	api := newFakeAPI(habit(1, 1, "Read"))
	tr := newTestTracker(t, api)
	boom := errors.New("connection refused")
	api.failOn["create entry"] = boom

	var sawLoading bool
	api.onCall = func(op string) {
		if op == "create entry" {
			// the tracker lock is free while the request runs
			sawLoading = tr.Loading()
		}
	}

	_, err := tr.ToggleEntry(context.Background(), 1, fixedNow)
	if !errors.Is(err, boom) {
		t.Fatalf("expected the API error, got %v", err)
	}
	if !sawLoading {
		t.Fatalf("expected loading state during the request")
	}
	if tr.State() != Error || !errors.Is(tr.Err(), boom) {
		t.Fatalf("expected error state, got %s (%v)", tr.State(), tr.Err())
	}

	delete(api.failOn, "create entry")
	api.onCall = nil
	if err := tr.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if tr.State() != Idle || tr.Err() != nil {
		t.Fatalf("refresh should clear the error, got %s", tr.State())
	}
}

func TestCreateHabitValidatesBeforeNetwork(t *testing.T) {
	api := newFakeAPI()
	tr := newTestTracker(t, api)
	calls := len(api.calls)

	_, err := tr.CreateHabit(context.Background(), model.HabitForm{Name: "  ", Colour: "#ffffff"})
	var verr *model.ValidationError
	if !errors.As(err, &verr) || verr.Field != "name" {
		t.Fatalf("expected name validation error, got %v", err)
	}
	if len(api.calls) != calls {
		t.Fatalf("validation failure must not call the API")
	}

	h, err := tr.CreateHabit(context.Background(), model.HabitForm{Name: " Stretch ", Colour: "#ABCDEF"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if h.ID == 0 || h.Name != "Stretch" || h.Colour != "#abcdef" {
		t.Fatalf("unexpected created habit %+v", h)
	}
	if len(tr.Habits()) != 1 {
		t.Fatalf("created habit should appear after refetch")
	}
}

func TestEditRemoveAndPurge(t *testing.T) {
	api := newFakeAPI(habit(1, 1, "Read"), habit(2, 2, "Run"))
	tr := newTestTracker(t, api)
	ctx := context.Background()

	if err := tr.EditHabit(ctx, 1, model.HabitForm{Name: "Read more", Colour: "#000000"}); err != nil {
		t.Fatalf("edit: %v", err)
	}
	if h, _ := tr.Habit(1); h.Name != "Read more" || h.Index != 1 {
		t.Fatalf("unexpected edited habit %+v", h)
	}

	if err := tr.RemoveHabit(ctx, 1); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, ok := tr.Habit(1); ok {
		t.Fatalf("soft-deleted habit should disappear after refetch")
	}
	if api.habits[0].Active {
		t.Fatalf("remove should clear the active flag, not delete")
	}

	if err := tr.PurgeHabit(ctx, 2); err != nil {
		t.Fatalf("purge: %v", err)
	}
	if len(tr.Habits()) != 0 || len(api.habits) != 1 {
		t.Fatalf("purge should delete on the server")
	}
}

func TestReorderPersistsNewIndexes(t *testing.T) {
	api := newFakeAPI(habit(1, 1, "A"), habit(2, 2, "B"), habit(3, 3, "C"))
	tr := newTestTracker(t, api)
	ctx := context.Background()

	if err := tr.Reorder(ctx, 1, 3); err != nil {
		t.Fatalf("reorder: %v", err)
	}
	got := tr.Habits()
	if got[0].Name != "B" || got[1].Name != "C" || got[2].Name != "A" {
		t.Fatalf("unexpected order %v %v %v", got[0].Name, got[1].Name, got[2].Name)
	}
	for i, h := range got {
		if h.Index != int64(i+1) {
			t.Fatalf("habit %s has index %d, want %d", h.Name, h.Index, i+1)
		}
	}

	calls := len(api.calls)
	if err := tr.Reorder(ctx, 2, 2); err != nil {
		t.Fatalf("no-op reorder: %v", err)
	}
	if len(api.calls) != calls {
		t.Fatalf("dropping a habit on itself must not call the API")
	}
}

func TestDragGesture(t *testing.T) {
	api := newFakeAPI(habit(1, 1, "A"), habit(2, 2, "B"), habit(3, 3, "C"))
	tr := newTestTracker(t, api)
	ctx := context.Background()

	if !tr.DragStart(3) {
		t.Fatalf("drag start should pick up a known habit")
	}
	if h, ok := tr.Dragging(); !ok || h.ID != 3 {
		t.Fatalf("expected habit 3 held, got %+v", h)
	}
	if moved, err := tr.DragEnd(ctx, 0, false); err != nil || moved {
		t.Fatalf("drop outside: moved=%v err=%v", moved, err)
	}
	if _, ok := tr.Dragging(); ok {
		t.Fatalf("gesture should end on drop")
	}

	tr.DragStart(3)
	if moved, err := tr.DragEnd(ctx, 1, true); err != nil || !moved {
		t.Fatalf("drop: moved=%v err=%v", moved, err)
	}
	got := tr.Habits()
	if got[0].ID != 3 || got[1].ID != 1 || got[2].ID != 2 {
		t.Fatalf("unexpected order after drag: %d %d %d", got[0].ID, got[1].ID, got[2].ID)
	}
}

func TestDragEndAfterHabitVanished(t *testing.T) {
	api := newFakeAPI(habit(1, 1, "A"), habit(2, 2, "B"), habit(3, 3, "C"))
	tr := newTestTracker(t, api)
	ctx := context.Background()

	tr.DragStart(3)

	// a background refresh drops habit 3 while it is held
	api.mu.Lock()
	api.habits = api.habits[:2]
	api.mu.Unlock()
	if err := tr.Refresh(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	moved, err := tr.DragEnd(ctx, 1, true)
	if err != nil || moved {
		t.Fatalf("expected a no-op drop, moved=%v err=%v", moved, err)
	}
	for _, call := range api.calls {
		if call == "bulk update" {
			t.Fatalf("nothing should be persisted for a vanished habit")
		}
	}
}

// unfilteredAPI returns soft-deleted habits too
type unfilteredAPI struct{ *fakeAPI }

func (u unfilteredAPI) ListHabits(ctx context.Context, userID int64) ([]model.Habit, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	out := make([]model.Habit, 0, len(u.habits))
	for _, h := range u.habits {
		out = append(out, h.Clone())
	}
	return out, nil
}

func TestRefreshHidesInactiveHabits(t *testing.T) {
	hidden := habit(2, 1, "Hidden")
	hidden.Active = false
	tr := New(unfilteredAPI{newFakeAPI(habit(1, 2, "Shown"), hidden)}, 1)
	tr.SetClock(func() time.Time { return fixedNow })

	if err := tr.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	got := tr.Habits()
	if len(got) != 1 || got[0].ID != 1 {
		t.Fatalf("expected only the active habit, got %+v", got)
	}
}

func TestPivotNavigation(t *testing.T) {
	tr := newTestTracker(t, newFakeAPI(habit(1, 1, "A")))

	if p := tr.PrevMonth(); p.Month() != time.December || p.Year() != 2023 {
		t.Fatalf("prev month: %v", p)
	}
	tr.NextMonth()
	if p := tr.NextMonth(); p.Month() != time.February || p.Day() != 1 {
		t.Fatalf("next month: %v", p)
	}
	if rows := tr.Rows(); len(rows) != 1 || len(rows[0].Cells) != 29 {
		t.Fatalf("expected 29 cells for Feb 2024")
	}
	if p := tr.JumpToToday(); p.Month() != time.January {
		t.Fatalf("jump to today: %v", p)
	}
}

func TestPollerSkipsWhileLoading(t *testing.T) {
	api := newFakeAPI(habit(1, 1, "A"))
	tr := newTestTracker(t, api)
	p := NewPoller(tr, time.Hour)

	var got []error
	p.SetOnRefresh(func(err error) { got = append(got, err) })

	if !p.poll() {
		t.Fatalf("poll should refresh when idle")
	}
	if len(got) != 1 || got[0] != nil {
		t.Fatalf("expected one successful callback, got %v", got)
	}

	tr.setLoading()
	if p.poll() {
		t.Fatalf("poll should skip while a request is in flight")
	}
	p.Stop()
	p.Stop()
}
