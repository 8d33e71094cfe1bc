package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/existflow/habitgrid/internal/model"
)

func openTest(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "nested", "habits.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func day(s string) time.Time {
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestDialectOf(t *testing.T) {
	tests := []struct {
		dsn  string
		want Dialect
	}{
		{"postgres://u:p@localhost/habits?sslmode=disable", Postgres},
		{"postgresql://localhost/habits", Postgres},
		{"/var/lib/habitgrid/habits.db", SQLite},
		{":memory:", SQLite},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DialectOf(tt.dsn), "DialectOf(%q)", tt.dsn)
	}
}

func TestRebind(t *testing.T) {
	pg := &DB{dialect: Postgres}
	assert.Equal(t, "UPDATE habits SET name = $1 WHERE id = $2", pg.rebind("UPDATE habits SET name = ? WHERE id = ?"))

	lite := &DB{dialect: SQLite}
	assert.Equal(t, "SELECT ?", lite.rebind("SELECT ?"))
}

func TestComputeCombos(t *testing.T) {
	dates := []time.Time{
		day("2024-01-01"), day("2024-01-02"), day("2024-01-03"),
		day("2024-01-05"),
		day("2024-01-31"), day("2024-02-01"),
	}
	assert.Equal(t, []int{1, 2, 3, 1, 1, 2}, ComputeCombos(dates))
	assert.Empty(t, ComputeCombos(nil))
}

func TestCreateHabitAppendsPosition(t *testing.T) {
	db := openTest(t)
	ctx := context.Background()

	a, err := db.CreateHabit(ctx, 1, model.HabitForm{Name: "Read", Colour: "#ff0000"})
	require.NoError(t, err)
	b, err := db.CreateHabit(ctx, 1, model.HabitForm{Name: "Run", Colour: "#00ff00"})
	require.NoError(t, err)
	other, err := db.CreateHabit(ctx, 2, model.HabitForm{Name: "Swim", Colour: "#0000ff"})
	require.NoError(t, err)

	assert.Equal(t, int64(1), a.Index)
	assert.Equal(t, int64(2), b.Index)
	assert.Equal(t, int64(1), other.Index, "positions are per user")
	assert.True(t, a.Active)
	assert.NotNil(t, a.Entries)

	habits, err := db.ListHabits(ctx, 1, false)
	require.NoError(t, err)
	require.Len(t, habits, 2)
	assert.Equal(t, "Read", habits[0].Name)
	assert.Equal(t, "Run", habits[1].Name)
}

func TestListHabitsSkipsInactive(t *testing.T) {
	db := openTest(t)
	ctx := context.Background()

	h, err := db.CreateHabit(ctx, 1, model.HabitForm{Name: "Floss", Colour: "#ffffff"})
	require.NoError(t, err)
	h.Active = false
	require.NoError(t, db.UpdateHabit(ctx, h))

	active, err := db.ListHabits(ctx, 1, false)
	require.NoError(t, err)
	assert.Empty(t, active)

	all, err := db.ListHabits(ctx, 1, true)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.False(t, all[0].Active)
}

func TestEntriesCarryCombos(t *testing.T) {
	db := openTest(t)
	ctx := context.Background()
	h, err := db.CreateHabit(ctx, 1, model.HabitForm{Name: "Read", Colour: "#ff0000"})
	require.NoError(t, err)

	// inserted out of order; the listing sorts by date
	for _, d := range []string{"2024-01-03", "2024-01-01", "2024-01-02", "2024-01-07"} {
		_, err := db.CreateEntry(ctx, h.ID, day(d))
		require.NoError(t, err, "CreateEntry(%s)", d)
	}

	got, err := db.GetHabit(ctx, h.ID)
	require.NoError(t, err)

	var dates []string
	var combos []int
	for _, e := range got.Entries {
		dates = append(dates, e.Date.Format(time.DateOnly))
		combos = append(combos, e.Combo)
	}
	assert.Equal(t, []string{"2024-01-01", "2024-01-02", "2024-01-03", "2024-01-07"}, dates)
	assert.Equal(t, []int{1, 2, 3, 1}, combos)
}

func TestCreateEntryReturnsCombo(t *testing.T) {
	db := openTest(t)
	ctx := context.Background()
	h, err := db.CreateHabit(ctx, 1, model.HabitForm{Name: "Read", Colour: "#ff0000"})
	require.NoError(t, err)

	_, err = db.CreateEntry(ctx, h.ID, day("2024-01-01"))
	require.NoError(t, err)
	e, err := db.CreateEntry(ctx, h.ID, day("2024-01-02"))
	require.NoError(t, err)

	assert.Equal(t, 2, e.Combo)
	assert.Equal(t, h.ID, e.HabitID)
	assert.NotZero(t, e.ID)
}

func TestCreateEntryNormalizesToDay(t *testing.T) {
	db := openTest(t)
	ctx := context.Background()
	h, err := db.CreateHabit(ctx, 1, model.HabitForm{Name: "Read", Colour: "#ff0000"})
	require.NoError(t, err)

	e, err := db.CreateEntry(ctx, h.ID, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, e.Date.Equal(day("2024-03-01")), "date = %v", e.Date)

	_, err = db.CreateEntry(ctx, h.ID, time.Date(2024, 3, 1, 18, 30, 0, 0, time.UTC))
	assert.ErrorIs(t, err, ErrConflict)
}

func TestCreateEntryUnknownHabit(t *testing.T) {
	db := openTest(t)
	_, err := db.CreateEntry(context.Background(), 999, day("2024-01-01"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteEntry(t *testing.T) {
	db := openTest(t)
	ctx := context.Background()
	h, err := db.CreateHabit(ctx, 1, model.HabitForm{Name: "Read", Colour: "#ff0000"})
	require.NoError(t, err)
	e, err := db.CreateEntry(ctx, h.ID, day("2024-01-01"))
	require.NoError(t, err)

	require.NoError(t, db.DeleteEntry(ctx, e.ID))
	assert.ErrorIs(t, db.DeleteEntry(ctx, e.ID), ErrNotFound)

	// the day can be completed again
	_, err = db.CreateEntry(ctx, h.ID, day("2024-01-01"))
	assert.NoError(t, err)
}

func TestUpdateHabitsAndDelete(t *testing.T) {
	db := openTest(t)
	ctx := context.Background()
	a, err := db.CreateHabit(ctx, 1, model.HabitForm{Name: "A", Colour: "#111111"})
	require.NoError(t, err)
	b, err := db.CreateHabit(ctx, 1, model.HabitForm{Name: "B", Colour: "#222222"})
	require.NoError(t, err)

	a.Index, b.Index = 2, 1
	require.NoError(t, db.UpdateHabits(ctx, []model.Habit{a, b}))

	habits, err := db.ListHabits(ctx, 1, false)
	require.NoError(t, err)
	require.Len(t, habits, 2)
	assert.Equal(t, b.ID, habits[0].ID)
	assert.Equal(t, a.ID, habits[1].ID)

	missing := model.Habit{ID: 999, Name: "x", Colour: "#000000"}
	assert.ErrorIs(t, db.UpdateHabits(ctx, []model.Habit{a, missing}), ErrNotFound)

	_, err = db.CreateEntry(ctx, a.ID, day("2024-01-01"))
	require.NoError(t, err)
	require.NoError(t, db.DeleteHabit(ctx, a.ID))

	_, err = db.GetHabit(ctx, a.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, db.DeleteHabit(ctx, a.ID), ErrNotFound)
}

func TestHabitOwner(t *testing.T) {
	db := openTest(t)
	ctx := context.Background()
	h, err := db.CreateHabit(ctx, 7, model.HabitForm{Name: "A", Colour: "#111111"})
	require.NoError(t, err)

	owner, err := db.HabitOwner(ctx, h.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(7), owner)

	_, err = db.HabitOwner(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}
