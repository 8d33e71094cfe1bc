package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/existflow/habitgrid/internal/model"
)

var (
	// ErrNotFound is returned when a habit or entry does not exist
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a habit already has an entry for the day
	ErrConflict = errors.New("entry already exists for this day")
)

// Entry is a stored completion with its owning habit
type Entry struct {
	ID      int64     `json:"id"`
	HabitID int64     `json:"habitId"`
	Date    time.Time `json:"date"`
	Combo   int       `json:"combo"`
}

const dayLayout = time.DateOnly

func dayKey(t time.Time) string {
	return t.UTC().Format(dayLayout)
}

func nowStamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// ComputeCombos returns the running consecutive-day count for each date.
// Dates must be sorted ascending; a gap of more than one day restarts at 1.
func ComputeCombos(dates []time.Time) []int {
	combos := make([]int, len(dates))
	combo := 0
	var prev time.Time
	for i, d := range dates {
		if combo > 0 && d.Equal(prev.AddDate(0, 0, 1)) {
			combo++
		} else {
			combo = 1
		}
		combos[i] = combo
		prev = d
	}
	return combos
}

// ListHabits returns the user's habits ordered by position, each with its
// entries in date order. Soft-deleted habits are skipped unless includeInactive.
func (db *DB) ListHabits(ctx context.Context, userID int64, includeInactive bool) ([]model.Habit, error) {
	query := `SELECT id, name, colour, position, active FROM habits WHERE user_id = ?`
	if !includeInactive {
		query += ` AND active = ?`
	}
	query += ` ORDER BY position, id`

	args := []any{userID}
	if !includeInactive {
		args = append(args, true)
	}

	rows, err := db.QueryContext(ctx, db.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query habits: %w", err)
	}
	defer rows.Close()

	habits := []model.Habit{}
	for rows.Next() {
		var h model.Habit
		if err := rows.Scan(&h.ID, &h.Name, &h.Colour, &h.Index, &h.Active); err != nil {
			return nil, fmt.Errorf("failed to scan habit: %w", err)
		}
		habits = append(habits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// Close before issuing more queries on the single SQLite connection
	rows.Close()

	for i := range habits {
		entries, err := db.habitEntries(ctx, habits[i].ID)
		if err != nil {
			return nil, err
		}
		habits[i].Entries = entries
	}
	return habits, nil
}

// GetHabit returns one habit with its entries
func (db *DB) GetHabit(ctx context.Context, id int64) (model.Habit, error) {
	var h model.Habit
	err := db.QueryRowContext(ctx,
		db.rebind(`SELECT id, name, colour, position, active FROM habits WHERE id = ?`), id,
	).Scan(&h.ID, &h.Name, &h.Colour, &h.Index, &h.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Habit{}, ErrNotFound
	}
	if err != nil {
		return model.Habit{}, fmt.Errorf("failed to get habit: %w", err)
	}

	h.Entries, err = db.habitEntries(ctx, id)
	if err != nil {
		return model.Habit{}, err
	}
	return h, nil
}

// HabitOwner returns the user a habit belongs to
func (db *DB) HabitOwner(ctx context.Context, id int64) (int64, error) {
	var userID int64
	err := db.QueryRowContext(ctx, db.rebind(`SELECT user_id FROM habits WHERE id = ?`), id).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get habit owner: %w", err)
	}
	return userID, nil
}

func (db *DB) habitEntries(ctx context.Context, habitID int64) ([]model.HabitEntry, error) {
	rows, err := db.QueryContext(ctx,
		db.rebind(`SELECT id, date FROM habit_entries WHERE habit_id = ? ORDER BY date`), habitID)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	entries := []model.HabitEntry{}
	dates := []time.Time{}
	for rows.Next() {
		var (
			e   model.HabitEntry
			raw string
		)
		if err := rows.Scan(&e.ID, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		e.Date, err = time.Parse(dayLayout, raw)
		if err != nil {
			return nil, fmt.Errorf("entry %d has bad date %q: %w", e.ID, raw, err)
		}
		entries = append(entries, e)
		dates = append(dates, e.Date)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, c := range ComputeCombos(dates) {
		entries[i].Combo = c
	}
	return entries, nil
}

// CreateHabit inserts an active habit at the end of the user's list
func (db *DB) CreateHabit(ctx context.Context, userID int64, form model.HabitForm) (model.Habit, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return model.Habit{}, err
	}
	defer tx.Rollback()

	var next int64
	if err := tx.QueryRowContext(ctx,
		db.rebind(`SELECT COALESCE(MAX(position), 0) + 1 FROM habits WHERE user_id = ?`), userID,
	).Scan(&next); err != nil {
		return model.Habit{}, fmt.Errorf("failed to get next position: %w", err)
	}

	now := nowStamp()
	h := model.Habit{Name: form.Name, Colour: form.Colour, Index: next, Active: true, Entries: []model.HabitEntry{}}
	err = tx.QueryRowContext(ctx, db.rebind(`
		INSERT INTO habits (user_id, name, colour, position, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`), userID, h.Name, h.Colour, h.Index, true, now, now).Scan(&h.ID)
	if err != nil {
		return model.Habit{}, fmt.Errorf("failed to create habit: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return model.Habit{}, err
	}
	return h, nil
}

func (db *DB) updateHabit(ctx context.Context, exec execer, h model.Habit) error {
	res, err := exec.ExecContext(ctx, db.rebind(`
		UPDATE habits SET name = ?, colour = ?, position = ?, active = ?, updated_at = ?
		WHERE id = ?
	`), h.Name, h.Colour, h.Index, h.Active, nowStamp(), h.ID)
	if err != nil {
		return fmt.Errorf("failed to update habit %d: %w", h.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// UpdateHabit overwrites the habit's name, colour, position and active flag
func (db *DB) UpdateHabit(ctx context.Context, h model.Habit) error {
	return db.updateHabit(ctx, db.DB, h)
}

// UpdateHabits applies several updates in one transaction
func (db *DB) UpdateHabits(ctx context.Context, habits []model.Habit) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, h := range habits {
		if err := db.updateHabit(ctx, tx, h); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// DeleteHabit removes a habit and all of its entries
func (db *DB) DeleteHabit(ctx context.Context, id int64) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, db.rebind(`DELETE FROM habit_entries WHERE habit_id = ?`), id); err != nil {
		return fmt.Errorf("failed to delete entries: %w", err)
	}
	res, err := tx.ExecContext(ctx, db.rebind(`DELETE FROM habits WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to delete habit: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}

// CreateEntry records a completion for the calendar day of date.
// The returned entry carries its combo within the habit's history.
func (db *DB) CreateEntry(ctx context.Context, habitID int64, date time.Time) (Entry, error) {
	key := dayKey(date)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return Entry{}, err
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, db.rebind(`SELECT 1 FROM habits WHERE id = ?`), habitID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("failed to check habit: %w", err)
	}

	err = tx.QueryRowContext(ctx,
		db.rebind(`SELECT 1 FROM habit_entries WHERE habit_id = ? AND date = ?`), habitID, key,
	).Scan(&exists)
	if err == nil {
		return Entry{}, ErrConflict
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return Entry{}, fmt.Errorf("failed to check entry: %w", err)
	}

	e := Entry{HabitID: habitID}
	err = tx.QueryRowContext(ctx, db.rebind(`
		INSERT INTO habit_entries (habit_id, date, created_at) VALUES (?, ?, ?)
		RETURNING id
	`), habitID, key, nowStamp()).Scan(&e.ID)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to create entry: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Entry{}, err
	}

	entries, err := db.habitEntries(ctx, habitID)
	if err != nil {
		return Entry{}, err
	}
	for _, stored := range entries {
		if stored.ID == e.ID {
			e.Date = stored.Date
			e.Combo = stored.Combo
			break
		}
	}
	return e, nil
}

// DeleteEntry removes one completion
func (db *DB) DeleteEntry(ctx context.Context, id int64) error {
	res, err := db.ExecContext(ctx, db.rebind(`DELETE FROM habit_entries WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
