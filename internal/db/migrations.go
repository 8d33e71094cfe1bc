package db

import "fmt"

// migrate runs all database migrations
func (db *DB) migrate() error {
	migrations := []string{
		migrationCreateHabitsSQLite,
		migrationCreateEntriesSQLite,
	}
	if db.dialect == Postgres {
		migrations = []string{
			migrationCreateHabitsPostgres,
			migrationCreateEntriesPostgres,
		}
	}

	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	return nil
}

// Entry dates are stored as YYYY-MM-DD text in both dialects so a day is
// compared as a day, never as an instant.

const migrationCreateHabitsSQLite = `
CREATE TABLE IF NOT EXISTS habits (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id INTEGER NOT NULL,
    name TEXT NOT NULL,
    colour TEXT NOT NULL DEFAULT '#4ECDC4',
    position INTEGER NOT NULL DEFAULT 0,
    active INTEGER NOT NULL DEFAULT 1,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_habits_user ON habits(user_id);
`

const migrationCreateEntriesSQLite = `
CREATE TABLE IF NOT EXISTS habit_entries (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    habit_id INTEGER NOT NULL,
    date TEXT NOT NULL,
    created_at TEXT NOT NULL,
    UNIQUE(habit_id, date),
    FOREIGN KEY (habit_id) REFERENCES habits(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_habit_entries_habit ON habit_entries(habit_id);
`

const migrationCreateHabitsPostgres = `
CREATE TABLE IF NOT EXISTS habits (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL,
    name TEXT NOT NULL,
    colour TEXT NOT NULL DEFAULT '#4ECDC4',
    position BIGINT NOT NULL DEFAULT 0,
    active BOOLEAN NOT NULL DEFAULT TRUE,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_habits_user ON habits(user_id);
`

const migrationCreateEntriesPostgres = `
CREATE TABLE IF NOT EXISTS habit_entries (
    id BIGSERIAL PRIMARY KEY,
    habit_id BIGINT NOT NULL REFERENCES habits(id) ON DELETE CASCADE,
    date TEXT NOT NULL,
    created_at TEXT NOT NULL,
    UNIQUE(habit_id, date)
);

CREATE INDEX IF NOT EXISTS idx_habit_entries_habit ON habit_entries(habit_id);
`
