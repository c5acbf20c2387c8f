package store

import (
	"database/sql"
	"log"
)

// Migrate applies the schema. Every statement is idempotent so restarts are
// safe against an already-provisioned database.
//
// presences carries both created_at (authoritative timestamp, assigned by the
// database at insert time) and recorded_on (its calendar date in the session
// time zone). The unique index on (lecture_id, day_id, recorded_on) is what
// closes the check-then-insert race between concurrent scans: the losing
// insert fails with a unique violation, which the presence repository
// normalizes to the already-recorded-today error.
func Migrate(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS admins (
			id TEXT PRIMARY KEY,
			username TEXT NOT NULL,
			email TEXT NOT NULL UNIQUE,
			password TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS lectures (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			code TEXT NOT NULL UNIQUE,
			rfid_id TEXT NOT NULL UNIQUE,
			photo TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS days (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS lecture_days (
			lecture_id TEXT NOT NULL REFERENCES lectures(id) ON DELETE CASCADE,
			day_id TEXT NOT NULL REFERENCES days(id),
			PRIMARY KEY (lecture_id, day_id)
		)`,
		`CREATE TABLE IF NOT EXISTS presences (
			id TEXT PRIMARY KEY,
			lecture_id TEXT NOT NULL REFERENCES lectures(id) ON DELETE CASCADE,
			day_id TEXT NOT NULL REFERENCES days(id),
			status TEXT NOT NULL DEFAULT 'present',
			recorded_on DATE NOT NULL DEFAULT CURRENT_DATE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS presences_daily_once
			ON presences (lecture_id, day_id, recorded_on)`,
		`CREATE INDEX IF NOT EXISTS presences_created_at_idx
			ON presences (created_at DESC)`,
	}

	log.Println("running database migrations...")
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	log.Println("database migrations completed")
	return nil
}
