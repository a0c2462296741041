package database

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// Connect opens the database and creates the schema if needed
func Connect(driver, dsn string) (*sqlx.DB, error) {
	if driver == DriverSQLite && !isMemoryDSN(dsn) {
		// Create data directory if it doesn't exist
		if dir := filepath.Dir(dsn); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create data directory: %w", err)
			}
		}
	}

	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if driver == DriverSQLite {
		// SQLite doesn't support multiple writers
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	if err := initializeSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func isMemoryDSN(dsn string) bool {
	return dsn == ":memory:" || strings.HasPrefix(dsn, "file:")
}

// initializeSchema creates necessary tables if they don't exist.
// Timestamps are stored as unix milliseconds.
func initializeSchema(db *sqlx.DB) error {
	serial := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if db.DriverName() == DriverPostgres {
		serial = "BIGSERIAL PRIMARY KEY"
	}

	statements := []struct {
		table string
		ddl   string
	}{
		{"words", `
			CREATE TABLE IF NOT EXISTS words (
				word TEXT PRIMARY KEY,
				phonetic TEXT NOT NULL DEFAULT '',
				definitions TEXT NOT NULL DEFAULT '[]',
				examples TEXT NOT NULL DEFAULT '[]',
				etymology TEXT NOT NULL DEFAULT '',
				remarks TEXT NOT NULL DEFAULT '',
				source TEXT NOT NULL DEFAULT '',
				level INTEGER NOT NULL DEFAULT 0,
				review_count INTEGER NOT NULL DEFAULT 0,
				correct_count INTEGER NOT NULL DEFAULT 0,
				last_review_date BIGINT NOT NULL,
				next_review_date BIGINT NOT NULL,
				last_seen_date BIGINT NOT NULL,
				added_date BIGINT NOT NULL,
				updated_date BIGINT NOT NULL
			)`},
		{"settings", `
			CREATE TABLE IF NOT EXISTS settings (
				key TEXT PRIMARY KEY,
				value TEXT NOT NULL
			)`},
		{"practice_questions", `
			CREATE TABLE IF NOT EXISTS practice_questions (
				seq ` + serial + `,
				question_id TEXT NOT NULL UNIQUE,
				word TEXT NOT NULL,
				payload TEXT NOT NULL,
				created_at BIGINT NOT NULL
			)`},
		{"practice_records", `
			CREATE TABLE IF NOT EXISTS practice_records (
				id ` + serial + `,
				session_id TEXT NOT NULL,
				word TEXT NOT NULL,
				question_type TEXT NOT NULL,
				is_correct BOOLEAN NOT NULL,
				answered_at BIGINT NOT NULL
			)`},
	}

	for _, s := range statements {
		if _, err := db.Exec(s.ddl); err != nil {
			return fmt.Errorf("failed to create %s table: %w", s.table, err)
		}
	}

	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_practice_questions_word ON practice_questions (word)`); err != nil {
		return fmt.Errorf("failed to create practice_questions index: %w", err)
	}
	return nil
}
