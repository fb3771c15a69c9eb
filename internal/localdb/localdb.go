package localdb

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

var DBClient *sql.DB

// SetupDB opens (or creates) the local SQLite database and ensures the
// schema exists. Safe to call more than once; the first connection wins.
func SetupDB(dbPath string) (*sql.DB, error) {
	if DBClient != nil {
		return DBClient, nil
	}

	// WAL mode and a busy timeout avoid lock errors when handlers overlap
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	// SQLite has a single writer, keep the pool at one connection
	db.SetMaxOpenConns(1)

	DBClient = db

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		setting_type TEXT NOT NULL DEFAULT 'normal',
		is_required BOOLEAN NOT NULL DEFAULT false,
		description TEXT,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		return nil, fmt.Errorf("failed to create settings table: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS machines (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		driver TEXT NOT NULL DEFAULT 'brother',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		return nil, fmt.Errorf("failed to create machines table: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS machine_settings (
		machine_id TEXT NOT NULL,
		key TEXT NOT NULL,
		value TEXT NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (machine_id, key),
		FOREIGN KEY (machine_id) REFERENCES machines(id) ON DELETE CASCADE
	)`)
	if err != nil {
		return nil, fmt.Errorf("failed to create machine_settings table: %w", err)
	}

	return db, nil
}

// GetDB returns the current database connection.
func GetDB() *sql.DB {
	return DBClient
}
