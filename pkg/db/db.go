package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // register driver
)

// DB wraps the sql.DB connection.
type DB struct {
	*sql.DB
}

// Init opens the database and runs migrations.
func Init(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	// WAL for concurrency; busy timeout instead of SQLITE_BUSY errors.
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=30000;"); err != nil {
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	// Single connection avoids write contention with modernc sqlite.
	db.SetMaxOpenConns(1)

	d := &DB{db}
	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return d, nil
}

func (d *DB) migrate() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS poi_cache (
			cache_key TEXT PRIMARY KEY,
			poi_json TEXT,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS user_poi_history (
			user_key TEXT NOT NULL,
			poi_key TEXT NOT NULL,
			first_seen_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (user_key, poi_key)
		);`,
		`CREATE TABLE IF NOT EXISTS exposure_log (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			user_id TEXT,
			lat REAL,
			lng REAL,
			poi_key TEXT,
			poi_name TEXT,
			poi_source TEXT,
			distance_meters REAL,
			should_speak BOOLEAN,
			reason TEXT,
			taste_profile_id TEXT,
			story_len INTEGER
		);`,
		`CREATE TABLE IF NOT EXISTS taste_profiles (
			id TEXT PRIMARY KEY,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME,
			data TEXT
		);`,
		`CREATE INDEX IF NOT EXISTS idx_exposure_user ON exposure_log(user_id, created_at);`,
	}

	for _, q := range queries {
		if _, err := d.Exec(q); err != nil {
			return fmt.Errorf("query failed (%.40s...): %w", q, err)
		}
	}
	return nil
}
