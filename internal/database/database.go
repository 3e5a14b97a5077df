package database

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

func Initialize(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// One writer at a time; a record save must never interleave with another.
	db.SetMaxOpenConns(1)

	return db, nil
}

func Migrate(db *sql.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS records (
			kind TEXT NOT NULL,
			owner TEXT NOT NULL DEFAULT '',
			data TEXT NOT NULL,
			PRIMARY KEY (kind, owner)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_records_owner ON records(owner)`,
	}

	for _, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("failed to execute migration: %w", err)
		}
	}

	if err := ensureColumn(db, "records", "created_at", "DATETIME"); err != nil {
		return fmt.Errorf("failed to add created_at column to records: %w", err)
	}

	if err := ensureColumn(db, "records", "updated_at", "DATETIME"); err != nil {
		return fmt.Errorf("failed to add updated_at column to records: %w", err)
	}

	return nil
}

// ensureColumn adds a column to an existing table when it is missing.
func ensureColumn(db *sql.DB, table, column, definition string) error {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return err
	}
	defer rows.Close()

	found := false
	for rows.Next() {
		var cid, notNull, pk int
		var name, dataType string
		var defaultValue sql.NullString
		if err := rows.Scan(&cid, &name, &dataType, &notNull, &defaultValue, &pk); err != nil {
			return err
		}
		if name == column {
			found = true
			break
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	rows.Close()

	if found {
		return nil
	}

	_, err = db.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, definition))
	return err
}
