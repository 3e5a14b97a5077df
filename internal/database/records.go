package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"kitchensync/internal/storage"
)

// Record is one persisted collection.
type Record struct {
	Kind      storage.Kind
	Owner     string
	Data      []byte
	UpdatedAt time.Time
}

// RecordStore is the SQLite implementation of storage.Backend.
type RecordStore struct {
	db *sql.DB
}

func NewRecordStore(db *sql.DB) *RecordStore {
	return &RecordStore{db: db}
}

func (s *RecordStore) Load(kind storage.Kind, owner string) ([]byte, error) {
	var data string
	query := `SELECT data FROM records WHERE kind = ? AND owner = ?`

	err := s.db.QueryRow(query, string(kind), owner).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to query record: %w", err)
	}

	return []byte(data), nil
}

func (s *RecordStore) Save(kind storage.Kind, owner string, data []byte) error {
	query := `
		INSERT INTO records (kind, owner, data, created_at, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT(kind, owner) DO UPDATE SET
			data = excluded.data,
			updated_at = CURRENT_TIMESTAMP
	`

	if _, err := s.db.Exec(query, string(kind), owner, string(data)); err != nil {
		return fmt.Errorf("failed to save record: %w", err)
	}
	return nil
}

func (s *RecordStore) Delete(kind storage.Kind, owner string) error {
	query := `DELETE FROM records WHERE kind = ? AND owner = ?`
	if _, err := s.db.Exec(query, string(kind), owner); err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	return nil
}

// GetRecords returns every record owned by owner, ordered by kind.
func (s *RecordStore) GetRecords(owner string) ([]Record, error) {
	query := `
		SELECT kind, owner, data, updated_at
		FROM records
		WHERE owner = ?
		ORDER BY kind
	`

	rows, err := s.db.Query(query, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var kind, data string
		var updatedAt sql.NullTime
		if err := rows.Scan(&kind, &rec.Owner, &data, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		if updatedAt.Valid {
			rec.UpdatedAt = updatedAt.Time
		}
		rec.Kind = storage.Kind(kind)
		rec.Data = []byte(data)
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating records: %w", err)
	}

	return records, nil
}
