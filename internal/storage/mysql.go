package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// MySQLStore keeps snapshots as rows of a single snapshots table.  The
// table is created on construction if it does not exist.
type MySQLStore struct {
	db *sql.DB
}

const createSnapshotsTable = `CREATE TABLE IF NOT EXISTS snapshots (
    name       VARCHAR(255) NOT NULL PRIMARY KEY,
    body       LONGTEXT     NOT NULL,
    updated_at DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
) DEFAULT CHARSET=utf8mb4`

// NewMySQLStore binds the store to db and ensures the snapshots table.
func NewMySQLStore(ctx context.Context, db *sql.DB) (*MySQLStore, error) {
	if _, err := db.ExecContext(ctx, createSnapshotsTable); err != nil {
		return nil, fmt.Errorf("create snapshots table: %w", err)
	}
	return &MySQLStore{db: db}, nil
}

// Read returns the snapshot stored under name.
func (s *MySQLStore) Read(ctx context.Context, name string) ([]byte, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM snapshots WHERE name = ?`, name).Scan(&body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("select snapshot %s: %w", name, err)
	}
	return []byte(body), nil
}

// Write upserts the snapshot row.
func (s *MySQLStore) Write(ctx context.Context, name string, data []byte) error {
	const q = `INSERT INTO snapshots (name, body) VALUES (?, ?)
               ON DUPLICATE KEY UPDATE body = VALUES(body)`
	if _, err := s.db.ExecContext(ctx, q, name, string(data)); err != nil {
		return fmt.Errorf("upsert snapshot %s: %w", name, err)
	}
	return nil
}
