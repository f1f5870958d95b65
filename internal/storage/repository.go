package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/user/cibulb/internal/status"
)

// SQLiteConnector opens SQLite-backed stores.
type SQLiteConnector struct {
	path  string
	table string
}

// NewSQLiteConnector creates a connector for the database at path.
func NewSQLiteConnector(path, table string) *SQLiteConnector {
	return &SQLiteConnector{path: path, table: table}
}

// Connect opens the database and ensures the schema exists.
func (c *SQLiteConnector) Connect(ctx context.Context) (Store, error) {
	db, err := NewDatabase(ctx, c.path, c.table)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnection, err)
	}
	return NewRepositoryStore(db, c.table), nil
}

// RepositoryStore handles repository record operations on SQLite.
type RepositoryStore struct {
	db    *Database
	table string
}

// NewRepositoryStore creates a new repository store.
func NewRepositoryStore(db *Database, table string) *RepositoryStore {
	return &RepositoryStore{db: db, table: table}
}

// Upsert creates or updates the status of a repository.
func (s *RepositoryStore) Upsert(ctx context.Context, name string, st status.Status) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (name, status, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			status = excluded.status,
			updated_at = excluded.updated_at
	`, s.table)
	if _, err := s.db.ExecContext(ctx, query, name, st, time.Now().UTC()); err != nil {
		return fmt.Errorf("%w: upsert %s: %w", ErrOperation, name, err)
	}
	return nil
}

// FetchAll returns every repository record.
func (s *RepositoryStore) FetchAll(ctx context.Context) ([]RepositoryRecord, error) {
	var records []RepositoryRecord
	query := fmt.Sprintf(`SELECT name, status, updated_at FROM %s`, s.table)
	if err := s.db.SelectContext(ctx, &records, query); err != nil {
		return nil, fmt.Errorf("%w: fetch all: %w", ErrOperation, err)
	}
	return records, nil
}

// Close releases the underlying connection.
func (s *RepositoryStore) Close() error {
	return s.db.Close()
}
