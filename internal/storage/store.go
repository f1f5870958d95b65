package storage

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/user/cibulb/internal/config"
	"github.com/user/cibulb/internal/status"
)

var (
	// ErrConnection marks failures to reach the store.
	ErrConnection = errors.New("store connection failed")
	// ErrOperation marks failures of a read or write on an open store.
	ErrOperation = errors.New("store operation failed")
)

// Store is an open, scoped connection to the repository records.
// Callers must Close it on every exit path.
type Store interface {
	// Upsert sets the status of the named repository, creating the record
	// when it does not exist yet.
	Upsert(ctx context.Context, name string, st status.Status) error
	// FetchAll returns every record in no particular order.
	FetchAll(ctx context.Context) ([]RepositoryRecord, error)
	Close() error
}

// Connector opens a new Store per invocation.
type Connector interface {
	Connect(ctx context.Context) (Store, error)
}

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// NewConnector picks the backend from the store URI: mongodb:// and
// mongodb+srv:// go to MongoDB, everything else is a SQLite path.
func NewConnector(cfg config.StoreConfig) (Connector, error) {
	if !identifier.MatchString(cfg.Table) {
		return nil, fmt.Errorf("invalid store table name %q", cfg.Table)
	}

	switch {
	case strings.HasPrefix(cfg.URI, "mongodb://"), strings.HasPrefix(cfg.URI, "mongodb+srv://"):
		if cfg.Database == "" {
			return nil, fmt.Errorf("store database is required for mongodb")
		}
		return NewMongoConnector(cfg.URI, cfg.Database, cfg.Table), nil
	case cfg.URI == "":
		return nil, fmt.Errorf("store uri is required")
	default:
		return NewSQLiteConnector(strings.TrimPrefix(cfg.URI, "sqlite://"), cfg.Table), nil
	}
}
