// Package storage provides the repository record store and its backends.
package storage

import (
	"time"

	"github.com/user/cibulb/internal/status"
)

// RepositoryRecord is the last known build status of one repository.
type RepositoryRecord struct {
	Name      string        `db:"name" bson:"name" json:"name"`
	Status    status.Status `db:"status" bson:"status" json:"status"`
	UpdatedAt time.Time     `db:"updated_at" bson:"updated_at" json:"updated_at"`
}

// StatusOf extracts the status of a record for aggregation.
func StatusOf(r RepositoryRecord) status.Status {
	return r.Status
}

// Aggregate computes the fleet-wide status of records.
func Aggregate(records []RepositoryRecord) status.Aggregate {
	return status.Of(records, StatusOf)
}
