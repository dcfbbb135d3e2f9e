package repository

import (
	"context"
	"errors"

	"github.com/rpattn/memberload/internal/domain"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a keyed record does not exist.
var ErrNotFound = errors.New("record not found")

// RecordStore is the generic table access the ingestion pipeline consumes.
// Implementations must return backend failures as errors and never fold them
// into a negative lookup result.
type RecordStore interface {
	// LookupExists reports whether a row with field == value exists in table.
	LookupExists(ctx context.Context, table, field, value string) (bool, error)
	// Insert creates a row and returns its generated identifier.
	Insert(ctx context.Context, table string, fields map[string]any) (string, error)
	Delete(ctx context.Context, table, id string) error
	Update(ctx context.Context, table, id string, fields map[string]any) error
	// ListValues returns every value of field in table, as text.
	ListValues(ctx context.Context, table, field string) ([]string, error)
}

// IngestionLogRepository stores failed upload rows for later inspection.
type IngestionLogRepository interface {
	Record(ctx context.Context, entry domain.IngestionLogEntry) error
	List(ctx context.Context, batchID uuid.UUID, limit int, offset int) ([]domain.IngestionLogEntry, error)
}
