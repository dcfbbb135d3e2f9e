package domain

import (
	"time"

	"github.com/google/uuid"
)

// IngestionLogEntry captures a failed row of an upload batch.
type IngestionLogEntry struct {
	ID           uuid.UUID  `json:"id"`
	BatchID      uuid.UUID  `json:"batchId"`
	FileName     string     `json:"fileName"`
	RowNumber    *int       `json:"rowNumber,omitempty"`
	Kind         ReasonKind `json:"kind"`
	FieldName    string     `json:"fieldName,omitempty"`
	ErrorMessage string     `json:"errorMessage"`
	CreatedAt    time.Time  `json:"createdAt"`
}
