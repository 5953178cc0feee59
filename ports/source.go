package ports

import (
	"context"

	"heartdash/domain/patient"
)

// RecordSource loads the patient-records table. Implementations re-read their
// backing store on every call; nothing is cached between renders.
type RecordSource interface {
	Load(ctx context.Context) (*patient.Table, error)

	// Describe names the backing store for logs, e.g. "csv:historiales_clinicos.csv".
	Describe() string
}
