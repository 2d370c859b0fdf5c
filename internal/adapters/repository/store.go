// Package repository persists emotion analyses in the emotion_history table.
package repository

import (
	"context"

	"github.com/petspace/petemotion/internal/domain/model"
)

// Store provides read/write access to the analysis history.
type Store interface {
	// Insert stores rec and returns it with the generated ID and creation time.
	Insert(ctx context.Context, rec model.AnalysisRecord) (model.AnalysisRecord, error)

	// Get returns the record with the given ID.
	// Returns ErrNotFound if the ID is unknown.
	Get(ctx context.Context, id string) (model.AnalysisRecord, error)

	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)
}
