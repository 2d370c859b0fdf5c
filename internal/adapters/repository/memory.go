package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/petspace/petemotion/internal/domain/model"
	"github.com/petspace/petemotion/pkg/logger"
)

// MemoryStore implements Store in process memory. Used when no database is
// configured and in tests.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]model.AnalysisRecord
	now     func() time.Time
	logger  logger.Logger
}

// NewMemoryStore creates an empty store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	o := newOptions(opts)
	return &MemoryStore{
		records: make(map[string]model.AnalysisRecord),
		now:     o.now,
		logger:  o.logger,
	}
}

// Insert implements Store.
func (s *MemoryStore) Insert(ctx context.Context, rec model.AnalysisRecord) (model.AnalysisRecord, error) { //nolint:gocritic // hugeParam: records are values
	if err := ctx.Err(); err != nil {
		return model.AnalysisRecord{}, err
	}
	rec.ID = uuid.NewString()
	rec.CreatedAt = s.now().UTC()

	s.mu.Lock()
	s.records[rec.ID] = rec
	s.mu.Unlock()

	s.logger.Debug(ctx, "analysis stored", logger.String("id", rec.ID))
	return rec, nil
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, id string) (model.AnalysisRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return model.AnalysisRecord{}, ErrNotFound
	}
	return rec, nil
}

// Count implements Store.
func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}
