package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq" // postgres driver

	"github.com/petspace/petemotion/internal/domain/model"
	"github.com/petspace/petemotion/pkg/logger"
	"github.com/petspace/petemotion/pkg/metrics"
)

const (
	insertQuery = `INSERT INTO emotion_history (user_id, pet_id, image_url, emotion_analysis, memo)
		VALUES ($1, $2, $3, $4::jsonb, $5) RETURNING id, created_at`
	selectQuery = `SELECT id, user_id, pet_id, image_url, emotion_analysis, memo, created_at
		FROM emotion_history WHERE id = $1`
	countQuery = `SELECT COUNT(*) FROM emotion_history`
)

// PostgresStore implements Store on a Postgres emotion_history table.
// The provider name is not a column and is only set on records returned by Insert.
type PostgresStore struct {
	db     *sql.DB
	logger logger.Logger
}

// OpenPostgres opens and pings a lib/pq connection pool.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return db, nil
}

// NewPostgresStore wraps an open database.
func NewPostgresStore(db *sql.DB, opts ...Option) *PostgresStore {
	o := newOptions(opts)
	return &PostgresStore{db: db, logger: o.logger}
}

// Insert implements Store.
func (s *PostgresStore) Insert(ctx context.Context, rec model.AnalysisRecord) (model.AnalysisRecord, error) { //nolint:gocritic // hugeParam: records are values
	start := time.Now()
	defer func() { metrics.RecordStorageLatency("insert", float64(time.Since(start).Milliseconds())) }()

	scores, err := json.Marshal(rec.EmotionAnalysis)
	if err != nil {
		return model.AnalysisRecord{}, fmt.Errorf("%w: encode scores: %w", ErrInsertFailed, err)
	}

	err = s.db.QueryRowContext(ctx, insertQuery,
		rec.UserID, nullString(rec.PetID), rec.ImageURL, string(scores), nullString(rec.Memo),
	).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		metrics.RecordStorageError("insert")
		return model.AnalysisRecord{}, fmt.Errorf("%w: %w", ErrInsertFailed, err)
	}
	s.logger.Debug(ctx, "analysis stored", logger.String("id", rec.ID))
	return rec, nil
}

// Get implements Store.
func (s *PostgresStore) Get(ctx context.Context, id string) (model.AnalysisRecord, error) {
	if _, err := uuid.Parse(id); err != nil {
		return model.AnalysisRecord{}, ErrNotFound
	}

	var (
		rec    model.AnalysisRecord
		petID  sql.NullString
		memo   sql.NullString
		scores []byte
	)
	err := s.db.QueryRowContext(ctx, selectQuery, id).
		Scan(&rec.ID, &rec.UserID, &petID, &rec.ImageURL, &scores, &memo, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.AnalysisRecord{}, ErrNotFound
	}
	if err != nil {
		metrics.RecordStorageError("get")
		return model.AnalysisRecord{}, fmt.Errorf("query analysis %s: %w", id, err)
	}
	if err := json.Unmarshal(scores, &rec.EmotionAnalysis); err != nil {
		return model.AnalysisRecord{}, fmt.Errorf("decode scores of %s: %w", id, err)
	}
	if petID.Valid {
		rec.PetID = &petID.String
	}
	if memo.Valid {
		rec.Memo = &memo.String
	}
	return rec, nil
}

// Count implements Store.
func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, countQuery).Scan(&n); err != nil {
		metrics.RecordStorageError("count")
		return 0, fmt.Errorf("count analyses: %w", err)
	}
	return n, nil
}

// Close closes the underlying pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}
