// Package publisher delivers analysis events to downstream consumers.
package publisher

import (
	"context"

	"github.com/petspace/petemotion/internal/domain/model"
	"github.com/petspace/petemotion/pkg/logger"
)

// Publisher sends one event downstream.
type Publisher interface {
	Publish(ctx context.Context, e model.AnalysisEvent) error
	Close() error
}

// LogPublisher writes events to the structured log. It is the default when no broker is configured.
type LogPublisher struct {
	logger logger.Logger
}

// NewLogPublisher creates a LogPublisher.
func NewLogPublisher(opts ...Option) *LogPublisher {
	o := newOptions(opts)
	return &LogPublisher{logger: o.logger}
}

// Publish implements Publisher.
func (p *LogPublisher) Publish(ctx context.Context, e model.AnalysisEvent) error { //nolint:gocritic // hugeParam: events are values
	p.logger.Info(ctx, "emotion analyzed",
		logger.String("record_id", e.RecordID),
		logger.String("user_id", e.UserID),
		logger.String("provider", e.Provider),
		logger.String("dominant", e.Dominant),
	)
	return nil
}

// Close implements Publisher.
func (p *LogPublisher) Close() error { return nil }
