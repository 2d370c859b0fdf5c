// Package service provides the analysis service that implements the
// dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/petspace/petemotion/internal/adapters/mq/publisher"
	eventqueue "github.com/petspace/petemotion/internal/adapters/mq/queue"
	workerpool "github.com/petspace/petemotion/internal/adapters/mq/worker"
	"github.com/petspace/petemotion/internal/adapters/repository"
	"github.com/petspace/petemotion/internal/adapters/storage"
	"github.com/petspace/petemotion/internal/domain/dedupe"
	"github.com/petspace/petemotion/internal/domain/image"
	"github.com/petspace/petemotion/internal/domain/model"
	"github.com/petspace/petemotion/internal/domain/scoring"
	"github.com/petspace/petemotion/pkg/logger"
	"github.com/petspace/petemotion/pkg/metrics"
)

const (
	defaultQueueSize     = 1_000
	defaultMaxImageBytes = 10 << 20
	defaultMaxImageDim   = 1600
	stopTimeout          = 10 * time.Second
)

// Analyzer produces emotion scores for an image.
type Analyzer interface {
	Analyze(ctx context.Context, img scoring.Image, creds scoring.Credentials) (scoring.Result, error)
	Providers() []string
}

// Request is one analysis request.
type Request struct {
	ImageBase64 string
	UserID      string
	PetID       string
	Memo        string
	// IdempotencyKey, when set, makes a retried request replay the first stored record.
	IdempotencyKey string
}

// Service runs the analysis pipeline and owns its collaborators.
type Service struct {
	mu sync.RWMutex

	chain     Analyzer
	creds     scoring.Credentials
	uploader  storage.Uploader
	history   repository.Store
	idem      dedupe.Store
	publisher publisher.Publisher
	queue     *eventqueue.InMemoryQueue
	pool      *workerpool.Pool

	workerCount    int
	queueSize      int
	maxImageBytes  int
	maxImageDim    int
	maxImagePixels int
	now            func() time.Time

	analyses      map[string]int64
	replays       int64
	droppedEvents int64

	started bool
	logger  logger.Logger
}

// New constructs a Service. Chain, uploader and history are required.
func New(chain Analyzer, uploader storage.Uploader, history repository.Store, opts ...Option) *Service {
	s := &Service{
		chain:          chain,
		creds:          scoring.Credentials{},
		uploader:       uploader,
		history:        history,
		workerCount:    runtime.NumCPU(),
		queueSize:      defaultQueueSize,
		maxImageBytes:  defaultMaxImageBytes,
		maxImageDim:    defaultMaxImageDim,
		maxImagePixels: image.DefaultMaxPixels,
		now:            time.Now,
		analyses:       make(map[string]int64),
		logger:         logger.NamedOrNop("service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.idem == nil {
		s.idem = dedupe.NewMemoryStore()
	}
	if s.publisher == nil {
		s.publisher = publisher.NewLogPublisher()
	}
	s.queue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))
	return s
}

// Start launches the event workers.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	s.pool = workerpool.NewPool(s.workerCount, s.queue, s.publisher)
	// Workers end when Stop closes the queue, not when ctx is cancelled.
	s.pool.Start(context.WithoutCancel(ctx))
	s.started = true

	s.logger.Info(ctx, "analysis service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.String("providers", strings.Join(s.chain.Providers(), ",")),
	)
	return nil
}

// Stop drains queued events and releases the publisher.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping analysis service...")

	sctx, cancel := context.WithTimeout(ctx, stopTimeout)
	defer cancel()

	var errs []error
	if err := s.pool.Shutdown(sctx); err != nil {
		errs = append(errs, err)
	}
	if err := s.publisher.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close publisher: %w", err))
	}
	s.started = false
	s.logger.Info(ctx, "analysis service stopped")
	return errors.Join(errs...)
}

// Analyze validates the request, stores the image, scores it, persists the
// record and announces it. A repeated idempotency key replays the stored record.
func (s *Service) Analyze(ctx context.Context, req Request) (model.AnalysisRecord, error) { //nolint:gocritic // hugeParam: request is a value
	const op = "service.analyze"

	userID := strings.TrimSpace(req.UserID)
	if strings.TrimSpace(req.ImageBase64) == "" || userID == "" {
		return model.AnalysisRecord{}, ErrMissingFields
	}

	idemKey := ""
	if k := strings.TrimSpace(req.IdempotencyKey); k != "" {
		idemKey = userID + ":" + k
		if rec, ok := s.lookupReplay(ctx, idemKey); ok {
			return rec, nil
		}
	}

	decoded, err := image.Decode(req.ImageBase64, s.maxImageBytes, image.WithMaxPixels(s.maxImagePixels))
	if err != nil {
		metrics.RecordInvalidImage()
		return model.AnalysisRecord{}, fmt.Errorf("%s: %w: %w", op, ErrInvalidImage, err)
	}

	imageURL, err := s.upload(ctx, userID, decoded.Data)
	if err != nil {
		return model.AnalysisRecord{}, fmt.Errorf("%s: %w: %w", op, ErrUpload, err)
	}

	prepared, err := image.PrepareForProvider(decoded, s.maxImageDim)
	if err != nil {
		s.logger.Warn(ctx, "resize failed, sending original image", logger.Error(err))
		prepared = decoded
	}
	result, err := s.chain.Analyze(ctx, scoring.Image{Data: prepared.Data, MIMEType: prepared.MIMEType()}, s.creds)
	if err != nil {
		return model.AnalysisRecord{}, fmt.Errorf("%s: %w: %w", op, ErrInvalidImage, err)
	}

	rec, err := s.insert(ctx, model.AnalysisRecord{
		UserID:          userID,
		PetID:           model.StringPtr(req.PetID),
		ImageURL:        imageURL,
		EmotionAnalysis: result.Scores,
		Memo:            model.StringPtr(req.Memo),
		Provider:        result.Provider,
	})
	if err != nil {
		return model.AnalysisRecord{}, fmt.Errorf("%s: %w: %w", op, ErrSave, err)
	}

	s.mu.Lock()
	s.analyses[result.Provider]++
	s.mu.Unlock()

	if idemKey != "" {
		if err := s.idem.Remember(ctx, idemKey, rec); err != nil {
			s.logger.Warn(ctx, "failed to remember idempotency key", logger.Error(err))
		}
	}
	s.announce(ctx, rec)

	s.logger.Info(ctx, "emotion analyzed",
		logger.String("id", rec.ID),
		logger.String("provider", rec.Provider),
		logger.String("dominant", rec.EmotionAnalysis.Dominant()),
	)
	return rec, nil
}

// Get returns a stored analysis.
func (s *Service) Get(ctx context.Context, id string) (model.AnalysisRecord, error) {
	rec, err := s.history.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return model.AnalysisRecord{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return model.AnalysisRecord{}, fmt.Errorf("service.get: %w", err)
	}
	return rec, nil
}

// GetStats returns service statistics for monitoring. Credential values are never included.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	analyses := make(map[string]int64, len(s.analyses))
	for k, v := range s.analyses {
		analyses[k] = v
	}
	configured := make([]string, 0, len(s.creds))
	for name, ok := range s.creds {
		if ok {
			configured = append(configured, name)
		}
	}
	sort.Strings(configured)

	stats := map[string]interface{}{
		"started":       s.started,
		"workerCount":   s.workerCount,
		"queueSize":     s.queueSize,
		"queueLength":   s.queue.Len(ctx),
		"providers":     s.chain.Providers(),
		"credentials":   configured,
		"analyses":      analyses,
		"replays":       s.replays,
		"droppedEvents": s.droppedEvents,
	}
	if s.pool != nil {
		published, failed := s.pool.Stats()
		stats["eventsPublished"] = published
		stats["eventsFailed"] = failed
	}
	if n, err := s.history.Count(ctx); err == nil {
		stats["historyRecords"] = n
		metrics.UpdateHistoryRecords(n)
	}
	return stats
}

func (s *Service) lookupReplay(ctx context.Context, key string) (model.AnalysisRecord, bool) {
	rec, ok, err := s.idem.Lookup(ctx, key)
	if err != nil {
		s.logger.Warn(ctx, "idempotency lookup failed, analyzing anyway", logger.Error(err))
		return model.AnalysisRecord{}, false
	}
	if !ok {
		return model.AnalysisRecord{}, false
	}
	metrics.RecordIdempotentReplay()
	s.mu.Lock()
	s.replays++
	s.mu.Unlock()
	s.logger.Debug(ctx, "replaying stored analysis", logger.String("id", rec.ID))
	return rec, true
}

func (s *Service) upload(ctx context.Context, userID string, data []byte) (string, error) {
	url, err := s.uploader.Upload(ctx, storage.ObjectPath(userID, s.now()), data, storage.ContentTypeJPEG)
	if err != nil {
		s.logger.Error(ctx, "image upload failed", logger.Error(err))
		return "", err
	}
	return url, nil
}

func (s *Service) insert(ctx context.Context, rec model.AnalysisRecord) (model.AnalysisRecord, error) { //nolint:gocritic // hugeParam: records are values
	stored, err := s.history.Insert(ctx, rec)
	if err != nil {
		s.logger.Error(ctx, "saving analysis failed", logger.Error(err))
		return model.AnalysisRecord{}, err
	}
	return stored, nil
}

func (s *Service) announce(ctx context.Context, rec model.AnalysisRecord) { //nolint:gocritic // hugeParam: records are values
	if s.queue.Enqueue(ctx, model.NewAnalysisEvent(rec)) {
		return
	}
	s.mu.Lock()
	s.droppedEvents++
	s.mu.Unlock()
	s.logger.Warn(ctx, "analysis event dropped",
		logger.String("id", rec.ID),
		logger.Error(eventqueue.ErrQueueFull),
	)
}
