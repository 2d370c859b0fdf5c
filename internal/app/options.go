package service

import (
	"time"

	"github.com/petspace/petemotion/internal/adapters/mq/publisher"
	"github.com/petspace/petemotion/internal/domain/dedupe"
	"github.com/petspace/petemotion/internal/domain/scoring"
	"github.com/petspace/petemotion/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithCredentials sets which provider credentials are configured.
func WithCredentials(creds map[string]bool) Option {
	return func(s *Service) {
		c := make(scoring.Credentials, len(creds))
		for k, v := range creds {
			c[k] = v
		}
		s.creds = c
	}
}

// WithIdempotencyStore sets where replayable results are remembered.
func WithIdempotencyStore(store dedupe.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.idem = store
		}
	}
}

// WithPublisher sets where analysis events are delivered.
func WithPublisher(p publisher.Publisher) Option {
	return func(s *Service) {
		if p != nil {
			s.publisher = p
		}
	}
}

// WithWorkerCount sets the number of event workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the event queue capacity.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithMaxImageBytes caps the decoded image size.
func WithMaxImageBytes(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxImageBytes = n
		}
	}
}

// WithMaxImagePixels caps width*height of accepted images.
func WithMaxImagePixels(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxImagePixels = n
		}
	}
}

// WithMaxImageDimension bounds the longest edge sent to providers. 0 disables resizing.
func WithMaxImageDimension(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.maxImageDim = n
		}
	}
}

// WithClock sets the time source used for object paths.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
