package publisher

import (
	"time"

	"github.com/petspace/petemotion/pkg/logger"
)

type options struct {
	now    func() time.Time
	logger logger.Logger
}

func newOptions(opts []Option) options {
	o := options{now: time.Now, logger: logger.NamedOrNop("publisher")}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Option applies a configuration option to a publisher.
type Option func(*options)

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithClock sets the message timestamp source.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}
