package scoring

import (
	"time"

	"github.com/petspace/petemotion/pkg/logger"
)

// ChainOption applies a configuration option to the Chain.
type ChainOption func(*Chain)

// WithProviderTimeout bounds each provider attempt.
func WithProviderTimeout(d time.Duration) ChainOption {
	return func(c *Chain) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets a custom logger for the chain.
func WithLogger(l logger.Logger) ChainOption {
	return func(c *Chain) {
		if l != nil {
			c.logger = l
		}
	}
}

// FallbackOption applies a configuration option to the Fallback.
type FallbackOption func(*Fallback)

// WithRandomSource injects the source used for draws.
func WithRandomSource(r RandomSource) FallbackOption {
	return func(f *Fallback) {
		if r != nil {
			f.rnd = r
		}
	}
}

// WithDelay makes Generate wait before answering.
func WithDelay(d time.Duration) FallbackOption {
	return func(f *Fallback) {
		if d > 0 {
			f.delay = d
		}
	}
}
