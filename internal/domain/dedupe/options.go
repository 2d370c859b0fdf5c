package dedupe

import "time"

type options struct {
	maxSize int
	ttl     time.Duration
	prefix  string
	now     func() time.Time
}

func newOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Option applies a configuration option to a Store.
type Option func(*options)

// WithMaxSize bounds the number of keys kept in memory.
func WithMaxSize(maxSize int) Option {
	return func(o *options) {
		o.maxSize = maxSize
	}
}

// WithTTL sets how long a key is remembered. Zero keeps memory entries until evicted.
func WithTTL(ttl time.Duration) Option {
	return func(o *options) {
		o.ttl = ttl
	}
}

// WithKeyPrefix sets the Redis key prefix.
func WithKeyPrefix(prefix string) Option {
	return func(o *options) {
		o.prefix = prefix
	}
}

// WithClock sets the time source used for expiry in memory.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}
