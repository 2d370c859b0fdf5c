package scoring

import (
	"context"
	"time"

	"github.com/petspace/petemotion/internal/domain/emotion"
)

// Fallback generates a random normalized vector. It never fails.
type Fallback struct {
	rnd   RandomSource
	delay time.Duration
}

// NewFallback creates a fallback generator. Without options it draws from a
// time-seeded source and returns immediately.
func NewFallback(opts ...FallbackOption) *Fallback {
	f := &Fallback{rnd: NewLockedRandom(time.Now().UnixNano())}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Generate draws five values, normalizes them and rounds each to three
// decimals. A configured delay is waited out first; cancellation cuts it
// short but a vector is still returned.
func (f *Fallback) Generate(ctx context.Context) emotion.Scores {
	if f.delay > 0 {
		t := time.NewTimer(f.delay)
		select {
		case <-ctx.Done():
		case <-t.C:
		}
		t.Stop()
	}

	raw := make([]float64, len(emotion.Names))
	for i := range raw {
		raw[i] = f.rnd.Float64()
	}
	scores, err := emotion.Normalize(emotion.FromSlice(raw))
	if err != nil {
		return emotion.Uniform()
	}
	return scores
}
