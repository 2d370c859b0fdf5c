package scoring

import (
	"math/rand"
	"sync"
)

// RandomSource yields uniform values in [0, 1). *rand.Rand satisfies it.
type RandomSource interface {
	Float64() float64
}

type lockedRandom struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewLockedRandom returns a seeded RandomSource safe for concurrent use.
func NewLockedRandom(seed int64) RandomSource {
	return &lockedRandom{rng: rand.New(rand.NewSource(seed))} //nolint:gosec // placeholder scores, not security sensitive
}

func (r *lockedRandom) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Float64()
}
