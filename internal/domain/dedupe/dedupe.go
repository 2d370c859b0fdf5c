// Package dedupe remembers finished analyses by idempotency key so a retried
// request replays the stored record instead of running the pipeline again.
package dedupe

import (
	"context"
	"sync"
	"time"

	"github.com/petspace/petemotion/internal/domain/model"
)

const defaultMaxSize = 10_000

// Store maps idempotency keys to stored records.
type Store interface {
	// Lookup returns the record remembered under key, if any.
	Lookup(ctx context.Context, key string) (model.AnalysisRecord, bool, error)

	// Remember stores rec under key. An existing entry is kept.
	Remember(ctx context.Context, key string, rec model.AnalysisRecord) error
}

// node is one entry of the insertion-ordered list. head is the newest entry.
type node struct {
	key       string
	rec       model.AnalysisRecord
	expiresAt time.Time
	prev      *node
	next      *node
}

// MemoryStore implements Store with a bounded map. When full, the oldest entry is evicted.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*node
	head    *node
	tail    *node
	maxSize int
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryStore creates an in-memory store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	o := newOptions(opts)
	maxSize := o.maxSize
	if maxSize <= 0 {
		maxSize = defaultMaxSize
	}
	return &MemoryStore{
		entries: make(map[string]*node),
		maxSize: maxSize,
		ttl:     o.ttl,
		now:     o.now,
	}
}

// Lookup implements Store. Expired entries are dropped on access.
func (d *MemoryStore) Lookup(_ context.Context, key string) (model.AnalysisRecord, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	n, ok := d.entries[key]
	if !ok {
		return model.AnalysisRecord{}, false, nil
	}
	if d.expired(n) {
		d.unlink(n)
		return model.AnalysisRecord{}, false, nil
	}
	return n.rec, true, nil
}

// Remember implements Store.
func (d *MemoryStore) Remember(_ context.Context, key string, rec model.AnalysisRecord) error { //nolint:gocritic // hugeParam: records are values
	d.mu.Lock()
	defer d.mu.Unlock()

	if n, ok := d.entries[key]; ok {
		if !d.expired(n) {
			return nil
		}
		d.unlink(n)
	}
	if len(d.entries) >= d.maxSize {
		d.unlink(d.tail)
	}

	n := &node{key: key, rec: rec, next: d.head}
	if d.ttl > 0 {
		n.expiresAt = d.now().Add(d.ttl)
	}
	if d.head != nil {
		d.head.prev = n
	}
	d.head = n
	if d.tail == nil {
		d.tail = n
	}
	d.entries[key] = n
	return nil
}

// Size returns the number of remembered keys, expired ones included until they are touched.
func (d *MemoryStore) Size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.entries)
}

func (d *MemoryStore) expired(n *node) bool {
	return !n.expiresAt.IsZero() && !d.now().Before(n.expiresAt)
}

// unlink removes n from the list and the map. Must be called with d.mu held.
func (d *MemoryStore) unlink(n *node) {
	if n == nil {
		return
	}
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		d.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		d.tail = n.prev
	}
	n.prev, n.next = nil, nil
	delete(d.entries, n.key)
}
