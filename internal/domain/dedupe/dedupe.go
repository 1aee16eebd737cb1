// Package dedupe defines the interface for idempotency tracking.
package dedupe

import (
	"context"
	"sync"
)

// Deduper records seen submission keys to ensure at-most-once recording of
// client retries.
type Deduper interface {
	// SeenAndRecord atomically checks whether key was seen and records it
	// if not. Returns true if key was already seen.
	SeenAndRecord(ctx context.Context, key string) bool

	// Unrecord removes a key, allowing it to be retried. Used when a
	// submission was marked seen but failed downstream.
	Unrecord(ctx context.Context, key string)

	// Size returns the number of tracked keys.
	Size() int
}

// inMemoryDeduper implements Deduper with a map plus a FIFO eviction ring.
// With maxSize <= 0 the cache is unbounded.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]struct{}
	order   []string // insertion order for bounded eviction
	maxSize int
}

// NewInMemoryDeduper creates an in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		seen:    make(map[string]struct{}),
		maxSize: 50_000,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[key]; ok {
		return true
	}

	if d.maxSize > 0 && len(d.seen) >= d.maxSize {
		// Evict the oldest recorded key.
		oldest := d.order[0]
		d.order = d.order[1:]
		delete(d.seen, oldest)
	}

	d.seen[key] = struct{}{}
	if d.maxSize > 0 {
		d.order = append(d.order, key)
	}
	return false
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[key]; !ok {
		return
	}
	delete(d.seen, key)
	for i, k := range d.order {
		if k == key {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
}

func (d *inMemoryDeduper) Size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}
