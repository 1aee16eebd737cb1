// Package dedupe defines the interface for idempotency tracking.
package dedupe

// Option applies a configuration option to the in-memory deduper.
type Option func(*inMemoryDeduper)

// WithMaxSize bounds the number of keys kept in memory; the oldest key is
// evicted once the bound is reached. maxSize <= 0 means unbounded.
func WithMaxSize(maxSize int) Option {
	return func(d *inMemoryDeduper) {
		d.maxSize = maxSize
	}
}
