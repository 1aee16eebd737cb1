// Package audit records post-commit submission outcomes through a bounded
// in-memory queue consumed by background workers. The submit path only
// enqueues; aggregation never blocks scoring.
package audit

import (
	"context"
	"sync"
	"time"

	"github.com/vrbench/refbox/pkg/logger"
	"github.com/vrbench/refbox/pkg/metrics"
)

// Verdict labels for audit records.
const (
	VerdictFull             = "full"
	VerdictPartial          = "partial"
	VerdictIncorrect        = "incorrect"
	VerdictAlreadyCompleted = "already_completed"
)

// Record is one submission outcome.
type Record struct {
	QuestionID int       `json:"question_id"`
	TeamID     string    `json:"team_id"`
	Verdict    string    `json:"verdict"`
	Score      float64   `json:"score"`
	Elapsed    float64   `json:"elapsed_time"`
	At         time.Time `json:"at"`
}

// Summary is a point-in-time aggregate of the trail.
type Summary struct {
	Total     int64            `json:"total"`
	ByVerdict map[string]int64 `json:"by_verdict"`
	Recent    []Record         `json:"recent"`
	QueueLen  int              `json:"queue_len"`
	Dropped   int64            `json:"dropped"`
}

// Trail is the audit pipeline: bounded queue, worker pool, aggregates.
type Trail struct {
	queue      chan Record
	capacity   int
	workers    int
	recentSize int

	mu        sync.Mutex
	total     int64
	dropped   int64
	byVerdict map[string]int64
	recent    []Record // ring, newest last
	started   bool

	wg     sync.WaitGroup
	cancel context.CancelFunc
	log    logger.Logger
}

// Option applies a configuration option to the Trail.
type Option func(*Trail)

// WithCapacity bounds the queue.
func WithCapacity(capacity int) Option {
	return func(t *Trail) {
		if capacity > 0 {
			t.capacity = capacity
		}
	}
}

// WithWorkers sets the number of consumer goroutines.
func WithWorkers(workers int) Option {
	return func(t *Trail) {
		if workers > 0 {
			t.workers = workers
		}
	}
}

// WithRecentSize sets how many recent records the summary retains.
func WithRecentSize(size int) Option {
	return func(t *Trail) {
		if size > 0 {
			t.recentSize = size
		}
	}
}

// WithLogger sets a custom logger for the trail.
func WithLogger(log logger.Logger) Option {
	return func(t *Trail) {
		if log != nil {
			t.log = log
		}
	}
}

// New constructs a Trail with default configuration.
func New(opts ...Option) *Trail {
	t := &Trail{
		capacity:   4096,
		workers:    2,
		recentSize: 50,
		byVerdict:  make(map[string]int64),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.queue = make(chan Record, t.capacity)
	if t.log == nil {
		t.log = logger.Get()
	}
	return t
}

// Start launches the consumer goroutines. Idempotent.
func (t *Trail) Start(ctx context.Context) {
	t.mu.Lock()
	if t.started {
		t.mu.Unlock()
		return
	}
	t.started = true
	t.mu.Unlock()

	ctx, t.cancel = context.WithCancel(ctx)
	for i := 0; i < t.workers; i++ {
		t.wg.Add(1)
		go t.consume(ctx)
	}
}

// Stop drains in-flight workers and closes the queue.
func (t *Trail) Stop() {
	t.mu.Lock()
	if !t.started {
		t.mu.Unlock()
		return
	}
	t.started = false
	t.mu.Unlock()

	if t.cancel != nil {
		t.cancel()
	}
	t.wg.Wait()
}

// Record enqueues an outcome without blocking. Returns false when the queue
// is full; the record is counted as dropped.
func (t *Trail) Record(_ context.Context, r Record) bool {
	select {
	case t.queue <- r:
		metrics.UpdateAuditQueueSize(len(t.queue))
		return true
	default:
		t.mu.Lock()
		t.dropped++
		t.mu.Unlock()
		metrics.RecordAuditDropped()
		return false
	}
}

// consume applies queued records to the aggregates until the context ends.
func (t *Trail) consume(ctx context.Context) {
	defer t.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case r := <-t.queue:
			t.apply(ctx, r)
			metrics.UpdateAuditQueueSize(len(t.queue))
		}
	}
}

func (t *Trail) apply(ctx context.Context, r Record) {
	t.mu.Lock()
	t.total++
	t.byVerdict[r.Verdict]++
	t.recent = append(t.recent, r)
	if len(t.recent) > t.recentSize {
		t.recent = t.recent[len(t.recent)-t.recentSize:]
	}
	t.mu.Unlock()

	t.log.Debug(ctx, "submission audited",
		logger.Int("question_id", r.QuestionID),
		logger.String("team_id", r.TeamID),
		logger.String("verdict", r.Verdict),
		logger.Float64("score", r.Score),
	)
}

// Snapshot returns the current aggregates.
func (t *Trail) Snapshot() Summary {
	t.mu.Lock()
	defer t.mu.Unlock()

	byVerdict := make(map[string]int64, len(t.byVerdict))
	for k, v := range t.byVerdict {
		byVerdict[k] = v
	}
	recent := append([]Record(nil), t.recent...)
	return Summary{
		Total:     t.total,
		ByVerdict: byVerdict,
		Recent:    recent,
		QueueLen:  len(t.queue),
		Dropped:   t.dropped,
	}
}
