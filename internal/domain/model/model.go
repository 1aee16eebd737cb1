// Package model contains domain models passed between layers.
package model

import "fmt"

// TaskType identifies the kind of retrieval question being scored.
type TaskType string

// Supported task types.
const (
	// TaskKIS is single-moment retrieval; every ground-truth event must be matched.
	TaskKIS TaskType = "KIS"
	// TaskQA is KIS-like with a mandatory exact-text answer gate.
	TaskQA TaskType = "QA"
	// TaskTR is multi-event retrieval (TRAKE) with partial-credit bands.
	TaskTR TaskType = "TR"
)

// Valid reports whether t is one of the supported task types.
func (t TaskType) Valid() bool {
	switch t {
	case TaskKIS, TaskQA, TaskTR:
		return true
	}
	return false
}

// ParseTaskType converts a raw string (as found in ground-truth files)
// into a TaskType.
func ParseTaskType(s string) (TaskType, error) {
	t := TaskType(s)
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedTaskType, s)
	}
	return t, nil
}

// Event is a ground-truth interval derived from a pair of points.
// Start <= End always holds after validation.
type Event struct {
	Start int
	End   int
}

// GroundTruth is the per-question answer key. Immutable after load.
type GroundTruth struct {
	QuestionID int
	Type       TaskType
	SceneID    string
	VideoID    string
	// Points is an even-length, ascending sequence. Consecutive pairs form events.
	Points []int
	// Answer is the exact answer text required for QA questions; empty otherwise.
	Answer string
}

// Events groups Points pairwise into (start, end) intervals.
func (g GroundTruth) Events() []Event {
	events := make([]Event, 0, len(g.Points)/2)
	for i := 0; i+1 < len(g.Points); i += 2 {
		events = append(events, Event{Start: g.Points[i], End: g.Points[i+1]})
	}
	return events
}

// EventCount returns the number of ground-truth events.
func (g GroundTruth) EventCount() int {
	return len(g.Points) / 2
}

// NormalizedSubmission is the canonical submission shape consumed by the
// scoring pipeline. Produced once per request by the normalizer and discarded
// after scoring.
type NormalizedSubmission struct {
	QuestionID int
	Type       TaskType
	SceneID    string
	VideoID    string
	// Values are milliseconds for KIS/QA and frame indices for TR.
	Values []int
	// Answer carries the QA answer text when present.
	Answer string
}

// ScoringParams holds the competition formula parameters for one question.
// TimeLimit and BufferTime are in seconds.
type ScoringParams struct {
	PMax       float64
	PBase      float64
	PPenalty   float64
	TimeLimit  float64
	BufferTime float64
}

// Default parameter values used when a question is started without overrides.
const (
	DefaultPMax       = 100.0
	DefaultPBase      = 50.0
	DefaultPPenalty   = 10.0
	DefaultTimeLimit  = 300.0
	DefaultBufferTime = 10.0
)

// DefaultScoringParams returns the process-wide default parameters.
func DefaultScoringParams() ScoringParams {
	return ScoringParams{
		PMax:       DefaultPMax,
		PBase:      DefaultPBase,
		PPenalty:   DefaultPPenalty,
		TimeLimit:  DefaultTimeLimit,
		BufferTime: DefaultBufferTime,
	}
}
