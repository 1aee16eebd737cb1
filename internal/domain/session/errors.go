package session

import (
	"errors"
	"fmt"
)

// Sentinel kinds for session errors.
var (
	// ErrUnknownQuestion means no ground truth or no session exists for the id.
	ErrUnknownQuestion = errors.New("unknown question")
	// ErrSessionNotActive means the question is not accepting submissions.
	ErrSessionNotActive = errors.New("question session not active")
)

// NotActiveError reports a rejected submission together with timing
// diagnostics for client display. It matches ErrSessionNotActive via
// errors.Is.
type NotActiveError struct {
	QuestionID int
	// Elapsed, TimeLimit and BufferTime are in seconds. All zero when no
	// session exists at all.
	Elapsed    float64
	TimeLimit  float64
	BufferTime float64
}

func (e *NotActiveError) Error() string {
	return fmt.Sprintf("question %d not active: elapsed=%.2fs limit=%.0fs buffer=%.0fs",
		e.QuestionID, e.Elapsed, e.TimeLimit, e.BufferTime)
}

// Is makes the typed error match the ErrSessionNotActive sentinel.
func (e *NotActiveError) Is(target error) bool {
	return target == ErrSessionNotActive
}
