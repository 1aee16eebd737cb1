package normalize

import "errors"

// Sentinel kinds for normalization errors.
var (
	// ErrInvalidPayload indicates the raw answer payload does not match the
	// task's grammar.
	ErrInvalidPayload = errors.New("invalid submission payload")
)
