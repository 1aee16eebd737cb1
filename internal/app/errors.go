package app

import "errors"

// Sentinel kinds for service errors.
var (
	// ErrNoGroundTruth means the service was started without a ground-truth
	// store.
	ErrNoGroundTruth = errors.New("no ground truth store configured")
)
