package repository

import "errors"

// Sentinel kinds for ground-truth store errors.
var (
	ErrNotFound       = errors.New("question not found")
	ErrOddPointCount  = errors.New("points count must be even")
	ErrUnsortedPoints = errors.New("points must be sorted ascending")
	ErrEmptyTable     = errors.New("no ground truth data loaded")
)
