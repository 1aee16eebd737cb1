package model

import "errors"

// Sentinel kinds for model errors.
var (
	// ErrUnsupportedTaskType indicates a task type outside {KIS, QA, TR},
	// which means the ground-truth data or configuration is inconsistent.
	ErrUnsupportedTaskType = errors.New("unsupported task type")
)
