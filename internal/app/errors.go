package service

import "errors"

// Sentinel errors returned to the shell adapters.
var (
	ErrNoSession    = errors.New("no video session open")
	ErrMissingLabel = errors.New("event and team labels are required")
	ErrEmptyVideo   = errors.New("video path must not be empty")
	ErrNotStarted   = errors.New("service not started")
)
