package repository

import "errors"

// Sentinel kinds for report store errors.
var (
	ErrNoRun         = errors.New("no run has been stored")
	ErrNotConfigured = errors.New("store is not configured")
	ErrStorePath     = errors.New("store path is required")
)
