package service

import "errors"

var (
	// ErrIngest is returned when a required input cannot be read.
	ErrIngest = errors.New("ingest failed")

	// ErrRunInProgress is returned when a run is requested while another is active.
	ErrRunInProgress = errors.New("run already in progress")

	// ErrCancelled is returned with a partial report when the run context
	// ends before every vessel was processed.
	ErrCancelled = errors.New("run cancelled")

	// ErrPublish is returned when the report store rejects a completed run.
	ErrPublish = errors.New("publish run")
)
