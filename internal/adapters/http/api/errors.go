package api

import "errors"

// Sentinel kinds for API errors.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrRunsDisabled = errors.New("runs are not enabled on this server")
)
