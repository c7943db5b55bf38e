package gateway

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrOpen          = errors.New("open input failed")
	ErrHeader        = errors.New("read csv header failed")
	ErrMissingColumn = errors.New("missing required csv column")
	ErrWrite         = errors.New("write output failed")
)
