package reconcile

import (
	"math"
	"time"
)

// Default reconciliation parameters.
const (
	DefaultWindow      = 24 * time.Hour
	DefaultOutlierFrac = 0.3
	// DefaultEpsilon guards the outlier ratio against a near-zero median.
	DefaultEpsilon = 1e-6
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithWindow sets the half-width of the matching window around a ticket date.
func WithWindow(window time.Duration) Option {
	return func(e *Engine) {
		if window >= 0 {
			e.window = window
		}
	}
}

// WithWindowHours is WithWindow expressed in (possibly fractional) hours.
// NaN and values too large for a time.Duration are ignored.
func WithWindowHours(hours float64) Option {
	if !(hours >= 0) || hours >= float64(math.MaxInt64)/float64(time.Hour) {
		return func(*Engine) {}
	}
	return WithWindow(time.Duration(hours * float64(time.Hour)))
}

// WithOutlierFrac sets the relative distance from the median beyond which a
// ticket amount is an outlier.
func WithOutlierFrac(frac float64) Option {
	return func(e *Engine) {
		if frac >= 0 {
			e.outlierFrac = frac
		}
	}
}

// WithEpsilon sets the floor used for the median in the outlier ratio.
func WithEpsilon(eps float64) Option {
	return func(e *Engine) {
		if eps > 0 {
			e.epsilon = eps
		}
	}
}
