package detect

import "time"

// Default detector parameters.
const (
	DefaultThreshold             = 0.01
	DefaultLag                   = 3
	DefaultMergeGap              = time.Minute
	DefaultSignificanceThreshold = 0.2
)

// Option applies a configuration option to the Detector.
type Option func(*Detector)

// WithThreshold sets the minimum drop magnitude that counts as draining.
func WithThreshold(threshold float64) Option {
	return func(d *Detector) {
		if threshold >= 0 {
			d.threshold = threshold
		}
	}
}

// WithLag sets how many samples back each reading is diffed against.
func WithLag(lag int) Option {
	return func(d *Detector) {
		if lag > 0 {
			d.lag = lag
		}
	}
}

// WithMergeGap sets the largest gap between two draining samples of the same event.
func WithMergeGap(gap time.Duration) Option {
	return func(d *Detector) {
		if gap >= 0 {
			d.mergeGap = gap
		}
	}
}

// WithSignificanceThreshold sets the volume at which an event counts as significant.
func WithSignificanceThreshold(v float64) Option {
	return func(d *Detector) {
		if v >= 0 {
			d.significance = v
		}
	}
}
