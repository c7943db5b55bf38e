package aggregate

// Default tolerance parameters.
const (
	DefaultVolumeTolerance = 10.0
	DefaultPctTolerance    = 0.0
)

// Option applies a configuration option to the Aggregator.
type Option func(*Aggregator)

// WithVolumeTolerance sets the absolute mismatch above which a day is flagged.
func WithVolumeTolerance(v float64) Option {
	return func(a *Aggregator) {
		if v >= 0 {
			a.volumeTolerance = v
		}
	}
}

// WithPctTolerance sets the percent-of-capacity mismatch above which a day is
// flagged. It only applies to vessels with a known capacity.
func WithPctTolerance(p float64) Option {
	return func(a *Aggregator) {
		if p >= 0 {
			a.pctTolerance = p
		}
	}
}
