package gateway

// Option applies a configuration option to the CSVReader.
type Option func(*CSVReader)

// WithMaxErrors caps the number of drop reasons kept per source. Zero keeps all.
func WithMaxErrors(n int) Option {
	return func(r *CSVReader) {
		if n >= 0 {
			r.maxErrors = n
		}
	}
}
