package dedupe

// Option applies a configuration option to the in-memory Grouper.
type Option func(*inMemoryGrouper)

// WithSizeHint preallocates room for n distinct keys.
func WithSizeHint(n int) Option {
	return func(g *inMemoryGrouper) {
		if n > 0 {
			g.hint = n
		}
	}
}
