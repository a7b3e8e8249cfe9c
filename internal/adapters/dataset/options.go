package dataset

// Option applies a configuration option to the loader.
type Option func(*loader)

// WithIDColumn sets the column joining client and price rows.
func WithIDColumn(name string) Option {
	return func(l *loader) {
		if name != "" {
			l.idColumn = name
		}
	}
}

// WithDateColumn sets the price column used to pick the latest price row.
func WithDateColumn(name string) Option {
	return func(l *loader) {
		if name != "" {
			l.dateColumn = name
		}
	}
}

// WithTarget sets the label column split out of the client rows.
func WithTarget(name string) Option {
	return func(l *loader) {
		if name != "" {
			l.target = name
		}
	}
}
