package pipeline

// Option applies a configuration option to an Artifact.
type Option func(*Artifact)

// WithThreshold overrides the persisted decision threshold.
func WithThreshold(threshold float64) Option {
	return func(a *Artifact) {
		if threshold > 0 && threshold < 1 {
			a.threshold = threshold
		}
	}
}
