// Package pipeline defines the prediction capability and the persisted
// artifact that implements it.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"

	"github.com/okian/churn/internal/domain/schema"
	"github.com/okian/churn/internal/domain/table"
)

const defaultThreshold = 0.5

// Pipeline turns validated feature rows into churn labels, one per row, each
// 0 or 1.
type Pipeline interface {
	Predict(ctx context.Context, batch table.Table) ([]int, error)
}

// PredictFunc adapts a function to Pipeline.
type PredictFunc func(ctx context.Context, batch table.Table) ([]int, error)

// Predict calls f.
func (f PredictFunc) Predict(ctx context.Context, batch table.Table) ([]int, error) {
	return f(ctx, batch)
}

// NumericalStep imputes, scales and weights one numerical feature.
type NumericalStep struct {
	Feature     string  `json:"feature"`
	Impute      float64 `json:"impute"`
	Mean        float64 `json:"mean"`
	Scale       float64 `json:"scale"`
	Coefficient float64 `json:"coefficient"`
}

// CategoricalStep imputes and one-hot encodes one categorical feature.
// Categories without a coefficient encode to all zeros.
type CategoricalStep struct {
	Feature      string             `json:"feature"`
	Impute       string             `json:"impute"`
	Coefficients map[string]float64 `json:"coefficients"`
}

// document is the persisted JSON form of an Artifact.
type document struct {
	Name        string            `json:"name"`
	Version     string            `json:"version"`
	Target      string            `json:"target"`
	Intercept   float64           `json:"intercept"`
	Threshold   float64           `json:"threshold"`
	Numerical   []NumericalStep   `json:"numerical"`
	Categorical []CategoricalStep `json:"categorical"`
}

// Artifact is a trained imputation, encoding and logistic scoring pipeline
// loaded from disk. It is read-only after Load and safe for concurrent use.
type Artifact struct {
	name        string
	version     string
	target      string
	intercept   float64
	threshold   float64
	numerical   []NumericalStep
	categorical []CategoricalStep
}

// Load reads and validates the artifact at path.
func Load(path string, opts ...Option) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrArtifactNotFound, path)
		}
		return nil, fmt.Errorf("pipeline: read %q: %w", path, err)
	}
	return Parse(data, opts...)
}

// Parse decodes an artifact document.
func Parse(data []byte, opts ...Option) (*Artifact, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrArtifactInvalid, err)
	}
	if err := doc.validate(); err != nil {
		return nil, err
	}

	a := &Artifact{
		name:        doc.Name,
		version:     doc.Version,
		target:      doc.Target,
		intercept:   doc.Intercept,
		threshold:   doc.Threshold,
		numerical:   doc.Numerical,
		categorical: doc.Categorical,
	}
	if a.threshold == 0 {
		a.threshold = defaultThreshold
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

func (d document) validate() error {
	if len(d.Numerical)+len(d.Categorical) == 0 {
		return fmt.Errorf("%w: no steps", ErrArtifactInvalid)
	}
	if d.Threshold < 0 || d.Threshold >= 1 {
		return fmt.Errorf("%w: threshold %v outside [0, 1)", ErrArtifactInvalid, d.Threshold)
	}
	seen := make(map[string]struct{})
	check := func(feature string) error {
		if feature == "" {
			return fmt.Errorf("%w: step without feature", ErrArtifactInvalid)
		}
		if _, dup := seen[feature]; dup {
			return fmt.Errorf("%w: duplicate feature %q", ErrArtifactInvalid, feature)
		}
		seen[feature] = struct{}{}
		return nil
	}
	for _, s := range d.Numerical {
		if err := check(s.Feature); err != nil {
			return err
		}
		if s.Scale == 0 || math.IsNaN(s.Scale) {
			return fmt.Errorf("%w: feature %q has zero scale", ErrArtifactInvalid, s.Feature)
		}
	}
	for _, s := range d.Categorical {
		if err := check(s.Feature); err != nil {
			return err
		}
	}
	return nil
}

// Name returns the artifact name.
func (a *Artifact) Name() string { return a.name }

// Version returns the version the artifact was trained as.
func (a *Artifact) Version() string { return a.version }

// Target returns the label column the artifact was trained on.
func (a *Artifact) Target() string { return a.target }

// Threshold returns the decision threshold in effect.
func (a *Artifact) Threshold() float64 { return a.threshold }

// Features returns the input columns the artifact reads.
func (a *Artifact) Features() []string {
	out := make([]string, 0, len(a.numerical)+len(a.categorical))
	for _, s := range a.numerical {
		out = append(out, s.Feature)
	}
	for _, s := range a.categorical {
		out = append(out, s.Feature)
	}
	return out
}

// Predict labels each row 1 when its churn probability reaches the threshold.
func (a *Artifact) Predict(ctx context.Context, batch table.Table) ([]int, error) {
	probs, err := a.Probabilities(ctx, batch)
	if err != nil {
		return nil, err
	}
	labels := make([]int, len(probs))
	for i, p := range probs {
		if p >= a.threshold {
			labels[i] = 1
		}
	}
	return labels, nil
}

// Probabilities returns the churn probability of each row. Missing or
// unparseable numerical values are imputed; a feature column absent from the
// table is an error.
func (a *Artifact) Probabilities(ctx context.Context, batch table.Table) ([]float64, error) {
	for _, f := range a.Features() {
		if !batch.HasColumn(f) {
			return nil, fmt.Errorf("%w: %s", ErrMissingInput, f)
		}
	}

	out := make([]float64, batch.Len())
	for i, rec := range batch.Records {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("pipeline: %w", err)
		}
		z := a.intercept
		for _, s := range a.numerical {
			x, ok := schema.CoerceFloat(rec[s.Feature])
			if !ok || math.IsNaN(x) || math.IsInf(x, 0) {
				x = s.Impute
			}
			z += s.Coefficient * (x - s.Mean) / s.Scale
		}
		for _, s := range a.categorical {
			c, ok := schema.CoerceString(rec[s.Feature])
			if !ok || c == "" {
				c = s.Impute
			}
			z += s.Coefficients[c]
		}
		out[i] = sigmoid(z)
	}
	return out, nil
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
