// Package service provides the prediction service that implements the
// dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/okian/churn/internal/domain/pipeline"
	"github.com/okian/churn/internal/domain/table"
	"github.com/okian/churn/internal/domain/validation"
	"github.com/okian/churn/pkg/logger"
	"github.com/okian/churn/pkg/metrics"
)

// Version is the API version reported by Health.
const Version = "0.0.1"

// Result is the outcome of one prediction batch.
type Result struct {
	// Labels holds one label per row, in input order. Nil when no row reached
	// the pipeline.
	Labels []int
	// Errors lists field failures across the batch. Nil when every row conforms.
	Errors validation.ErrorList
	// Version is the model version that produced the labels.
	Version string
}

// Prediction returns the first label, or nil when there are none.
func (r Result) Prediction() *int {
	if len(r.Labels) == 0 {
		return nil
	}
	p := r.Labels[0]
	return &p
}

// Health is static service metadata.
type Health struct {
	Name         string `json:"name"`
	APIVersion   string `json:"api_version"`
	ModelVersion string `json:"model_version"`
}

// Service validates batches and runs them through the prediction pipeline.
// It holds no mutable state and is safe for concurrent use.
type Service struct {
	pipeline     pipeline.Pipeline
	features     []string
	packageName  string
	modelVersion string
	projectName  string
	apiVersion   string

	logger logger.Logger
}

// New constructs a Service. A pipeline and a feature list are required.
func New(opts ...Option) (*Service, error) {
	s := &Service{
		projectName:  "Predicting customer churn API",
		apiVersion:   Version,
		modelVersion: "unknown",
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	if s.pipeline == nil {
		return nil, ErrNoPipeline
	}
	if len(s.features) == 0 {
		return nil, ErrNoFeatures
	}

	metrics.SetModelInfo(s.packageName, s.modelVersion)
	return s, nil
}

// Features returns a copy of the configured feature list.
func (s *Service) Features() []string {
	return append([]string(nil), s.features...)
}

// Health returns static name and version metadata.
func (s *Service) Health() Health {
	return Health{
		Name:         s.projectName,
		APIVersion:   s.apiVersion,
		ModelVersion: s.modelVersion,
	}
}

// Predict validates batch and, when any rows remain, runs the pipeline on
// them. Validation errors are returned as data alongside the labels. A
// batch missing configured feature columns fails with an error wrapping
// table.ErrMissingFeatureColumns; pipeline failures wrap ErrPipelineFault.
func (s *Service) Predict(ctx context.Context, batch table.Table) (Result, error) {
	s.logIgnoredColumns(ctx, batch)

	cleaned, errs, err := validation.Check(s.features, batch)
	if err != nil {
		metrics.RecordBatch(metrics.OutcomeRejected, batch.Len())
		metrics.RecordErrorByType("missing_feature_columns", "high")
		s.logger.Error(ctx, "input does not carry the configured feature columns",
			logger.Int("rows", batch.Len()),
			logger.Error(err),
		)
		return Result{}, err
	}
	for _, d := range errs {
		if len(d.Loc) > 2 {
			if field, ok := d.Loc[2].(string); ok {
				metrics.RecordValidationError(field)
			}
		}
	}
	if len(errs) > 0 {
		s.logger.Debug(ctx, "batch has validation errors",
			logger.Int("errors", len(errs)),
			logger.Any("fields", errs.Fields()),
		)
	}

	result := Result{Errors: errs, Version: s.modelVersion}
	if cleaned.Len() == 0 {
		metrics.RecordBatch(metrics.OutcomeEmpty, 0)
		return result, nil
	}

	start := time.Now()
	labels, err := s.pipeline.Predict(ctx, cleaned)
	metrics.RecordPredictionLatency(float64(time.Since(start).Microseconds()) / 1000)
	if err == nil {
		err = checkLabels(labels, cleaned.Len())
	}
	if err != nil {
		metrics.RecordPipelineFault()
		metrics.RecordBatch(metrics.OutcomeFault, cleaned.Len())
		metrics.RecordErrorByType("pipeline_fault", "high")
		s.logger.Error(ctx, "pipeline failed",
			logger.Int("rows", cleaned.Len()),
			logger.String("model_version", s.modelVersion),
			logger.Error(err),
		)
		return Result{}, fmt.Errorf("%w: %w", ErrPipelineFault, err)
	}

	metrics.RecordPredictions(labels)
	metrics.RecordBatch(metrics.OutcomePredicted, cleaned.Len())
	result.Labels = labels
	return result, nil
}

func checkLabels(labels []int, rows int) error {
	if len(labels) != rows {
		return fmt.Errorf("pipeline returned %d labels for %d rows", len(labels), rows)
	}
	for i, l := range labels {
		if l != 0 && l != 1 {
			return fmt.Errorf("pipeline returned label %d for row %d", l, i)
		}
	}
	return nil
}

// logIgnoredColumns reports record keys outside the feature list. They are
// dropped by projection.
func (s *Service) logIgnoredColumns(ctx context.Context, batch table.Table) {
	known := make(map[string]struct{}, len(s.features))
	for _, f := range s.features {
		known[f] = struct{}{}
	}
	ignored := map[string]struct{}{}
	for _, rec := range batch.Records {
		for k := range rec {
			if _, ok := known[k]; !ok {
				ignored[k] = struct{}{}
			}
		}
	}
	if len(ignored) == 0 {
		return
	}
	keys := make([]string, 0, len(ignored))
	for k := range ignored {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	s.logger.Debug(ctx, "ignoring input keys outside the feature list", logger.Any("keys", keys))
}
