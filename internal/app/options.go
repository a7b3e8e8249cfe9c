package service

import (
	"github.com/okian/churn/internal/domain/pipeline"
	"github.com/okian/churn/internal/modelconfig"
	"github.com/okian/churn/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithPipeline sets the prediction pipeline.
func WithPipeline(p pipeline.Pipeline) Option {
	return func(s *Service) {
		if p != nil {
			s.pipeline = p
		}
	}
}

// WithModelConfig takes the feature list and package name from the model
// package configuration.
func WithModelConfig(cfg *modelconfig.Config) Option {
	return func(s *Service) {
		if cfg == nil {
			return
		}
		s.features = append([]string(nil), cfg.Model.Features...)
		s.packageName = cfg.App.PackageName
	}
}

// WithFeatures sets the ordered feature list directly.
func WithFeatures(features []string) Option {
	return func(s *Service) {
		if len(features) > 0 {
			s.features = append([]string(nil), features...)
		}
	}
}

// WithModelVersion sets the version reported for predictions and health.
func WithModelVersion(version string) Option {
	return func(s *Service) {
		if version != "" {
			s.modelVersion = version
		}
	}
}

// WithProjectName sets the name reported by Health.
func WithProjectName(name string) Option {
	return func(s *Service) {
		if name != "" {
			s.projectName = name
		}
	}
}

// WithAPIVersion overrides the API version reported by Health.
func WithAPIVersion(version string) Option {
	return func(s *Service) {
		if version != "" {
			s.apiVersion = version
		}
	}
}
