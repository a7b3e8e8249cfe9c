// Package config defines service settings and how they are loaded.
//
// Conventions:
//   - Settings are flat keys so they map one-to-one onto CHURN_ env vars.
//   - New returns a Config populated with defaults; Load layers overrides on top.
//   - Load errors wrap ErrLoadConfig or ErrInvalidConfig.
package config

// Config contains process settings for the prediction service.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8001".
	Addr string `koanf:"addr"`

	// APIPrefix is the path the API routes are mounted under.
	APIPrefix string `koanf:"api_prefix"`

	// ProjectName is reported by the health endpoint and the docs.
	ProjectName string `koanf:"project_name"`

	// ModelDir is the root of the model package (config.yml, VERSION, trained_models).
	ModelDir string `koanf:"model_dir"`

	// ModelConfigFile overrides <ModelDir>/config.yml when set.
	ModelConfigFile string `koanf:"model_config_file"`

	// CORSOrigins lists allowed browser origins.
	CORSOrigins []string `koanf:"cors_origins"`

	// MaxBodyBytes caps the size of a prediction request body.
	MaxBodyBytes int64 `koanf:"max_body_bytes"`
}

// DefaultCORSOrigins returns the origins allowed when none are configured.
func DefaultCORSOrigins() []string {
	return []string{
		"http://localhost:3000",
		"http://localhost:8000",
		"https://localhost:3000",
		"https://localhost:8000",
	}
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:     "info",
		LogFormat:    "text",
		Addr:         ":8001",
		APIPrefix:    "/api/v1",
		ProjectName:  "Predicting customer churn API",
		ModelDir:     "model",
		MaxBodyBytes: 1 << 20,
	}
}
