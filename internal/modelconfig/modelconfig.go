// Package modelconfig loads the static configuration shipped with the model
// package: file names the serving code needs and the training parameters the
// pipeline was built with.
//
// The configuration is read once at startup and passed by pointer to the
// components that need it; nothing in this package holds it globally.
package modelconfig

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/okian/churn/internal/domain/schema"
	"gopkg.in/yaml.v3"
)

// Layout of a model package directory.
const (
	FileName         = "config.yml"
	VersionFileName  = "VERSION"
	TrainedModelsDir = "trained_models"
	DatasetsDir      = "datasets"
)

// AppConfig names the package and the files it ships with.
type AppConfig struct {
	PackageName      string
	PipelineSaveFile string
	ClientDataFile   string
	PriceDataFile    string
}

// ModelConfig holds the training parameters of the pipeline.
type ModelConfig struct {
	Target          string
	Features        []string
	RandomState     int
	NumericalVars   []string
	CategoricalVars []string
	TestSize        float64
}

// Config is the full model package configuration.
type Config struct {
	App   AppConfig
	Model ModelConfig
}

// raw mirrors the flat YAML document; pointers detect absent keys.
type raw struct {
	PackageName      *string   `yaml:"package_name"`
	PipelineSaveFile *string   `yaml:"pipeline_save_file"`
	ClientDataFile   *string   `yaml:"client_data_file"`
	PriceDataFile    *string   `yaml:"price_data_file"`
	Target           *string   `yaml:"target"`
	Features         *[]string `yaml:"features"`
	RandomState      *int      `yaml:"random_state"`
	NumericalVars    *[]string `yaml:"numerical_vars"`
	CategoricalVars  *[]string `yaml:"categorical_vars"`
	TestSize         *float64  `yaml:"test_size"`
}

// LoadDir loads FileName from a model package directory.
func LoadDir(dir string) (*Config, error) {
	return Load(filepath.Join(dir, FileName))
}

// Load reads and validates the YAML file at path. Keys the document does not
// require are ignored.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("model config: read %q: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates a model package configuration document.
func Parse(data []byte) (*Config, error) {
	var r raw
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfigInvalid, err)
	}
	if missing := r.missing(); len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing required keys: %s", ErrConfigInvalid, strings.Join(missing, ", "))
	}

	cfg := &Config{
		App: AppConfig{
			PackageName:      *r.PackageName,
			PipelineSaveFile: *r.PipelineSaveFile,
			ClientDataFile:   *r.ClientDataFile,
			PriceDataFile:    *r.PriceDataFile,
		},
		Model: ModelConfig{
			Target:          *r.Target,
			Features:        *r.Features,
			RandomState:     *r.RandomState,
			NumericalVars:   *r.NumericalVars,
			CategoricalVars: *r.CategoricalVars,
			TestSize:        *r.TestSize,
		},
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (r raw) missing() []string {
	var out []string
	check := func(key string, present bool) {
		if !present {
			out = append(out, key)
		}
	}
	check("package_name", r.PackageName != nil)
	check("pipeline_save_file", r.PipelineSaveFile != nil)
	check("client_data_file", r.ClientDataFile != nil)
	check("price_data_file", r.PriceDataFile != nil)
	check("target", r.Target != nil)
	check("features", r.Features != nil)
	check("random_state", r.RandomState != nil)
	check("numerical_vars", r.NumericalVars != nil)
	check("categorical_vars", r.CategoricalVars != nil)
	check("test_size", r.TestSize != nil)
	return out
}

func (c *Config) validate() error {
	if len(c.Model.Features) == 0 {
		return fmt.Errorf("%w: features must not be empty", ErrConfigInvalid)
	}
	var unknown []string
	for _, f := range c.Model.Features {
		if _, ok := schema.Lookup(f); !ok {
			unknown = append(unknown, f)
		}
	}
	if len(unknown) > 0 {
		return fmt.Errorf("%w: features not in row schema: %s", ErrConfigInvalid, strings.Join(unknown, ", "))
	}
	if c.Model.TestSize <= 0 || c.Model.TestSize >= 1 {
		return fmt.Errorf("%w: test_size %v outside (0, 1)", ErrConfigInvalid, c.Model.TestSize)
	}
	if strings.TrimSpace(c.App.PipelineSaveFile) == "" {
		return fmt.Errorf("%w: pipeline_save_file must not be empty", ErrConfigInvalid)
	}
	return nil
}

// PipelinePath returns the artifact location inside the package directory.
func (c *Config) PipelinePath(dir string) string {
	return filepath.Join(dir, TrainedModelsDir, c.App.PipelineSaveFile)
}

// DatasetPaths returns the client and price data locations inside the
// package directory.
func (c *Config) DatasetPaths(dir string) (client, price string) {
	return filepath.Join(dir, DatasetsDir, c.App.ClientDataFile),
		filepath.Join(dir, DatasetsDir, c.App.PriceDataFile)
}

// ReadVersion returns the trimmed contents of the package VERSION file.
func ReadVersion(dir string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, VersionFileName))
	if err != nil {
		return "", fmt.Errorf("model version: %w", err)
	}
	v := strings.TrimSpace(string(data))
	if v == "" {
		return "", fmt.Errorf("model version: %s is empty", VersionFileName)
	}
	return v, nil
}
