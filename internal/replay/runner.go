// Package replay posts model package dataset rows to a running prediction
// service in concurrent batches and reports how the predictions compare with
// the known targets.
package replay

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/churn/internal/adapters/dataset"
	"github.com/okian/churn/internal/modelconfig"
	"github.com/okian/churn/pkg/logger"
)

// Run executes a complete replay and returns its statistics.
func Run(ctx context.Context, config *Config) (*Stats, error) {
	stats := &Stats{StartTime: time.Now()}
	log := logger.Get()

	log.Info(ctx, "starting churn replay",
		logger.String("baseURL", config.BaseURL),
		logger.String("modelDir", config.ModelDir),
		logger.Int("batchSize", config.BatchSize),
		logger.Int("workers", config.Workers),
		logger.Int("limit", config.Limit),
		logger.String("timeout", config.Timeout.String()))

	// Step 1: Check service health
	health, err := checkServiceHealth(ctx, config)
	if err != nil {
		return nil, err
	}

	// Step 2: Load the datasets named by the model package
	ds, err := loadDataset(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("dataset load failed: %w", err)
	}
	stats.Rows = ds.Len()

	// Step 3: Submit batches concurrently
	batches := splitBatches(ds, config.BatchSize)
	results := submitBatches(ctx, config, batches, stats)

	// Step 4: Compare predictions with targets
	rows := collectResults(batches, results, stats)

	// Step 5: Save per-row results
	if config.OutputFile != "" {
		if err := saveResults(ctx, config.OutputFile, rows); err != nil {
			log.Warn(ctx, "failed to save results", logger.Error(err))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats, health)

	if err := ctx.Err(); err != nil {
		return stats, fmt.Errorf("replay interrupted: %w", err)
	}
	return stats, nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config) (Health, error) {
	logger.Get().Info(ctx, "checking service health")

	var health Health
	client := newHTTPClient(config.Timeout)
	if err := client.Get(ctx, config.BaseURL+config.APIPrefix+"/health", &health); err != nil {
		return Health{}, fmt.Errorf("%w: %w", ErrUnhealthy, err)
	}

	logger.Get().Info(ctx, "service is healthy",
		logger.String("name", health.Name),
		logger.String("modelVersion", health.ModelVersion))
	return health, nil
}

func loadDataset(ctx context.Context, config *Config) (dataset.Dataset, error) {
	cfg, err := modelconfig.LoadDir(config.ModelDir)
	if err != nil {
		return dataset.Dataset{}, err
	}
	ds, err := dataset.FromModelPackage(ctx, config.ModelDir, cfg)
	if err != nil {
		return dataset.Dataset{}, err
	}
	if config.Limit > 0 && config.Limit < ds.Len() {
		ds = ds.Slice(0, config.Limit)
	}
	if ds.Len() == 0 {
		return dataset.Dataset{}, ErrNoRows
	}
	return ds, nil
}

// collectResults flattens batch results into per-row results and fills the
// prediction counters of stats.
func collectResults(batches []batch, results []batchResult, stats *Stats) []RowResult {
	var rows []RowResult
	for i, b := range batches {
		res := results[i]
		stats.ValidationErrors += res.validationErrors
		// Batches never dispatched after cancellation carry no labels.
		predicted := res.err == nil && len(res.labels) == b.data.Len()
		for j := 0; j < b.data.Len(); j++ {
			row := RowResult{ID: b.data.IDs[j], Target: b.data.Targets[j]}
			if predicted {
				label := res.labels[j]
				row.Label = &label
				if label == 1 {
					stats.PredictedChurn++
				}
				if row.Target != nil {
					stats.Labeled++
					if *row.Target == label {
						stats.Correct++
					}
				}
			}
			rows = append(rows, row)
		}
	}
	return rows
}

// saveResults writes the per-row results as a JSON array.
func saveResults(ctx context.Context, filename string, rows []RowResult) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	if err := os.WriteFile(filename, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}
	logger.Get().Info(ctx, "results saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats logs the final replay statistics.
func displayFinalStats(ctx context.Context, stats *Stats, health Health) {
	var successRate, rowsPerSecond float64
	if stats.BatchesSubmitted > 0 {
		successRate = float64(stats.BatchesSuccessful) / float64(stats.BatchesSubmitted) * PercentageMultiplier
	}
	if stats.Duration > 0 {
		rowsPerSecond = float64(stats.Rows) / stats.Duration.Seconds()
	}

	logger.Get().Info(ctx, "final statistics",
		logger.String("modelVersion", health.ModelVersion),
		logger.Int("rows", stats.Rows),
		logger.Int("batchesSubmitted", stats.BatchesSubmitted),
		logger.Int("batchesSuccessful", stats.BatchesSuccessful),
		logger.Int("batchesFailed", stats.BatchesFailed),
		logger.Int("validationErrors", stats.ValidationErrors),
		logger.Int("predictedChurn", stats.PredictedChurn),
		logger.Float64("accuracy", stats.Accuracy()),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("successRate", successRate),
		logger.Float64("rowsPerSecond", rowsPerSecond))
}
