package replay

import (
	"encoding/json"
	"time"
)

// Config holds configuration for a replay run.
type Config struct {
	BaseURL    string        // Base URL of the service
	APIPrefix  string        // Path the API is mounted under
	ModelDir   string        // Model package holding config.yml and datasets
	BatchSize  int           // Rows per predict request
	Workers    int           // Number of concurrent workers
	Limit      int           // Maximum rows to replay; 0 means all
	Timeout    time.Duration // HTTP request timeout
	OutputFile string        // Output file for per-row results
	Verbose    bool          // Log every batch
}

// PredictRequest is the body of POST /predict.
type PredictRequest struct {
	Inputs []map[string]any `json:"inputs"`
}

// PredictResponse is the 200 body of POST /predict.
type PredictResponse struct {
	Predictions *int              `json:"predictions"`
	Labels      []int             `json:"labels"`
	Version     string            `json:"version"`
	Errors      []json.RawMessage `json:"errors"`
}

// Health is the body of GET /health.
type Health struct {
	Name         string `json:"name"`
	APIVersion   string `json:"api_version"`
	ModelVersion string `json:"model_version"`
}

// RowResult is one replayed row and what the service predicted for it.
type RowResult struct {
	ID     string `json:"id"`
	Label  *int   `json:"label"`
	Target *int   `json:"target"`
}

// Stats holds replay statistics.
type Stats struct {
	Rows              int
	BatchesSubmitted  int
	BatchesSuccessful int
	BatchesFailed     int
	ValidationErrors  int
	PredictedChurn    int
	Labeled           int // rows with both a prediction and a known target
	Correct           int // labeled rows where prediction equals target
	StartTime         time.Time
	EndTime           time.Time
	Duration          time.Duration
}

// Accuracy returns Correct/Labeled, or 0 when nothing was labeled.
func (s *Stats) Accuracy() float64 {
	if s.Labeled == 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.Labeled)
}
