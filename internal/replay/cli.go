package replay

import "os"

// ShowHelp prints usage information for the replay tool.
func ShowHelp() {
	_, _ = os.Stdout.WriteString(`Churn Replay Tool
=================

Posts the client dataset of a model package to a running prediction service
in concurrent batches and compares the predictions with the known targets.

Usage:
  go run ./cmd/churn-client [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:8001")
  -prefix string
        API prefix (default "/api/v1")
  -model string
        Model package directory (default "model")
  -batch int
        Rows per request (default 100)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -limit int
        Replay at most this many rows (default 0, all rows)
  -timeout duration
        HTTP request timeout (default 30s)
  -output string
        Write per-row results to this JSON file
  -log-format string
        Log format, text or json (default "text")
  -verbose
        Log every batch
  -help
        Show this help message

Examples:
  # Replay the shipped dataset against a local service
  go run ./cmd/churn-client

  # Small batches, many workers, keep the results
  go run ./cmd/churn-client -batch 10 -workers 16 -output out/results.json
`)
}
