package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/churn/internal/replay"
	"github.com/okian/churn/pkg/logger"
)

// Default configuration constants.
const (
	defaultBatchSize  = 100
	defaultWorkers    = 2 // multiplier for runtime.NumCPU()
	defaultTimeout    = 30 * time.Second
	defaultRunTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL    = flag.String("url", "http://localhost:8001", "Base URL of the service")
		prefix     = flag.String("prefix", "/api/v1", "API prefix")
		modelDir   = flag.String("model", "model", "Model package directory")
		batchSize  = flag.Int("batch", defaultBatchSize, "Rows per request")
		workers    = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		limit      = flag.Int("limit", 0, "Replay at most this many rows (0 means all)")
		timeout    = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		outputFile = flag.String("output", "", "Write per-row results to this JSON file")
		logFormat  = flag.String("log-format", "text", "Log format: text or json")
		verbose    = flag.Bool("verbose", false, "Log every batch")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		replay.ShowHelp()
		return
	}

	if err := logger.Init(logger.WithFormat(*logFormat)); err != nil {
		_, _ = os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	if *verbose {
		_ = logger.SetLevelString("debug")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, defaultRunTimeout)
	defer cancel()

	config := &replay.Config{
		BaseURL:    *baseURL,
		APIPrefix:  *prefix,
		ModelDir:   *modelDir,
		BatchSize:  max(*batchSize, 1),
		Workers:    max(*workers, 1),
		Limit:      *limit,
		Timeout:    *timeout,
		OutputFile: *outputFile,
		Verbose:    *verbose,
	}

	if _, err := replay.Run(ctx, config); err != nil {
		logger.Get().Error(ctx, "replay failed", logger.Error(err))
		cancel()
		stop()
		os.Exit(1)
	}
}
