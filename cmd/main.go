package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"slices"
	"syscall"
	"time"

	"github.com/okian/churn/internal/adapters/http/api"
	"github.com/okian/churn/internal/adapters/http/site"
	"github.com/okian/churn/internal/adapters/http/swagger"
	app "github.com/okian/churn/internal/app"
	"github.com/okian/churn/internal/config"
	"github.com/okian/churn/internal/domain/pipeline"
	"github.com/okian/churn/internal/modelconfig"
	"github.com/okian/churn/pkg/logger"
	"github.com/okian/churn/pkg/metrics"

	"github.com/go-chi/chi/v5"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 30 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	if err := run(); err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}

func run() error {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	loggerInstance := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	handler, err := buildHandler(ctx, cfg, loggerInstance)
	if err != nil {
		return fmt.Errorf("failed to load model package: %w", err)
	}

	// Start system metrics updater
	go startSystemMetricsUpdater(ctx)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	// Start the HTTP server
	serveErr := make(chan error, 1)
	go func() {
		loggerInstance.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	// Wait for shutdown signal or a listener failure
	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-serveErr:
		runErr = fmt.Errorf("HTTP server failed: %w", runErr)
	}
	loggerInstance.Info(context.Background(), "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		loggerInstance.Error(shutdownCtx, "server shutdown failed", logger.Error(err))
	}

	loggerInstance.Info(shutdownCtx, "server stopped")
	return runErr
}

// buildHandler loads the model package named by cfg and wires the service,
// API routes, docs and welcome page.
func buildHandler(ctx context.Context, cfg *config.Config, log logger.Logger) (http.Handler, error) {
	modelCfg, err := loadModelConfig(cfg)
	if err != nil {
		return nil, err
	}
	version, err := modelconfig.ReadVersion(cfg.ModelDir)
	if err != nil {
		return nil, err
	}
	artifact, err := pipeline.Load(modelCfg.PipelinePath(cfg.ModelDir))
	if err != nil {
		return nil, err
	}
	for _, f := range artifact.Features() {
		if !slices.Contains(modelCfg.Model.Features, f) {
			return nil, fmt.Errorf("%w: pipeline reads %q which is not a configured feature", pipeline.ErrArtifactInvalid, f)
		}
	}

	svc, err := app.New(
		app.WithLogger(log.Named("service")),
		app.WithPipeline(artifact),
		app.WithModelConfig(modelCfg),
		app.WithModelVersion(version),
		app.WithProjectName(cfg.ProjectName),
	)
	if err != nil {
		return nil, err
	}
	log.Info(ctx, "model package loaded",
		logger.String("package", modelCfg.App.PackageName),
		logger.String("version", version),
		logger.String("pipeline", artifact.Name()),
		logger.Int("features", len(modelCfg.Model.Features)),
	)

	home, err := site.New(
		site.WithName(cfg.ProjectName),
		site.WithModelVersion(version),
		site.WithDocsPath("/docs"),
	)
	if err != nil {
		return nil, err
	}

	apiServer := api.NewServer(svc,
		api.WithPrefix(cfg.APIPrefix),
		api.WithCORSOrigins(cfg.CORSOrigins),
		api.WithMaxBodyBytes(cfg.MaxBodyBytes),
		api.WithLogger(log.Named("api")),
	)
	docs := func(ctx context.Context, r chi.Router) {
		swagger.Register(ctx, r,
			swagger.WithDocsPath("/docs"),
			swagger.WithSpecPath(apiServer.Prefix()+"/openapi.yaml"),
			swagger.WithTitle(cfg.ProjectName),
		)
	}
	return apiServer.Router(ctx, home.Register, docs), nil
}

func loadModelConfig(cfg *config.Config) (*modelconfig.Config, error) {
	if cfg.ModelConfigFile != "" {
		return modelconfig.Load(cfg.ModelConfigFile)
	}
	return modelconfig.LoadDir(cfg.ModelDir)
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
