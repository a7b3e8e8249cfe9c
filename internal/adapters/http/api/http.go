// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	service "github.com/okian/churn/internal/app"
	"github.com/okian/churn/internal/domain/table"
	"github.com/okian/churn/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the service implementation.
type Dependencies interface {
	Predict(ctx context.Context, batch table.Table) (service.Result, error)
	Health() service.Health
}

// Mount attaches additional routes (docs, root page) to the router.
type Mount func(ctx context.Context, r chi.Router)

// Server wires HTTP routes for the prediction API.
type Server struct {
	healthHandler  *HealthHandler
	predictHandler *PredictHandler

	prefix       string
	corsOrigins  []string
	maxBodyBytes int64
	logger       logger.Logger
}

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithPrefix sets the path the API routes are mounted under.
func WithPrefix(prefix string) Option {
	return func(s *Server) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithCORSOrigins sets the browser origins allowed to call the API.
func WithCORSOrigins(origins []string) Option {
	return func(s *Server) {
		if len(origins) > 0 {
			s.corsOrigins = origins
		}
	}
}

// WithMaxBodyBytes caps the size of prediction request bodies.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBodyBytes = n
		}
	}
}

// WithLogger sets a custom logger for the handlers.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		prefix:       "/api/v1",
		maxBodyBytes: 1 << 20,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	s.healthHandler = NewHealthHandler(deps)
	s.predictHandler = NewPredictHandler(deps, s.maxBodyBytes, s.logger)
	return s
}

// Prefix returns the path the API routes are mounted under.
func (s *Server) Prefix() string { return s.prefix }

// Router builds the HTTP handler: shared middleware, API routes under the
// prefix, /metrics, and any extra mounts.
func (s *Server) Router(ctx context.Context, mounts ...Mount) chi.Router {
	r := chi.NewRouter()
	r.Use(RequestIDMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.corsOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{RequestIDHeader},
		AllowCredentials: true,
	}))

	r.Route(s.prefix, func(r chi.Router) {
		r.Get("/health", MetricsMiddleware(s.healthHandler.HandleHealth, "health"))
		r.Post("/predict", MetricsMiddleware(s.predictHandler.HandlePredict, "predict"))
	})
	r.Handle("/metrics", MetricsHandler())

	for _, m := range mounts {
		m(ctx, r)
	}
	return r
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
