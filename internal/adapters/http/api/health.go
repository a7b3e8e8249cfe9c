package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	service "github.com/okian/churn/internal/app"
	"github.com/okian/churn/pkg/metrics"
)

// HealthProvider reports static service metadata.
type HealthProvider interface {
	Health() service.Health
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	provider HealthProvider
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(provider HealthProvider) *HealthHandler {
	return &HealthHandler{provider: provider}
}

// HandleHealth handles GET /health requests.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.provider.Health())
}

// MetricsHandler serves the custom metrics registry.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{})
}
