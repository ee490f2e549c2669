package handlers

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/upb/genai-gateway/utils"
)

// readinessTimeout bounds the store ping during a readiness check.
const readinessTimeout = 2 * time.Second

// StorePinger reports whether the usage store is reachable
type StorePinger interface {
	Ping(ctx context.Context) error
}

// HealthResponse is the liveness payload
type HealthResponse struct {
	Status string `json:"status"`
	Env    string `json:"env"`
}

// ReadinessResponse reports per-dependency readiness checks
type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// HealthHandler handles health-related HTTP requests
type HealthHandler struct {
	store  StorePinger
	env    string
	logger *zap.Logger
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(store StorePinger, env string, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		store:  store,
		env:    env,
		logger: logger,
	}
}

// HandleHealth handles GET /health
// Liveness only: returns 200 whenever the process is serving.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	_ = utils.WriteJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Env:    h.env,
	})
}

// HandleReadiness handles GET /health/ready
// Verifies the usage store is reachable before reporting ready.
func (h *HealthHandler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	checks := make(map[string]string)
	status := "ready"
	httpStatus := http.StatusOK

	if h.store == nil {
		checks["store"] = "not_initialized"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else if err := h.store.Ping(ctx); err != nil {
		h.logger.Warn("usage store health check failed", zap.Error(err))
		checks["store"] = "unhealthy"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["store"] = "healthy"
	}

	if err := utils.WriteJSON(w, httpStatus, ReadinessResponse{
		Status: status,
		Checks: checks,
	}); err != nil {
		h.logger.Error("failed to write readiness response", zap.Error(err))
	}
}
