package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/clipstream/backend/internal/container"
)

// healthCheckTimeout bounds the dependency pings so a hung pool cannot stall
// the endpoint.
const healthCheckTimeout = 5 * time.Second

// HealthHandler handles health check requests
type HealthHandler struct {
	container *container.Container
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(container *container.Container) *HealthHandler {
	return &HealthHandler{container: container}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Service   string            `json:"service"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// Check handles GET /health. Each wired dependency is pinged; any failure
// degrades the status and flips the response to 503.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	log := h.container.GetLogger()

	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	status := "healthy"
	checks := make(map[string]string)

	if db := h.container.GetDB(); db != nil {
		if err := db.Health(ctx); err != nil {
			log.WithError(err).Error("Database health check failed")
			checks["database"] = "unhealthy"
			status = "degraded"
		} else {
			checks["database"] = "healthy"
		}
	}

	if redisClient := h.container.GetRedisClient(); redisClient != nil {
		if err := redisClient.Health(ctx); err != nil {
			log.WithError(err).Warn("Redis health check failed")
			checks["redis"] = "unhealthy"
			status = "degraded"
		} else {
			checks["redis"] = "healthy"
		}
	}

	response := HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC(),
		Service:   "clipstream-backend",
		Checks:    checks,
	}

	code := http.StatusOK
	if status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	writeSuccess(w, log, code, response, "")
}
