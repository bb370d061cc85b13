// Package handler provides HTTP handlers for the Touch Grass API.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/touchgrass/touchgrass/internal/api/models"
	"github.com/touchgrass/touchgrass/internal/api/response"
	"github.com/touchgrass/touchgrass/internal/backend"
	"github.com/touchgrass/touchgrass/internal/resilience"
)

// BackendChecker checks the route backend.
type BackendChecker interface {
	Health(ctx context.Context) (backend.Health, error)
}

// OpsConfig holds the dependencies of the ops endpoints.
type OpsConfig struct {
	Version   string
	BuildTime string

	// Backend is checked by the status endpoint (optional).
	Backend BackendChecker

	// Monitor reports upstream circuit breakers (optional).
	Monitor *resilience.Monitor

	// CheckTimeout bounds the backend check. Default: 3 seconds
	CheckTimeout time.Duration
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	cfg OpsConfig
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(cfg OpsConfig) *OpsHandler {
	if cfg.CheckTimeout == 0 {
		cfg.CheckTimeout = 3 * time.Second
	}
	return &OpsHandler{cfg: cfg}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]interface{}{
			"version":   h.cfg.Version,
			"buildTime": h.cfg.BuildTime,
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// SystemStatus handles GET /v1/ops/status - backend reachability and the
// state of every upstream circuit breaker. An unreachable backend is
// reported as degraded, not as a failure of this service.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	status := models.SystemStatus{
		Status:    models.HealthStatusOK,
		Time:      models.Timestamp(time.Now()),
		Upstreams: []models.UpstreamStatus{},
	}

	if h.cfg.Backend != nil {
		ctx, cancel := context.WithTimeout(r.Context(), h.cfg.CheckTimeout)
		defer cancel()

		bh, err := h.cfg.Backend.Health(ctx)
		if err != nil {
			msg := err.Error()
			status.Backend = models.BackendStatus{Message: &msg}
			status.Status = models.HealthStatusDegraded
		} else {
			status.Backend = models.BackendStatus{
				Reachable:  true,
				Status:     bh.Status,
				Configured: bh.Configured,
			}
		}
	}

	if h.cfg.Monitor != nil {
		for _, u := range h.cfg.Monitor.All() {
			us := models.UpstreamStatus{
				Name:                u.Name,
				Status:              healthStatus(u.Status()),
				CircuitState:        u.State.String(),
				Requests:            u.Counts.Requests,
				ConsecutiveFailures: u.Counts.ConsecutiveFailures,
				LastSuccessAt:       models.TimestampPtr(u.LastSuccessAt),
				LastFailureAt:       models.TimestampPtr(u.LastFailureAt),
			}
			if u.LastError != "" {
				msg := u.LastError
				us.Message = &msg
			}
			status.Upstreams = append(status.Upstreams, us)
		}
		if overall := healthStatus(h.cfg.Monitor.Overall()); overall != models.HealthStatusOK {
			status.Status = overall
		}
	}

	response.JSON(w, r, http.StatusOK, status)
}

func healthStatus(s string) models.HealthStatus {
	switch s {
	case resilience.StatusUnhealthy:
		return models.HealthStatusFail
	case resilience.StatusDegraded:
		return models.HealthStatusDegraded
	}
	return models.HealthStatusOK
}
