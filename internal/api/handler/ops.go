// Package handler provides HTTP handlers for the Skycast API.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/skycast/skycast/internal/api/models"
	"github.com/skycast/skycast/internal/api/response"
	"github.com/skycast/skycast/internal/provider/resilience"
)

// readyTimeout bounds the store ping of the readiness check.
const readyTimeout = 2 * time.Second

// Pinger checks that a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// UpstreamHealthSource reports the health of upstream providers.
type UpstreamHealthSource interface {
	All() []*resilience.UpstreamHealth
}

// OpsHandlerConfig holds the dependencies of OpsHandler.
type OpsHandlerConfig struct {
	Version   string
	BuildTime string

	// Store is pinged by the readiness and status checks.
	Store Pinger

	// Upstreams lists provider health (optional).
	Upstreams UpstreamHealthSource
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version   string
	buildTime string
	store     Pinger
	upstreams UpstreamHealthSource
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(cfg OpsHandlerConfig) *OpsHandler {
	return &OpsHandler{
		version:   cfg.Version,
		buildTime: cfg.BuildTime,
		store:     cfg.Store,
		upstreams: cfg.Upstreams,
	}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]interface{}{
			"version":   h.version,
			"buildTime": h.buildTime,
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// ReadinessCheck handles GET /v1/ops/ready - fails while the weather store is unreachable.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	store := h.storeStatus(r.Context())
	if store.Status != models.HealthStatusOK {
		response.ServiceUnavailable(w, r, "weather store unavailable")
		return
	}

	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
	}
	response.JSON(w, r, http.StatusOK, health)
}

// SystemStatus handles GET /v1/ops/status - store and provider status.
// A failing store fails the system; a failing provider only degrades it,
// since cached weather can still be served.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	store := h.storeStatus(r.Context())

	status := models.SystemStatus{
		Status:     models.HealthStatusOK,
		Time:       models.Timestamp(time.Now()),
		Subsystems: []models.SubsystemStatus{store},
		Providers:  []models.ProviderStatus{},
	}

	if h.upstreams != nil {
		for _, u := range h.upstreams.All() {
			p := models.ProviderStatus{
				Provider:      u.Name,
				Status:        models.HealthStatus(u.Status()),
				CircuitState:  u.CircuitState.String(),
				LastSuccessAt: timestampPtr(u.LastSuccessAt),
				LastFailureAt: timestampPtr(u.LastFailureAt),
			}
			if u.LastError != "" {
				msg := u.LastError
				p.Message = &msg
			}
			if p.Status != models.HealthStatusOK {
				status.Status = models.HealthStatusDegraded
			}
			status.Providers = append(status.Providers, p)
		}
	}

	if store.Status == models.HealthStatusFail {
		status.Status = models.HealthStatusFail
	}

	response.JSON(w, r, http.StatusOK, status)
}

func (h *OpsHandler) storeStatus(ctx context.Context) models.SubsystemStatus {
	s := models.SubsystemStatus{Name: "weather-store", Status: models.HealthStatusOK}
	if h.store == nil {
		return s
	}

	ctx, cancel := context.WithTimeout(ctx, readyTimeout)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		detail := err.Error()
		s.Status = models.HealthStatusFail
		s.Detail = &detail
	}
	return s
}

func timestampPtr(t *time.Time) *models.Timestamp {
	if t == nil {
		return nil
	}
	return models.TimestampPtr(*t)
}
