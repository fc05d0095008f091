package api

import (
	"net/http"
	"time"

	"github.com/postledger/postledger/internal/api/respond"
	"github.com/postledger/postledger/internal/health"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	checker *health.Checker
	store   health.Pinger
}

func NewHealthHandler(checker *health.Checker, store health.Pinger) *HealthHandler {
	return &HealthHandler{checker: checker, store: store}
}

// CheckHealth handles GET /api/health
// Always returns 200; body reports healthy/unhealthy from the cached flag.
func (h *HealthHandler) CheckHealth(w http.ResponseWriter, r *http.Request) {
	status := "unhealthy"
	if h.checker != nil && h.checker.IsHealthy() {
		status = "healthy"
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// CheckStoreHealth handles GET /api/health/db with a live probe.
func (h *HealthHandler) CheckStoreHealth(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		respond.WriteError(w, http.StatusServiceUnavailable, "store not configured")
		return
	}
	ctx, cancel := contextWithProbeTimeout(r)
	defer cancel()
	if err := h.store.HealthPing(ctx); err != nil {
		respond.WriteError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]string{"status": "connected"})
}
