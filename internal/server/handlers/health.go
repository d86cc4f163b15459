package handlers

import (
	"net/http"
	"time"

	"github.com/agentstation/modelcast/internal/server/response"
)

// HandleHealth handles GET /health.
// @Summary Health check
// @Description Liveness probe
// @Tags health
// @Produce json
// @Success 200 {object} response.Response{data=object}
// @Router /health [get].
func (h *Handlers) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	response.OK(w, map[string]any{
		"status":  "healthy",
		"service": "modelcast",
		"uptime":  time.Since(h.startTime).Round(time.Second).String(),
	})
}

// HandleReady handles GET /ready.
// The service stays ready when the catalog file is unreadable because it
// keeps serving an empty or last good catalog; the status reports degraded.
// @Summary Readiness check
// @Tags health
// @Produce json
// @Success 200 {object} response.Response{data=object}
// @Router /ready [get].
func (h *Handlers) HandleReady(w http.ResponseWriter, _ *http.Request) {
	snap := h.service.Current()

	status := "ready"
	catalogInfo := map[string]any{
		"revision":  snap.Revision,
		"records":   snap.Len(),
		"source":    snap.Source,
		"loaded_at": snap.LoadedAt,
	}
	if snap.Err != nil {
		status = "degraded"
		catalogInfo["error"] = snap.Err.Error()
	}

	response.OK(w, map[string]any{
		"status":      status,
		"catalog":     catalogInfo,
		"subscribers": h.service.SubscriberCount(),
	})
}
