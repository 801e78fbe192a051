package handler

import (
	"net/http"

	"github.com/remindhub/reminder-pipeline/internal/queue"
)

// QueueHandler serves a human-readable JSON queue snapshot.
// Raw Prometheus metrics (counters, histograms) are available at /metrics
// via promhttp.Handler and are separate from this endpoint.
type QueueHandler struct {
	store queue.Store
}

func NewQueueHandler(store queue.Store) *QueueHandler {
	return &QueueHandler{store: store}
}

// Snapshot handles GET /api/v1/metrics
func (h *QueueHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	pending, due, err := h.store.Depths(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "queue depth unavailable")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"queue_depth": map[string]int{
			"pending": pending,
			"due":     due,
		},
	})
}

// HealthHandler serves the liveness probe endpoint.
type HealthHandler struct{}

func NewHealthHandler() *HealthHandler { return &HealthHandler{} }

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
