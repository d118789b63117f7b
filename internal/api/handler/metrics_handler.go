package handler

import (
	"net/http"

	"github.com/waitline/waitline/internal/dispatch"
)

// MetricsHandler serves a human-readable JSON snapshot of the dispatch
// queue depths. Raw Prometheus metrics (counters, histograms) are
// available at /metrics via promhttp and are separate from this endpoint.
type MetricsHandler struct {
	q *dispatch.Queue
}

func NewMetricsHandler(q *dispatch.Queue) *MetricsHandler {
	return &MetricsHandler{q: q}
}

// GetMetrics handles GET /api/v1/metrics
//
// @Summary  Real-time dispatch queue depth snapshot
// @Tags     metrics
// @Produce  json
// @Success  200  {object}  map[string]any
// @Router   /api/v1/metrics [get]
func (h *MetricsHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	urgent, normal := h.q.Depths()
	respondJSON(w, http.StatusOK, map[string]any{
		"dispatch_depth": map[string]int{
			"urgent": urgent,
			"normal": normal,
			"total":  urgent + normal,
		},
	})
}
