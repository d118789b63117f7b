package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/waitline/waitline/internal/api/handler"
	apimw "github.com/waitline/waitline/internal/api/middleware"
	"github.com/waitline/waitline/internal/business"
	"github.com/waitline/waitline/internal/dispatch"
	"github.com/waitline/waitline/internal/domain"
	"github.com/waitline/waitline/internal/service"
)

// NewRouter wires the chi router, attaches all middleware, and registers
// every route. It is the single source of truth for the HTTP surface area.
func NewRouter(
	svc *service.QueueService,
	businesses business.Store,
	q *dispatch.Queue,
	reg prometheus.Gatherer,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// --- global middleware (applied to every route) ---
	r.Use(chimw.Recoverer)          // recover panics, return 500
	r.Use(chimw.RealIP)             // trust X-Forwarded-For / X-Real-IP
	r.Use(chimw.RequestSize(1 << 20)) // 1 MB max request body
	r.Use(apimw.CorrelationID)      // X-Correlation-ID inject / echo
	r.Use(apimw.RequestLogger(logger))

	// --- handler instances ---
	qh := handler.NewQueueHandler(svc, logger)
	bh := handler.NewBusinessHandler(businesses, svc, logger)
	ph := handler.NewProximityHandler(svc, logger)
	mh := handler.NewMetricsHandler(q)
	hh := handler.NewHealthHandler()

	// --- routes ---
	r.Get("/health", hh.Health)

	// Raw Prometheus scrape endpoint (for Prometheus server / Grafana)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		// Customer surface
		r.Post("/queue/join", qh.Join)
		r.Post("/queue/leave", qh.Leave)
		r.Get("/entries/{id}", qh.Status)

		// Staff dashboard lifecycle actions
		r.Post("/entries/{id}/notify", qh.Advance(domain.StatusNotified))
		r.Post("/entries/{id}/serve", qh.Advance(domain.StatusServing))
		r.Post("/entries/{id}/complete", qh.Advance(domain.StatusDone))
		r.Post("/entries/{id}/skip", qh.Advance(domain.StatusSkipped))

		// Business catalogue
		r.Get("/businesses", bh.List)
		r.Get("/businesses/{id}", bh.Get)
		r.Get("/businesses/{id}/queue", bh.Queue)

		// Proximity alerts
		r.Post("/proximity/evaluate", ph.Evaluate)
		r.Post("/proximity/alerts", ph.Arm)
		r.Delete("/proximity/alerts/{entryId}", ph.Disarm)

		// JSON metrics snapshot
		r.Get("/metrics", mh.GetMetrics)
	})

	return r
}
