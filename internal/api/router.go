package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/remindhub/reminder-pipeline/internal/api/handler"
	apimw "github.com/remindhub/reminder-pipeline/internal/api/middleware"
	"github.com/remindhub/reminder-pipeline/internal/queue"
	"github.com/remindhub/reminder-pipeline/internal/service"
)

// NewRouter wires the chi router, attaches all middleware, and registers
// every route. It is the single source of truth for the HTTP surface area.
func NewRouter(
	svc *service.EventService,
	store queue.Store,
	reg prometheus.Gatherer,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// --- global middleware (applied to every route) ---
	r.Use(chimw.Recoverer)          // recover panics, return 500
	r.Use(chimw.RealIP)             // trust X-Forwarded-For / X-Real-IP
	r.Use(chimw.RequestSize(1<<20)) // 1 MB max request body
	r.Use(apimw.CorrelationID)      // X-Correlation-ID inject / echo
	r.Use(apimw.RequestLogger(logger))

	// --- handler instances ---
	eh := handler.NewEventHandler(svc, logger)
	dh := handler.NewDeviceHandler(svc, logger)
	qh := handler.NewQueueHandler(store)
	hh := handler.NewHealthHandler()

	// --- routes ---
	r.Get("/health", hh.Health)

	// Raw Prometheus scrape endpoint (for Prometheus server / Grafana)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/events", eh.Create)
		r.Get("/events", eh.List)
		r.Get("/events/{id}", eh.GetByID)
		r.Put("/events/{id}", eh.Update)
		r.Delete("/events/{id}", eh.Delete)

		r.Post("/devices", dh.Register)

		// JSON queue snapshot
		r.Get("/metrics", qh.Snapshot)
	})

	return r
}
