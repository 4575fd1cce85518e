// Package httptransport is the thin HTTP layer. Handlers decode, delegate
// to domain services, and encode; business rules stay out of this package.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"bloodlink/internal/disaster"
	"bloodlink/internal/inventory"
	"bloodlink/internal/matching"
	"bloodlink/internal/platform/metrics"
	"bloodlink/internal/platform/middleware"
	"bloodlink/internal/request"
)

// Handler bundles the domain services the routes delegate to.
type Handler struct {
	logger    *slog.Logger
	metrics   *metrics.Metrics
	requests  *request.Service
	inventory *inventory.Service
	matching  *matching.Service
	disaster  *disaster.Service
}

func NewHandler(
	requests *request.Service,
	inventorySvc *inventory.Service,
	matchingSvc *matching.Service,
	disasterSvc *disaster.Service,
	logger *slog.Logger,
	m *metrics.Metrics,
) *Handler {
	return &Handler{
		logger:    logger,
		metrics:   m,
		requests:  requests,
		inventory: inventorySvc,
		matching:  matchingSvc,
		disaster:  disasterSvc,
	}
}

// NewRouter wires all public endpoints behind the shared middleware chain.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(h.logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(h.logger))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.ContentTypeJSON)
	r.Use(h.observe)

	r.Get("/healthz", h.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/requests", h.handleCreateRequest)
	r.Get("/requests/{requestID}", h.handleGetRequest)
	r.Get("/requests/{requestID}/donors", h.handleRankDonors)
	r.Post("/requests/{requestID}/accept", h.handleAccept)
	r.Post("/requests/{requestID}/cancel-acceptance", h.handleCancelAcceptance)
	r.Post("/requests/{requestID}/cancel", h.handleCancelRequest)
	r.Post("/requests/{requestID}/fulfill", h.handleFulfill)

	r.Post("/donors", h.handleRegisterDonor)
	r.Get("/donors/{donorID}/feed", h.handleDonorFeed)

	r.Put("/disaster-mode", h.handleSetDisasterMode)
	r.Get("/disaster-mode", h.handleGetDisasterMode)

	r.Get("/nearby", h.handleNearby)

	return r
}

// observe records per-route latency. The route pattern is resolved after
// serving so path parameters collapse into one label.
func (h *Handler) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		route := chi.RouteContext(r.Context()).RoutePattern()
		h.metrics.ObserveRequest(route, r.Method, time.Since(start))
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
