package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/BenAffleck/ledger-live-common/internal/currency"
	"github.com/BenAffleck/ledger-live-common/internal/tracker"
)

// NewHandler creates the full HTTP handler with routes and middleware.
// Exported for use in tests (e.g., httptest.NewServer).
func NewHandler(trackerSvc *tracker.Service, registry *currency.Registry) http.Handler {
	return newMux(trackerSvc, registry)
}

func newMux(trackerSvc *tracker.Service, registry *currency.Registry) http.Handler {
	h := &handler{
		tracker:  trackerSvc,
		registry: registry,
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", h.health)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /api/v1/pairs", h.listPairs)
	mux.HandleFunc("GET /api/v1/rate", h.getRate)
	mux.HandleFunc("GET /api/v1/convert", h.convert)
	mux.HandleFunc("POST /api/v1/sync", h.triggerSync)

	// Apply middleware stack: recovery -> requestID -> logging
	var handler http.Handler = mux
	handler = logging(handler)
	handler = requestID(handler)
	handler = recovery(handler)

	return handler
}
