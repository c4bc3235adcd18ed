package app

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/odyssey-erp/ledger-archive/internal/observability"
	"github.com/odyssey-erp/ledger-archive/internal/platform/httpx"
	"github.com/odyssey-erp/ledger-archive/jobs"
)

// RouterParams groups dependencies for building the operations router.
type RouterParams struct {
	Logger      *slog.Logger
	Gatherer    prometheus.Gatherer
	JobHandler  *jobs.Handler
	// HTTPMetrics is optional; requests are not observed when nil.
	HTTPMetrics *observability.HTTPMetrics
	// Ready reports whether backing services are reachable.
	Ready       func(r *http.Request) error
}

// NewRouter constructs the chi.Router serving health and metrics endpoints.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RealIP, chimw.RequestID, chimw.Recoverer, chimw.Timeout(15*time.Second))
	r.Use(params.HTTPMetrics.Middleware)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/readyz", func(w http.ResponseWriter, req *http.Request) {
		if params.Ready != nil {
			if err := params.Ready(req); err != nil {
				if params.Logger != nil {
					params.Logger.Warn("readiness check failed", slog.Any("error", err))
				}
				httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrUnavailable, err))
				return
			}
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})

	gatherer := params.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	return r
}
