package adapters

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/architeacher/svc-message-retry/internal/adapters/middleware"
	"github.com/architeacher/svc-message-retry/internal/ports"
)

// NewOpsRouter serves the liveness and readiness probes and the metrics scrape endpoint.
func NewOpsRouter(
	health ports.HealthChecker,
	metrics http.Handler,
	logger zerolog.Logger,
	logHealthChecks bool,
) http.Handler {
	router := chi.NewRouter()

	router.Use(
		chimiddleware.RequestID,
		chimiddleware.RealIP,
		chimiddleware.Recoverer,
		middleware.NewHealthCheckFilter(logHealthChecks).Middleware,
		middleware.NewAccessLogger(logger).Middleware,
	)

	router.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
		writeReport(w, health.CheckLiveness(r.Context()), http.StatusOK)
	})

	router.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		report := health.CheckReadiness(r.Context())

		status := http.StatusOK
		if report.Status != ports.HealthStatusReady {
			status = http.StatusServiceUnavailable
		}

		writeReport(w, report, status)
	})

	router.Method(http.MethodGet, "/metrics", metrics)

	return router
}

func writeReport(w http.ResponseWriter, report ports.HealthReport, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(report)
}
