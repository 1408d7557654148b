package middleware

import (
	"context"
	"net/http"
)

// HealthCheckFilter keeps probe and scrape requests out of the access log.
type HealthCheckFilter struct {
	quietEndpoints  map[string]struct{}
	logHealthChecks bool
}

func NewHealthCheckFilter(logHealthChecks bool) *HealthCheckFilter {
	quiet := make(map[string]struct{})
	for _, path := range []string{"/health/live", "/health/ready", "/healthz", "/livez", "/readyz", "/metrics"} {
		quiet[path] = struct{}{}
	}

	return &HealthCheckFilter{
		quietEndpoints:  quiet,
		logHealthChecks: logHealthChecks,
	}
}

func (h *HealthCheckFilter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, quiet := h.quietEndpoints[r.URL.Path]; quiet && !h.logHealthChecks {
			r = r.WithContext(context.WithValue(r.Context(), skipAccessLogKey, true))
		}

		next.ServeHTTP(w, r)
	})
}
