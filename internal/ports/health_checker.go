package ports

import (
	"context"
)

const (
	HealthStatusAlive    HealthStatus = "alive"
	HealthStatusReady    HealthStatus = "ready"
	HealthStatusNotReady HealthStatus = "not_ready"

	DependencyStatusHealthy   HealthStatus = "healthy"
	DependencyStatusUnhealthy HealthStatus = "unhealthy"
)

type (
	HealthStatus string

	DependencyStatus struct {
		Status       HealthStatus `json:"status"`
		ResponseTime float64      `json:"response_time_ms"`
		Error        string       `json:"error,omitempty"`
	}

	HealthReport struct {
		Status       HealthStatus                `json:"status"`
		Dependencies map[string]DependencyStatus `json:"dependencies,omitempty"`
		Uptime       float64                     `json:"uptime_seconds"`
	}

	HealthChecker interface {
		CheckLiveness(ctx context.Context) HealthReport
		CheckReadiness(ctx context.Context) HealthReport
	}
)
