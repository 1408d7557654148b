package adapters

import (
	"context"
	"sync"
	"time"

	"github.com/architeacher/svc-message-retry/internal/ports"
)

const defaultCheckTimeout = 2 * time.Second

type (
	// DependencyCheck returns nil when the dependency is usable.
	DependencyCheck func(ctx context.Context) error

	// HealthChecker reports liveness from the process itself and readiness from its dependencies.
	HealthChecker struct {
		startTime time.Time
		timeout   time.Duration
		checks    map[string]DependencyCheck
	}
)

func NewHealthChecker(checks map[string]DependencyCheck) *HealthChecker {
	return &HealthChecker{
		startTime: time.Now(),
		timeout:   defaultCheckTimeout,
		checks:    checks,
	}
}

func (h *HealthChecker) CheckLiveness(_ context.Context) ports.HealthReport {
	return ports.HealthReport{
		Status: ports.HealthStatusAlive,
		Uptime: time.Since(h.startTime).Seconds(),
	}
}

// CheckReadiness runs every dependency check concurrently. One failing check makes the service not ready.
func (h *HealthChecker) CheckReadiness(ctx context.Context) ports.HealthReport {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)

	report := ports.HealthReport{
		Status:       ports.HealthStatusReady,
		Dependencies: make(map[string]ports.DependencyStatus, len(h.checks)),
		Uptime:       time.Since(h.startTime).Seconds(),
	}

	for name, check := range h.checks {
		wg.Go(func() {
			status := runCheck(ctx, check)

			mu.Lock()
			defer mu.Unlock()

			report.Dependencies[name] = status
			if status.Status == ports.DependencyStatusUnhealthy {
				report.Status = ports.HealthStatusNotReady
			}
		})
	}

	wg.Wait()

	return report
}

func runCheck(ctx context.Context, check DependencyCheck) ports.DependencyStatus {
	start := time.Now()
	err := check(ctx)

	status := ports.DependencyStatus{
		Status:       ports.DependencyStatusHealthy,
		ResponseTime: float64(time.Since(start).Microseconds()) / 1000,
	}

	if err != nil {
		status.Status = ports.DependencyStatusUnhealthy
		status.Error = err.Error()
	}

	return status
}
