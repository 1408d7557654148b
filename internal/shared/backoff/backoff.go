// Package backoff spaces out polls of an empty queue.
package backoff

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/architeacher/svc-message-retry/internal/config"
)

const defaultBaseDelay = 100 * time.Millisecond

// IdlePolling grows the wait between polls while a queue stays empty. The
// consumer counts consecutive empty polls and starts over from zero as soon as
// a message arrives, so a busy queue is always polled after BaseDelay at most.
type IdlePolling struct {
	base       time.Duration
	maxDelay   time.Duration
	multiplier float64
	jitter     float64
}

// NewIdlePolling builds the strategy from cfg. A missing base delay falls back
// to 100ms, a max delay below the base is raised to it, a multiplier below 1
// keeps the wait constant and the jitter is clamped to [0, 1].
func NewIdlePolling(cfg config.BackoffConfig) IdlePolling {
	p := IdlePolling{
		base:       cfg.BaseDelay,
		maxDelay:   cfg.MaxDelay,
		multiplier: cfg.Multiplier,
		jitter:     min(max(cfg.Jitter, 0), 1),
	}

	if p.base <= 0 {
		p.base = defaultBaseDelay
	}

	if p.maxDelay < p.base {
		p.maxDelay = p.base
	}

	if p.multiplier < 1 {
		p.multiplier = 1
	}

	return p
}

// Backoff returns the wait after idle consecutive empty polls. The result never
// exceeds the max delay, jitter included.
func (p IdlePolling) Backoff(idle int) time.Duration {
	wait := float64(p.base)
	if idle > 0 {
		wait *= math.Pow(p.multiplier, float64(idle))
	}

	if math.IsInf(wait, 0) || wait > float64(p.maxDelay) {
		wait = float64(p.maxDelay)
	}

	if p.jitter > 0 {
		wait *= 1 + p.jitter*(rand.Float64()*2-1)
	}

	return min(time.Duration(wait), p.maxDelay)
}
