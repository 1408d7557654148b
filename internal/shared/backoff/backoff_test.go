package backoff

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/architeacher/svc-message-retry/internal/config"
)

func TestIdlePolling_Backoff(t *testing.T) {
	t.Parallel()

	cfg := config.BackoffConfig{
		BaseDelay:  100 * time.Millisecond,
		Multiplier: 2,
		MaxDelay:   time.Second,
	}

	tests := []struct {
		name     string
		idle     int
		expected time.Duration
	}{
		{name: "first empty poll waits the base delay", idle: 0, expected: 100 * time.Millisecond},
		{name: "negative counts wait the base delay", idle: -1, expected: 100 * time.Millisecond},
		{name: "grows by the multiplier", idle: 1, expected: 200 * time.Millisecond},
		{name: "keeps growing", idle: 3, expected: 800 * time.Millisecond},
		{name: "is capped at the max delay", idle: 10, expected: time.Second},
		{name: "stays capped for long idle periods", idle: 100000, expected: time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, NewIdlePolling(cfg).Backoff(tt.idle))
		})
	}
}

func TestIdlePolling_Jitter(t *testing.T) {
	t.Parallel()

	strategy := NewIdlePolling(config.BackoffConfig{
		BaseDelay:  100 * time.Millisecond,
		Multiplier: 2,
		Jitter:     0.2,
		MaxDelay:   time.Second,
	})

	for range 100 {
		d := strategy.Backoff(2)

		assert.GreaterOrEqual(t, d, 320*time.Millisecond)
		assert.LessOrEqual(t, d, 480*time.Millisecond)

		assert.LessOrEqual(t, strategy.Backoff(10), time.Second, "jitter must not exceed the max delay")
	}
}

func TestNewIdlePolling_SanitizesConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		cfg      config.BackoffConfig
		idle     int
		expected time.Duration
	}{
		{
			name:     "missing base delay",
			cfg:      config.BackoffConfig{Multiplier: 2, MaxDelay: time.Second},
			idle:     0,
			expected: defaultBaseDelay,
		},
		{
			name:     "max delay below the base",
			cfg:      config.BackoffConfig{BaseDelay: 500 * time.Millisecond, Multiplier: 2, MaxDelay: time.Millisecond},
			idle:     3,
			expected: 500 * time.Millisecond,
		},
		{
			name:     "shrinking multiplier keeps the wait constant",
			cfg:      config.BackoffConfig{BaseDelay: 100 * time.Millisecond, Multiplier: 0.5, MaxDelay: time.Second},
			idle:     4,
			expected: 100 * time.Millisecond,
		},
		{
			name:     "negative jitter is ignored",
			cfg:      config.BackoffConfig{BaseDelay: 100 * time.Millisecond, Multiplier: 2, Jitter: -1, MaxDelay: time.Second},
			idle:     1,
			expected: 200 * time.Millisecond,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, NewIdlePolling(tt.cfg).Backoff(tt.idle))
		})
	}
}
