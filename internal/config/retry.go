package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/architeacher/svc-message-retry/pkg/errkind"
	"github.com/architeacher/svc-message-retry/pkg/processor"
	"github.com/architeacher/svc-message-retry/pkg/processor/retry"
	"github.com/architeacher/svc-message-retry/pkg/processor/throttle"
)

// Options returns the raw retry options consumed by the processor stack.
func (c RetryConfig) Options() (processor.Options, error) {
	levels, err := parseLevelRules(c.LogLevels)
	if err != nil {
		return nil, fmt.Errorf("RETRY_LOG_LEVELS: %w", err)
	}

	failLevels, err := parseLevelRules(c.FailLogLevels)
	if err != nil {
		return nil, fmt.Errorf("RETRY_FAIL_LOG_LEVELS: %w", err)
	}

	return processor.Options{
		retry.OptionAttempts:         c.Attempts,
		retry.OptionKeyPattern:       c.KeyPattern,
		retry.OptionLogLevelsMap:     levels,
		retry.OptionFailLogLevelsMap: failLevels,
	}, nil
}

// DelayFor returns the delay before the given attempt. Attempts past the
// configured list reuse the last delay.
func (c RetryConfig) DelayFor(attempt int) time.Duration {
	if len(c.Delays) == 0 || attempt < 1 {
		return 0
	}

	if attempt > len(c.Delays) {
		return c.Delays[len(c.Delays)-1]
	}

	return c.Delays[attempt-1]
}

// TopologyDelays returns one delay per attempt.
func (c RetryConfig) TopologyDelays() []time.Duration {
	delays := make([]time.Duration, 0, c.Attempts)
	for attempt := 1; attempt <= c.Attempts; attempt++ {
		delays = append(delays, c.DelayFor(attempt))
	}

	return delays
}

// ProcessorOptions merges the options of every configured processor layer.
func (c *ServiceConfig) ProcessorOptions() (processor.Options, error) {
	options, err := c.Retry.Options()
	if err != nil {
		return nil, err
	}

	if c.Throttle.Enabled {
		options[throttle.OptionMaxMessagesPerSecond] = c.Throttle.MaxMessagesPerSecond
	}

	return options, nil
}

func parseLevelRules(pairs []string) (retry.LevelMap, error) {
	rules := make(retry.LevelMap, 0, len(pairs))

	for _, pair := range pairs {
		kind, level, ok := strings.Cut(strings.TrimSpace(pair), ":")
		if !ok || kind == "" {
			return nil, fmt.Errorf("expected kind:level, got %q", pair)
		}

		parsed, err := processor.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("kind %q: %w", kind, err)
		}

		rules = append(rules, retry.LevelRule{Kind: errkind.Kind(strings.TrimSpace(kind)), Level: parsed})
	}

	return rules, nil
}
