package adapters

import (
	"context"
	"errors"

	"github.com/sony/gobreaker"

	"github.com/architeacher/svc-message-retry/internal/config"
	"github.com/architeacher/svc-message-retry/internal/infrastructure"
	"github.com/architeacher/svc-message-retry/pkg/broker"
)

const publisherBreakerName = "retry-publisher"

// BreakerPublisher stops republishing once the broker keeps failing. While the
// breaker is open Publish fails fast with gobreaker.ErrOpenState.
type BreakerPublisher struct {
	publisher broker.MessagePublisher
	breaker   *gobreaker.CircuitBreaker
}

func NewBreakerPublisher(
	publisher broker.MessagePublisher,
	cfg config.CircuitBreakerConfig,
	metrics infrastructure.Metrics,
	logger infrastructure.Logger,
) *BreakerPublisher {
	settings := gobreaker.Settings{
		Name:        publisherBreakerName,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		// Shutdown must not open the breaker.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			metrics.RecordBreakerTransition(context.Background(), name, from.String(), to.String())

			logger.Warn().
				Str("name", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	}

	return &BreakerPublisher{
		publisher: publisher,
		breaker:   gobreaker.NewCircuitBreaker(settings),
	}
}

func (p *BreakerPublisher) Publish(ctx context.Context, msg broker.Message, routingKey string) error {
	_, err := p.breaker.Execute(func() (any, error) {
		return nil, p.publisher.Publish(ctx, msg, routingKey)
	})

	return err
}

// State reports the breaker state, one of "closed", "half-open" or "open".
func (p *BreakerPublisher) State() string {
	return p.breaker.State().String()
}
