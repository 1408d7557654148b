// Package consumer drives a processor stack from a message provider.
package consumer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/architeacher/svc-message-retry/pkg/broker"
	"github.com/architeacher/svc-message-retry/pkg/errkind"
	"github.com/architeacher/svc-message-retry/pkg/processor"
)

const defaultIdleDelay = time.Second

type (
	// Backoff returns how long to wait after the given number of consecutive empty polls.
	Backoff interface {
		Backoff(retries int) time.Duration
	}

	// BackoffFunc adapts a function to Backoff.
	BackoffFunc func(retries int) time.Duration

	// Consumer polls a provider and hands every message to a processor.
	// Successful messages are acked. Failed ones are rejected without requeue.
	Consumer struct {
		provider  broker.MessageProvider
		processor processor.Processor
		backoff   Backoff
		logger    zerolog.Logger
	}

	Option func(*Consumer)
)

func (f BackoffFunc) Backoff(retries int) time.Duration {
	return f(retries)
}

// WithBackoff sets the wait strategy used when the queue is empty.
func WithBackoff(b Backoff) Option {
	return func(c *Consumer) {
		if b != nil {
			c.backoff = b
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Consumer) {
		c.logger = logger
	}
}

func New(provider broker.MessageProvider, p processor.Processor, opts ...Option) *Consumer {
	c := &Consumer{
		provider:  provider,
		processor: p,
		backoff: BackoffFunc(func(int) time.Duration {
			return defaultIdleDelay
		}),
		logger: zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Consume processes messages until ctx is done, in which case it returns nil.
// Provider failures and configuration errors stop the loop and are returned.
func (c *Consumer) Consume(ctx context.Context, options processor.Options) error {
	queue := c.provider.QueueName()
	logger := c.logger.With().Str("queue", queue).Logger()

	logger.Info().Msg("consumer started")
	defer logger.Info().Msg("consumer stopped")

	idle := 0

	for {
		if ctx.Err() != nil {
			return nil
		}

		msg, err := c.provider.Get(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}

			return fmt.Errorf("failed to get message from %q: %w", queue, err)
		}

		if msg == nil {
			if !sleep(ctx, c.backoff.Backoff(idle)) {
				return nil
			}

			idle++

			continue
		}

		idle = 0

		if err := c.handle(ctx, logger, *msg, options); err != nil {
			return err
		}
	}
}

func (c *Consumer) handle(ctx context.Context, logger zerolog.Logger, msg broker.Message, options processor.Options) error {
	processErr := c.processor.Process(ctx, msg, options)
	if processErr == nil {
		if err := c.provider.Ack(ctx, msg); err != nil {
			return fmt.Errorf("failed to ack message: %w", err)
		}

		return nil
	}

	var configErr *processor.ConfigurationError
	if errors.As(processErr, &configErr) {
		if err := c.provider.Nack(ctx, msg, true); err != nil {
			logger.Error().Err(err).Msg("failed to requeue message")
		}

		return fmt.Errorf("invalid processor options: %w", processErr)
	}

	// Interrupted by shutdown: hand the message back untouched.
	if ctx.Err() != nil && errors.Is(processErr, ctx.Err()) {
		if err := c.provider.Nack(ctx, msg, true); err != nil {
			logger.Error().Err(err).Msg("failed to requeue message")
		}

		return nil
	}

	logger.Error().
		Err(processErr).
		Str("kind", string(errkind.Of(processErr))).
		Msg("message processing failed, rejecting")

	if err := c.provider.Nack(ctx, msg, false); err != nil {
		return fmt.Errorf("failed to reject message: %w", err)
	}

	return nil
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
