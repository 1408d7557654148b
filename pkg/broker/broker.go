// Package broker defines the message value model shared by processors and broker
// bindings, and the capabilities a broker binding offers: fetching deliveries,
// acknowledging them and publishing new messages.
package broker

import (
	"context"
)

type (
	// MessagePublisher publishes a message to a routing key.
	MessagePublisher interface {
		Publish(ctx context.Context, msg Message, routingKey string) error
	}

	// MessageProvider fetches deliveries from a single queue and settles them.
	MessageProvider interface {
		// Get returns the next delivery, or nil when the queue is empty.
		Get(ctx context.Context) (*Message, error)
		Ack(ctx context.Context, msg Message) error
		Nack(ctx context.Context, msg Message, requeue bool) error
		QueueName() string
	}

	// PublisherFunc adapts a function to MessagePublisher.
	PublisherFunc func(ctx context.Context, msg Message, routingKey string) error
)

func (f PublisherFunc) Publish(ctx context.Context, msg Message, routingKey string) error {
	return f(ctx, msg, routingKey)
}
