package rabbitmq

import "errors"

var (
	ErrNotConnected = errors.New("not connected to RabbitMQ")

	// ErrNoDeliveryTag is returned when acknowledging a message that was not read from a queue.
	ErrNoDeliveryTag = errors.New("message has no delivery tag")

	// ErrPublishNacked is returned when the broker refuses a publish in confirm mode.
	ErrPublishNacked = errors.New("publish was not confirmed by the broker")
)
