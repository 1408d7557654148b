package rabbitmq

import (
	"time"

	"github.com/rs/zerolog"
)

const (
	defaultConnectionTimeout = 30 * time.Second
	defaultHeartbeat         = 10 * time.Second
	defaultConfirmTimeout    = 5 * time.Second
)

type connectionOptions struct {
	timeout        time.Duration
	heartbeat      time.Duration
	prefetchCount  int
	confirms       bool
	confirmTimeout time.Duration
	name           string
	logger         zerolog.Logger
}

// ConnectionOption configures a NewConnection call.
type ConnectionOption func(options *connectionOptions)

// WithLogger returns a ConnectionOption which sets the logger used for connection events.
func WithLogger(l zerolog.Logger) ConnectionOption {
	return func(o *connectionOptions) {
		o.logger = l
	}
}

// WithConnectionTimeout returns a ConnectionOption which sets the timeout used when establishing a connection.
func WithConnectionTimeout(timeout time.Duration) ConnectionOption {
	return func(o *connectionOptions) {
		o.timeout = timeout
	}
}

// WithHeartbeat returns a ConnectionOption which sets the heartbeat interval negotiated with the server.
func WithHeartbeat(d time.Duration) ConnectionOption {
	return func(o *connectionOptions) {
		o.heartbeat = d
	}
}

// WithPrefetchCount returns a ConnectionOption which applies basic.qos to the channel.
func WithPrefetchCount(n int) ConnectionOption {
	return func(o *connectionOptions) {
		o.prefetchCount = n
	}
}

// WithPublisherConfirms returns a ConnectionOption which puts the channel in confirm mode.
// Publishes then wait up to timeout for the broker ack.
func WithPublisherConfirms(timeout time.Duration) ConnectionOption {
	return func(o *connectionOptions) {
		o.confirms = true
		if timeout > 0 {
			o.confirmTimeout = timeout
		}
	}
}

// WithConnectionName returns a ConnectionOption which sets the client-provided connection name.
func WithConnectionName(name string) ConnectionOption {
	return func(o *connectionOptions) {
		o.name = name
	}
}

func defaultConnectionOptions() connectionOptions {
	return connectionOptions{
		timeout:        defaultConnectionTimeout,
		heartbeat:      defaultHeartbeat,
		confirmTimeout: defaultConfirmTimeout,
		logger:         zerolog.Nop(),
	}
}

type publisherOptions struct {
	messageIDs bool
}

// PublisherOption configures a NewPublisher call.
type PublisherOption func(options *publisherOptions)

// WithMessageIDs returns a PublisherOption which assigns a random message_id to messages published without one.
func WithMessageIDs() PublisherOption {
	return func(o *publisherOptions) {
		o.messageIDs = true
	}
}
