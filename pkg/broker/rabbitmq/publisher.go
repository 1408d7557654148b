package rabbitmq

import (
	"context"

	"github.com/google/uuid"

	"github.com/architeacher/svc-message-retry/pkg/broker"
)

var _ broker.MessagePublisher = (*Publisher)(nil)

// Publisher publishes messages to a single exchange.
type Publisher struct {
	ch       channel
	exchange string
	options  publisherOptions
}

func NewPublisher(ch channel, exchange string, opts ...PublisherOption) *Publisher {
	p := &Publisher{ch: ch, exchange: exchange}

	for _, opt := range opts {
		opt(&p.options)
	}

	return p
}

// Publish sends msg with routingKey. Errors from the channel are returned unchanged.
func (p *Publisher) Publish(ctx context.Context, msg broker.Message, routingKey string) error {
	publishing := ToPublishing(msg)

	if p.options.messageIDs && publishing.MessageId == "" {
		publishing.MessageId = uuid.NewString()
	}

	return p.ch.publish(ctx, p.exchange, routingKey, publishing)
}

func (p *Publisher) Exchange() string {
	return p.exchange
}
