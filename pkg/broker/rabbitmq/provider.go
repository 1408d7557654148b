package rabbitmq

import (
	"context"
	"fmt"

	"github.com/architeacher/svc-message-retry/pkg/broker"
)

var _ broker.MessageProvider = (*Provider)(nil)

// Provider reads messages from a single queue with basic.get and manual acknowledgement.
type Provider struct {
	ch    channel
	queue string
}

func NewProvider(ch channel, queue string) *Provider {
	return &Provider{ch: ch, queue: queue}
}

// Get returns the next message, or nil when the queue is empty.
func (p *Provider) Get(ctx context.Context) (*broker.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d, ok, err := p.ch.get(p.queue)
	if err != nil {
		return nil, fmt.Errorf("failed to get message from %q: %w", p.queue, err)
	}

	if !ok {
		return nil, nil
	}

	msg := FromDelivery(d)

	return &msg, nil
}

func (p *Provider) Ack(_ context.Context, msg broker.Message) error {
	tag, ok := msg.DeliveryTag()
	if !ok {
		return ErrNoDeliveryTag
	}

	return p.ch.ack(tag)
}

func (p *Provider) Nack(_ context.Context, msg broker.Message, requeue bool) error {
	tag, ok := msg.DeliveryTag()
	if !ok {
		return ErrNoDeliveryTag
	}

	return p.ch.nack(tag, requeue)
}

func (p *Provider) QueueName() string {
	return p.queue
}
