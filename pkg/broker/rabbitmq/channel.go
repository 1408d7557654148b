package rabbitmq

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// channel is the subset of ChannelWrapper used by providers, publishers and topology declaration.
type channel interface {
	io.Closer

	get(queue string) (amqp.Delivery, bool, error)
	ack(tag uint64) error
	nack(tag uint64, requeue bool) error
	publish(ctx context.Context, exchange, key string, msg amqp.Publishing) error

	exchangeDeclare(name, kind string, durable bool, args amqp.Table) error
	queueDeclare(name string, durable bool, args amqp.Table) (amqp.Queue, error)
	queueBind(name, key, exchange string, args amqp.Table) error
}

// amqpChannel is used mainly to be able to generate mocks for the AMQP behavior.
//
//nolint:interfacebloat // mirrors the parts of amqp.Channel in use
type amqpChannel interface {
	io.Closer

	Get(queue string, autoAck bool) (amqp.Delivery, bool, error)
	Ack(tag uint64, multiple bool) error
	Nack(tag uint64, multiple, requeue bool) error
	PublishWithDeferredConfirmWithContext(
		ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing,
	) (*amqp.DeferredConfirmation, error)
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
}

var _ channel = (*ChannelWrapper)(nil)

// ChannelWrapper serializes access to an amqp091-go channel, which is not safe for concurrent use,
// and waits for publisher confirms when the channel is in confirm mode.
type ChannelWrapper struct {
	amqpChan amqpChannel

	mutex  *sync.Mutex
	closed atomic.Bool

	confirms       bool
	confirmTimeout time.Duration
}

func newChannelWrapper(ch amqpChannel, confirms bool, confirmTimeout time.Duration) *ChannelWrapper {
	return &ChannelWrapper{
		amqpChan:       ch,
		mutex:          &sync.Mutex{},
		confirms:       confirms,
		confirmTimeout: confirmTimeout,
	}
}

// Close is a wrapper around amqp091-go.Channel.Close method, which closes a channel.
func (ch *ChannelWrapper) Close() error {
	defer ch.mutex.Unlock()
	ch.mutex.Lock()

	if ch.isClosed() {
		return amqp.ErrClosed
	}

	ch.closed.Store(true)

	return ch.amqpChan.Close()
}

func (ch *ChannelWrapper) get(queue string) (amqp.Delivery, bool, error) {
	ch.mutex.Lock()
	defer ch.mutex.Unlock()

	return ch.amqpChan.Get(queue, false)
}

func (ch *ChannelWrapper) ack(tag uint64) error {
	ch.mutex.Lock()
	defer ch.mutex.Unlock()

	return ch.amqpChan.Ack(tag, false)
}

func (ch *ChannelWrapper) nack(tag uint64, requeue bool) error {
	ch.mutex.Lock()
	defer ch.mutex.Unlock()

	return ch.amqpChan.Nack(tag, false, requeue)
}

// publish sends msg and, in confirm mode, blocks until the broker acks it or confirmTimeout elapses.
func (ch *ChannelWrapper) publish(ctx context.Context, exchange, key string, msg amqp.Publishing) error {
	ch.mutex.Lock()
	confirmation, err := ch.amqpChan.PublishWithDeferredConfirmWithContext(ctx, exchange, key, false, false, msg)
	ch.mutex.Unlock()

	if err != nil {
		return err
	}

	// amqp091-go returns no confirmation outside confirm mode.
	if !ch.confirms || confirmation == nil {
		return nil
	}

	waitCtx, cancel := context.WithTimeout(ctx, ch.confirmTimeout)
	defer cancel()

	acked, err := confirmation.WaitContext(waitCtx)
	if err != nil {
		return fmt.Errorf("failed waiting for publish confirmation: %w", err)
	}

	if !acked {
		return ErrPublishNacked
	}

	return nil
}

func (ch *ChannelWrapper) exchangeDeclare(name, kind string, durable bool, args amqp.Table) error {
	ch.mutex.Lock()
	defer ch.mutex.Unlock()

	return ch.amqpChan.ExchangeDeclare(name, kind, durable, false, false, false, args)
}

func (ch *ChannelWrapper) queueDeclare(name string, durable bool, args amqp.Table) (amqp.Queue, error) {
	ch.mutex.Lock()
	defer ch.mutex.Unlock()

	return ch.amqpChan.QueueDeclare(name, durable, false, false, false, args)
}

func (ch *ChannelWrapper) queueBind(name, key, exchange string, args amqp.Table) error {
	ch.mutex.Lock()
	defer ch.mutex.Unlock()

	return ch.amqpChan.QueueBind(name, key, exchange, false, args)
}

func (ch *ChannelWrapper) isClosed() bool {
	return ch.closed.Load()
}
