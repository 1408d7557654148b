package rabbitmq

import (
	"context"
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/architeacher/svc-message-retry/pkg/broker"
)

func TestProvider_Get(t *testing.T) {
	t.Parallel()

	t.Run("returns a message when the queue has one", func(t *testing.T) {
		t.Parallel()

		ch := &MockChannel{}
		ch.On("get", "queue_with_messages").Return(amqp.Delivery{DeliveryTag: 1, Body: []byte("body")}, true, nil).Once()

		msg, err := NewProvider(ch, "queue_with_messages").Get(context.Background())

		require.NoError(t, err)
		require.NotNil(t, msg)
		assert.Equal(t, []byte("body"), msg.Body())
		ch.AssertExpectations(t)
	})

	t.Run("returns nil when the queue is empty", func(t *testing.T) {
		t.Parallel()

		ch := &MockChannel{}
		ch.On("get", "empty_queue").Return(amqp.Delivery{}, false, nil).Once()

		msg, err := NewProvider(ch, "empty_queue").Get(context.Background())

		require.NoError(t, err)
		assert.Nil(t, msg)
	})

	t.Run("wraps channel errors", func(t *testing.T) {
		t.Parallel()

		getErr := errors.New("channel closed")

		ch := &MockChannel{}
		ch.On("get", "orders").Return(amqp.Delivery{}, false, getErr).Once()

		msg, err := NewProvider(ch, "orders").Get(context.Background())

		require.ErrorIs(t, err, getErr)
		assert.Nil(t, msg)
	})

	t.Run("does not read after cancellation", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		ch := &MockChannel{}

		_, err := NewProvider(ch, "orders").Get(ctx)

		require.ErrorIs(t, err, context.Canceled)
		ch.AssertNotCalled(t, "get", "orders")
	})
}

func TestProvider_QueueName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "foobar", NewProvider(&MockChannel{}, "foobar").QueueName())
}

func TestProvider_AckAndNack(t *testing.T) {
	t.Parallel()

	ch := &MockChannel{}
	ch.On("ack", uint64(5)).Return(nil).Once()
	ch.On("nack", uint64(5), false).Return(nil).Once()

	provider := NewProvider(ch, "orders")
	msg := broker.NewMessage([]byte("body"), nil, broker.WithDeliveryTag(5))

	require.NoError(t, provider.Ack(context.Background(), msg))
	require.NoError(t, provider.Nack(context.Background(), msg, false))
	ch.AssertExpectations(t)
}

func TestProvider_RejectsMessagesWithoutDeliveryTag(t *testing.T) {
	t.Parallel()

	provider := NewProvider(&MockChannel{}, "orders")
	msg := broker.NewMessage([]byte("body"), nil, broker.WithDeliveryTag(5)).WithHeader("key", "value")

	require.ErrorIs(t, provider.Ack(context.Background(), msg), ErrNoDeliveryTag)
	require.ErrorIs(t, provider.Nack(context.Background(), msg, true), ErrNoDeliveryTag)
}
