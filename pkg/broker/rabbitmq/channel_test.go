package rabbitmq

import (
	"context"
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestChannelWrapper_Close(t *testing.T) {
	t.Parallel()

	mockChannel := &MockamqpChannel{}
	mockChannel.On("Close").Return(nil).Once()

	wrapper := newChannelWrapper(mockChannel, false, 0)

	err := wrapper.Close()
	assert.NoError(t, err)
	assert.True(t, wrapper.isClosed())

	err = wrapper.Close()
	assert.Equal(t, amqp.ErrClosed, err)

	mockChannel.AssertExpectations(t)
}

func TestChannelWrapper_GetDisablesAutoAck(t *testing.T) {
	t.Parallel()

	mockChannel := &MockamqpChannel{}
	mockChannel.On("Get", "orders", false).Return(amqp.Delivery{DeliveryTag: 7}, true, nil).Once()

	wrapper := newChannelWrapper(mockChannel, false, 0)

	d, ok, err := wrapper.get("orders")

	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint64(7), d.DeliveryTag)
	mockChannel.AssertExpectations(t)
}

func TestChannelWrapper_AckAndNackSingleDeliveries(t *testing.T) {
	t.Parallel()

	mockChannel := &MockamqpChannel{}
	mockChannel.On("Ack", uint64(3), false).Return(nil).Once()
	mockChannel.On("Nack", uint64(4), false, true).Return(nil).Once()

	wrapper := newChannelWrapper(mockChannel, false, 0)

	require.NoError(t, wrapper.ack(3))
	require.NoError(t, wrapper.nack(4, true))
	mockChannel.AssertExpectations(t)
}

func TestChannelWrapper_Publish(t *testing.T) {
	t.Parallel()

	publishing := amqp.Publishing{ContentType: "text/plain", Body: []byte("body")}

	t.Run("without confirms", func(t *testing.T) {
		t.Parallel()

		mockChannel := &MockamqpChannel{}
		mockChannel.On("PublishWithDeferredConfirmWithContext", mock.Anything, "retry", "retry_1", false, false, publishing).
			Return(nil, nil).Once()

		wrapper := newChannelWrapper(mockChannel, false, 0)

		require.NoError(t, wrapper.publish(context.Background(), "retry", "retry_1", publishing))
		mockChannel.AssertExpectations(t)
	})

	t.Run("confirm mode without a confirmation", func(t *testing.T) {
		t.Parallel()

		mockChannel := &MockamqpChannel{}
		mockChannel.On("PublishWithDeferredConfirmWithContext", mock.Anything, "retry", "retry_1", false, false, publishing).
			Return(nil, nil).Once()

		wrapper := newChannelWrapper(mockChannel, true, defaultConfirmTimeout)

		require.NoError(t, wrapper.publish(context.Background(), "retry", "retry_1", publishing))
	})

	t.Run("channel error", func(t *testing.T) {
		t.Parallel()

		publishErr := errors.New("channel closed")

		mockChannel := &MockamqpChannel{}
		mockChannel.On("PublishWithDeferredConfirmWithContext", mock.Anything, "retry", "retry_1", false, false, publishing).
			Return(nil, publishErr).Once()

		wrapper := newChannelWrapper(mockChannel, true, defaultConfirmTimeout)

		err := wrapper.publish(context.Background(), "retry", "retry_1", publishing)

		assert.Same(t, publishErr, err)
	})
}

func TestChannelWrapper_Declarations(t *testing.T) {
	t.Parallel()

	args := amqp.Table{"x-message-ttl": int64(1000)}

	mockChannel := &MockamqpChannel{}
	mockChannel.On("ExchangeDeclare", "retry", "direct", true, false, false, false, amqp.Table(nil)).Return(nil).Once()
	mockChannel.On("QueueDeclare", "retry_1", true, false, false, false, args).Return(amqp.Queue{Name: "retry_1"}, nil).Once()
	mockChannel.On("QueueBind", "retry_1", "retry_1", "retry", false, amqp.Table(nil)).Return(nil).Once()

	wrapper := newChannelWrapper(mockChannel, false, 0)

	require.NoError(t, wrapper.exchangeDeclare("retry", "direct", true, nil))

	queue, err := wrapper.queueDeclare("retry_1", true, args)
	require.NoError(t, err)
	assert.Equal(t, "retry_1", queue.Name)

	require.NoError(t, wrapper.queueBind("retry_1", "retry_1", "retry", nil))
	mockChannel.AssertExpectations(t)
}
