package rabbitmq

import (
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validTopology() RetryTopology {
	return RetryTopology{
		Exchange:    "retry",
		KeyPattern:  "retry_%attempt%",
		QueuePrefix: "orders_retry",
		SourceQueue: "orders",
		Delays:      []time.Duration{time.Second, 5 * time.Second},
	}
}

func TestDeclareRetryTopology(t *testing.T) {
	t.Parallel()

	ch := &MockChannel{}
	ch.On("exchangeDeclare", "retry", "direct", true, amqp.Table(nil)).Return(nil).Once()
	ch.On("queueDeclare", "orders", true, amqp.Table(nil)).Return(amqp.Queue{Name: "orders"}, nil).Once()
	ch.On("queueDeclare", "orders_retry_1", true, amqp.Table{
		"x-message-ttl":             int64(1000),
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": "orders",
	}).Return(amqp.Queue{Name: "orders_retry_1"}, nil).Once()
	ch.On("queueBind", "orders_retry_1", "retry_1", "retry", amqp.Table(nil)).Return(nil).Once()
	ch.On("queueDeclare", "orders_retry_2", true, amqp.Table{
		"x-message-ttl":             int64(5000),
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": "orders",
	}).Return(amqp.Queue{Name: "orders_retry_2"}, nil).Once()
	ch.On("queueBind", "orders_retry_2", "retry_2", "retry", amqp.Table(nil)).Return(nil).Once()

	require.NoError(t, DeclareRetryTopology(ch, validTopology()))
	ch.AssertExpectations(t)
}

func TestDeclareRetryTopology_StopsOnFirstError(t *testing.T) {
	t.Parallel()

	declareErr := errors.New("access refused")

	ch := &MockChannel{}
	ch.On("exchangeDeclare", "retry", "direct", true, amqp.Table(nil)).Return(declareErr).Once()

	err := DeclareRetryTopology(ch, validTopology())

	require.ErrorIs(t, err, declareErr)
	ch.AssertNotCalled(t, "queueDeclare", "orders", true, amqp.Table(nil))
}

func TestRetryTopology_Validate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, validTopology().Validate())

	invalid := RetryTopology{Delays: []time.Duration{0}}
	err := invalid.Validate()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "exchange is required")
	assert.Contains(t, err.Error(), "source queue is required")
	assert.Contains(t, err.Error(), "delay 1 must be positive")

	require.Error(t, DeclareRetryTopology(&MockChannel{}, invalid))
}

func TestRetryTopology_QueueName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "orders_retry_3", validTopology().QueueName(3))
}
