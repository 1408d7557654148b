package rabbitmq

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/mock"
)

type MockChannel struct {
	mock.Mock
}

func (m *MockChannel) Close() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockChannel) get(queue string) (amqp.Delivery, bool, error) {
	args := m.Called(queue)
	return args.Get(0).(amqp.Delivery), args.Bool(1), args.Error(2)
}

func (m *MockChannel) ack(tag uint64) error {
	args := m.Called(tag)
	return args.Error(0)
}

func (m *MockChannel) nack(tag uint64, requeue bool) error {
	args := m.Called(tag, requeue)
	return args.Error(0)
}

func (m *MockChannel) publish(ctx context.Context, exchange, key string, msg amqp.Publishing) error {
	args := m.Called(ctx, exchange, key, msg)
	return args.Error(0)
}

func (m *MockChannel) exchangeDeclare(name, kind string, durable bool, args amqp.Table) error {
	callArgs := m.Called(name, kind, durable, args)
	return callArgs.Error(0)
}

func (m *MockChannel) queueDeclare(name string, durable bool, args amqp.Table) (amqp.Queue, error) {
	callArgs := m.Called(name, durable, args)
	return callArgs.Get(0).(amqp.Queue), callArgs.Error(1)
}

func (m *MockChannel) queueBind(name, key, exchange string, args amqp.Table) error {
	callArgs := m.Called(name, key, exchange, args)
	return callArgs.Error(0)
}

type MockamqpChannel struct {
	mock.Mock
}

func (m *MockamqpChannel) Close() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockamqpChannel) Get(queue string, autoAck bool) (amqp.Delivery, bool, error) {
	args := m.Called(queue, autoAck)
	return args.Get(0).(amqp.Delivery), args.Bool(1), args.Error(2)
}

func (m *MockamqpChannel) Ack(tag uint64, multiple bool) error {
	args := m.Called(tag, multiple)
	return args.Error(0)
}

func (m *MockamqpChannel) Nack(tag uint64, multiple, requeue bool) error {
	args := m.Called(tag, multiple, requeue)
	return args.Error(0)
}

func (m *MockamqpChannel) PublishWithDeferredConfirmWithContext(
	ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing,
) (*amqp.DeferredConfirmation, error) {
	args := m.Called(ctx, exchange, key, mandatory, immediate, msg)
	confirmation, _ := args.Get(0).(*amqp.DeferredConfirmation)
	return confirmation, args.Error(1)
}

func (m *MockamqpChannel) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error {
	callArgs := m.Called(name, kind, durable, autoDelete, internal, noWait, args)
	return callArgs.Error(0)
}

func (m *MockamqpChannel) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error) {
	callArgs := m.Called(name, durable, autoDelete, exclusive, noWait, args)
	return callArgs.Get(0).(amqp.Queue), callArgs.Error(1)
}

func (m *MockamqpChannel) QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error {
	callArgs := m.Called(name, key, exchange, noWait, args)
	return callArgs.Error(0)
}
