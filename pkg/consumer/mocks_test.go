package consumer

import (
	"context"

	"github.com/architeacher/svc-message-retry/pkg/broker"
	"github.com/architeacher/svc-message-retry/pkg/processor"
	"github.com/stretchr/testify/mock"
)

type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) Get(ctx context.Context) (*broker.Message, error) {
	args := m.Called(ctx)
	msg, _ := args.Get(0).(*broker.Message)
	return msg, args.Error(1)
}

func (m *MockProvider) Ack(ctx context.Context, msg broker.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MockProvider) Nack(ctx context.Context, msg broker.Message, requeue bool) error {
	args := m.Called(ctx, msg, requeue)
	return args.Error(0)
}

func (m *MockProvider) QueueName() string {
	args := m.Called()
	return args.String(0)
}

type MockProcessor struct {
	mock.Mock
}

func (m *MockProcessor) Process(ctx context.Context, msg broker.Message, options processor.Options) error {
	args := m.Called(ctx, msg, options)
	return args.Error(0)
}
