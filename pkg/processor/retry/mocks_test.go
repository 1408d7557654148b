package retry

import (
	"context"

	"github.com/architeacher/svc-message-retry/pkg/broker"
	"github.com/architeacher/svc-message-retry/pkg/processor"
	"github.com/stretchr/testify/mock"
)

type MockProcessor struct {
	mock.Mock
}

func (m *MockProcessor) Process(ctx context.Context, msg broker.Message, options processor.Options) error {
	args := m.Called(ctx, msg, options)
	return args.Error(0)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, msg broker.Message, routingKey string) error {
	args := m.Called(ctx, msg, routingKey)
	return args.Error(0)
}

type MockLogger struct {
	mock.Mock
}

func (m *MockLogger) Log(ctx context.Context, level processor.Level, msg string, fields map[string]any) {
	m.Called(ctx, level, msg, fields)
}
