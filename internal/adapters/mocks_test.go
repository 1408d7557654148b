package adapters

import (
	"context"
	"net/http"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/architeacher/svc-message-retry/pkg/broker"
	"github.com/architeacher/svc-message-retry/pkg/processor"
)

type (
	MockProcessor struct {
		mock.Mock
	}

	MockPublisher struct {
		mock.Mock
	}

	MockMetrics struct {
		mock.Mock
	}
)

func (m *MockProcessor) Process(ctx context.Context, msg broker.Message, options processor.Options) error {
	return m.Called(ctx, msg, options).Error(0)
}

func (m *MockPublisher) Publish(ctx context.Context, msg broker.Message, routingKey string) error {
	return m.Called(ctx, msg, routingKey).Error(0)
}

func (m *MockMetrics) RecordProcessed(ctx context.Context, duration time.Duration, outcome, errorKind string) {
	m.Called(ctx, duration, outcome, errorKind)
}

func (m *MockMetrics) RecordRepublished(ctx context.Context, routingKey string) {
	m.Called(ctx, routingKey)
}

func (m *MockMetrics) RecordGivenUp(ctx context.Context, errorKind string) {
	m.Called(ctx, errorKind)
}

func (m *MockMetrics) RecordPublish(ctx context.Context, duration time.Duration, success bool) {
	m.Called(ctx, duration, success)
}

func (m *MockMetrics) RecordBreakerTransition(ctx context.Context, name, from, to string) {
	m.Called(ctx, name, from, to)
}

func (m *MockMetrics) Handler() http.Handler {
	return m.Called().Get(0).(http.Handler)
}

func (m *MockMetrics) Shutdown(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
