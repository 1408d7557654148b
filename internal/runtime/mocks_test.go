package runtime

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/architeacher/svc-message-retry/pkg/broker"
)

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, msg broker.Message, routingKey string) error {
	return m.Called(ctx, msg, routingKey).Error(0)
}
