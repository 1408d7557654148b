package throttle

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
