package ports

import (
	"context"

	"github.com/architeacher/svc-message-retry/pkg/processor"
)

// MessageConsumer runs a processor stack over a queue until ctx is done.
type MessageConsumer interface {
	Consume(ctx context.Context, options processor.Options) error
}
