package infrastructure

import (
	"context"
	"net/http"
	"time"
)

type NoOpMetrics struct{}

func (n *NoOpMetrics) RecordProcessed(_ context.Context, _ time.Duration, _, _ string) {
}

func (n *NoOpMetrics) RecordRepublished(_ context.Context, _ string) {
}

func (n *NoOpMetrics) RecordGivenUp(_ context.Context, _ string) {
}

func (n *NoOpMetrics) RecordPublish(_ context.Context, _ time.Duration, _ bool) {
}

func (n *NoOpMetrics) RecordBreakerTransition(_ context.Context, _, _, _ string) {
}

func (n *NoOpMetrics) Handler() http.Handler {
	return http.NotFoundHandler()
}

func (n *NoOpMetrics) Shutdown(_ context.Context) error {
	return nil
}
