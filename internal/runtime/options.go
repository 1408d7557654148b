package runtime

import (
	"os"
)

type (
	WorkerOption func(*WorkerCtx)
)

func WithWorkerTermination(ch chan os.Signal) WorkerOption {
	return func(ctx *WorkerCtx) {
		ctx.shutdownChannel = ch
	}
}

// WithWaitingForConsumer makes WaitForConsumer block until the consumer loop has started.
func WithWaitingForConsumer() WorkerOption {
	return func(ctx *WorkerCtx) {
		ctx.consumerReady = make(chan struct{})
	}
}

// WithDependencyOptions appends options applied after the defaults when the worker builds.
func WithDependencyOptions(opts ...DependencyOption) WorkerOption {
	return func(ctx *WorkerCtx) {
		ctx.dependencyOptions = append(ctx.dependencyOptions, opts...)
	}
}
