package runtime

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
)

// WorkerCtx runs the consumer and the ops server until a termination signal arrives.
type WorkerCtx struct {
	deps *Dependencies

	shutdownChannel   chan os.Signal
	dependencyOptions []DependencyOption

	workerCtx      context.Context
	workerStopFunc context.CancelFunc

	consumerDone  chan struct{}
	consumerReady chan struct{}
}

func NewWorker(opt ...WorkerOption) *WorkerCtx {
	wCtx := &WorkerCtx{
		shutdownChannel: make(chan os.Signal, 1),
	}

	for i := range opt {
		opt[i](wCtx)
	}

	return wCtx
}

func (c *WorkerCtx) Run() {
	c.build()
	c.start()
	c.monitorConfigChanges()
	c.shutdownHook()
	c.shutdown()
}

// build initializes the worker components
func (c *WorkerCtx) build() {
	c.workerCtx, c.workerStopFunc = context.WithCancel(context.Background())

	opts := append([]DependencyOption{
		WithBroker(),
		WithProcessing(),
		WithOpsServer(),
	}, c.dependencyOptions...)

	deps, err := initializeDependencies(c.workerCtx, opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	c.deps = deps
}

func (c *WorkerCtx) start() {
	c.consumerDone = make(chan struct{})

	go func() {
		defer close(c.consumerDone)

		c.deps.logger.Info().
			Str("queue", c.deps.cfg.Queue.QueueName).
			Str("retry_exchange", c.deps.cfg.Queue.RetryExchange).
			Msg("worker starting up")

		if c.consumerReady != nil {
			c.consumerReady <- struct{}{}
		}

		if err := c.deps.Processing.Consumer.Consume(c.workerCtx, c.deps.Processing.Options); err != nil {
			c.deps.logger.Error().Err(err).Msg("consumer stopped unexpectedly")
			c.workerStopFunc()
		}
	}()

	if c.deps.Infra.OpsServer == nil {
		return
	}

	go func() {
		c.deps.logger.Info().Str("address", c.deps.Infra.OpsServer.Addr).Msg("ops server starting up")

		if err := c.deps.Infra.OpsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			c.deps.logger.Error().Err(err).Msg("unable to start ops server")
			c.workerStopFunc()
		}
	}()
}

func (c *WorkerCtx) shutdownHook() {
	signal.Notify(c.shutdownChannel, syscall.SIGINT, syscall.SIGTERM)
}

func (c *WorkerCtx) monitorConfigChanges() {
	reloadErrors := c.deps.configLoader.WatchConfigSignals(c.workerCtx)

	go func() {
		for err := range reloadErrors {
			if err != nil {
				c.deps.logger.Error().Err(err).Msg("failed to reload config")
				continue
			}

			c.deps.logger.Info().Msg("config reloaded successfully")
		}

		c.deps.logger.Info().Msg("stopping config monitor")
	}()
}

func (c *WorkerCtx) shutdown() {
	// Waits for one of the following shutdown conditions to happen.
	select {
	case <-c.workerCtx.Done():
	case <-c.shutdownChannel:
		defer close(c.shutdownChannel)
	}

	c.deps.logger.Info().Msg("received shutdown signal")

	// Cancel context that underlying processes would start cleanup.
	c.workerStopFunc()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), c.deps.cfg.OpsServer.ShutdownTimeout)
	defer cancel()

	go func() {
		<-shutdownCtx.Done()

		if errors.Is(shutdownCtx.Err(), context.DeadlineExceeded) {
			c.deps.logger.Error().Msg("graceful shutdown timed out.. forcing exit.")
			os.Exit(1)
		}
	}()

	c.cleanup(shutdownCtx)

	c.deps.logger.Info().Msg("worker shutdown completed")
}

// WaitForConsumer blocks until the consumer loop is running.
// The worker must be created with WithWaitingForConsumer.
//
// Example:
//
//	worker := runtime.NewWorker(runtime.WithWaitingForConsumer())
//	go func() {
//		worker.Run()
//	}()
//
//	worker.WaitForConsumer()
func (c *WorkerCtx) WaitForConsumer() {
	if c.consumerReady != nil {
		<-c.consumerReady
		close(c.consumerReady)
	}
}

func (c *WorkerCtx) cleanup(shutdownCtx context.Context) {
	c.deps.logger.Info().Msg("cleaning up resources...")

	// The consumer settles its in-flight message before the channel goes away.
	select {
	case <-c.consumerDone:
	case <-shutdownCtx.Done():
	}

	if c.deps.Infra.OpsServer != nil {
		if err := c.deps.Infra.OpsServer.Shutdown(shutdownCtx); err != nil {
			c.deps.logger.Error().Err(err).Msg("unable to gracefully shutdown ops server")
		}
	}

	if c.deps.Infra.BrokerConnection != nil {
		if err := c.deps.Infra.BrokerConnection.Close(); err != nil {
			c.deps.logger.Error().Err(err).Msg("failed to close broker connection")
		}
	}

	if err := c.deps.Infra.Metrics.Shutdown(shutdownCtx); err != nil {
		c.deps.logger.Error().Err(err).Msg("failed to shutdown metrics")
	}

	if c.deps.tracerShutdownFunc != nil {
		if err := c.deps.tracerShutdownFunc(shutdownCtx); err != nil {
			c.deps.logger.Error().Err(err).Msg("failed to shutdown tracer")
		}
	}

	c.deps.logger.Info().Msg("cleanup completed")
}
