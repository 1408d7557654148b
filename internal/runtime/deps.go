package runtime

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"

	"github.com/hashicorp/vault/api"
	"go.opentelemetry.io/otel/trace"

	"github.com/architeacher/svc-message-retry/internal/adapters"
	"github.com/architeacher/svc-message-retry/internal/config"
	"github.com/architeacher/svc-message-retry/internal/infrastructure"
	"github.com/architeacher/svc-message-retry/internal/ports"
	"github.com/architeacher/svc-message-retry/pkg/broker"
	"github.com/architeacher/svc-message-retry/pkg/broker/rabbitmq"
	"github.com/architeacher/svc-message-retry/pkg/processor"
	"github.com/architeacher/svc-message-retry/pkg/processor/retry"
	"github.com/architeacher/svc-message-retry/pkg/processor/throttle"
)

type (
	InfrastructureDeps struct {
		OpsServer           *http.Server
		SecretStorageClient *api.Client
		BrokerConnection    *rabbitmq.Connection
		Metrics             infrastructure.Metrics
		TracerProvider      trace.TracerProvider
	}

	Processing struct {
		Stack     processor.Processor
		Options   processor.Options
		Publisher *adapters.BreakerPublisher
		Consumer  ports.MessageConsumer
	}

	Repos struct {
		SecretStorageRepo ports.SecretsRepository
	}

	Dependencies struct {
		Processing Processing

		cfg          *config.ServiceConfig
		configLoader *config.Loader

		logger infrastructure.Logger

		Infra InfrastructureDeps
		Repos Repos

		tracerShutdownFunc infrastructure.TracerShutdownFunc
		secretVersion      uint
	}
)

func initializeDependencies(ctx context.Context, opts ...DependencyOption) (*Dependencies, error) {
	cfg, err := config.Init()
	if err != nil {
		return nil, fmt.Errorf("unable to load service configuration: %w", err)
	}

	appLogger := infrastructure.New(config.LoggingConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	}).WithService(cfg.AppConfig)

	appLogger.Info().Msg("initializing dependencies...")

	deps := &Dependencies{
		cfg:    cfg,
		logger: appLogger,
	}

	// Start with default options and append any additional options.
	options := append(defaultOptions(ctx), opts...)

	for _, opt := range options {
		if err := opt(deps); err != nil {
			return nil, fmt.Errorf("failed to apply dependency option: %w", err)
		}
	}

	deps.logger.Info().Msg("dependencies initialized successfully")

	return deps, nil
}

// newProcessorStack wraps handler with retry, throttle and instrumentation, outermost last.
// Failed messages are republished through publisher.
func newProcessorStack(
	cfg *config.ServiceConfig,
	handler processor.Processor,
	publisher broker.MessagePublisher,
	metrics infrastructure.Metrics,
	tracerProvider trace.TracerProvider,
	logger infrastructure.Logger,
) processor.Processor {
	var stack processor.Processor = retry.New(
		handler,
		publisher,
		retry.WithLogger(processor.NewZerologLogger(logger.Component("retry"))),
	)

	if cfg.Throttle.Enabled {
		stack = throttle.New(stack)
	}

	return adapters.NewInstrumentedProcessor(stack, metrics, tracerProvider, cfg.Queue.QueueName)
}

func initOpsServer(
	cfg *config.ServiceConfig,
	logger infrastructure.Logger,
	metrics infrastructure.Metrics,
	health ports.HealthChecker,
) *http.Server {
	router := adapters.NewOpsRouter(health, metrics.Handler(), logger.Logger, false)

	server := &http.Server{
		Addr:         net.JoinHostPort(cfg.OpsServer.Host, strconv.Itoa(cfg.OpsServer.Port)),
		Handler:      router,
		ReadTimeout:  cfg.OpsServer.ReadTimeout,
		WriteTimeout: cfg.OpsServer.WriteTimeout,
	}

	logger.Info().Str("addr", server.Addr).Msg("ops server created")

	return server
}
