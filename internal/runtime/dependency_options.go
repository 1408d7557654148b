package runtime

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/vault/api"
	"go.opentelemetry.io/otel"

	"github.com/architeacher/svc-message-retry/internal/adapters"
	"github.com/architeacher/svc-message-retry/internal/adapters/repos"
	"github.com/architeacher/svc-message-retry/internal/config"
	"github.com/architeacher/svc-message-retry/internal/infrastructure"
	"github.com/architeacher/svc-message-retry/internal/shared/backoff"
	"github.com/architeacher/svc-message-retry/pkg/broker/rabbitmq"
	"github.com/architeacher/svc-message-retry/pkg/consumer"
)

var ErrRetryPublisherOpen = errors.New("retry publisher circuit breaker is open")

type (
	DependencyOption func(*Dependencies) error
)

func defaultOptions(ctx context.Context) []DependencyOption {
	return []DependencyOption{
		WithSecretStorage(),
		WithSecretStorageRepo(),
		WithConfigLoader(ctx),
		WithMetrics(ctx),
		WithTracing(ctx),
	}
}

// WithSecretStorage initializes the Vault client using ENV config.
func WithSecretStorage() DependencyOption {
	return func(d *Dependencies) error {
		cfg := d.cfg.SecretStorage

		vaultConfig := api.DefaultConfig()
		vaultConfig.Address = cfg.Address
		vaultConfig.Timeout = cfg.Timeout
		vaultConfig.MaxRetries = cfg.MaxRetries

		if cfg.TLSSkipVerify {
			tlsConfig := &api.TLSConfig{
				Insecure: true,
			}
			if err := vaultConfig.ConfigureTLS(tlsConfig); err != nil {
				return fmt.Errorf("failed to configure TLS: %w", err)
			}
		}

		client, err := api.NewClient(vaultConfig)
		if err != nil {
			return fmt.Errorf("failed to create Vault client: %w", err)
		}

		if cfg.Namespace != "" {
			client.SetNamespace(cfg.Namespace)
		}

		d.Infra.SecretStorageClient = client

		return nil
	}
}

func WithSecretStorageRepo() DependencyOption {
	return func(d *Dependencies) error {
		d.Repos.SecretStorageRepo = repos.NewVaultRepository(d.Infra.SecretStorageClient)

		return nil
	}
}

func WithConfigLoader(ctx context.Context) DependencyOption {
	return func(d *Dependencies) error {
		d.configLoader = config.NewLoader(d.cfg, d.Repos.SecretStorageRepo, d.secretVersion)

		if !d.cfg.SecretStorage.Enabled {
			d.logger.Info().Msg("secret storage is disabled, skipping vault configuration loading")

			return nil
		}

		version, err := d.configLoader.Load(ctx, d.Repos.SecretStorageRepo, d.cfg)
		if err != nil {
			return fmt.Errorf("unable to load service configuration: %w", err)
		}

		d.secretVersion = version

		return nil
	}
}

func WithMetrics(ctx context.Context) DependencyOption {
	return func(d *Dependencies) error {
		metrics, err := infrastructure.NewMetrics(ctx, *d.cfg, d.logger)
		if err != nil {
			return fmt.Errorf("failed to initialize metrics: %w", err)
		}

		d.Infra.Metrics = metrics

		return nil
	}
}

func WithTracing(ctx context.Context) DependencyOption {
	return func(d *Dependencies) error {
		if !d.cfg.Telemetry.Traces.Enabled {
			d.tracerShutdownFunc = func(_ context.Context) error {
				return nil
			}
			d.Infra.TracerProvider = otel.GetTracerProvider()

			return nil
		}

		tracerShutdownFunc, err := infrastructure.InitGlobalTracer(ctx, d.cfg.Telemetry, d.cfg.AppConfig)
		if err != nil {
			d.logger.Error().Err(err).Msg("failed to initialize global tracer")

			return err
		}

		d.tracerShutdownFunc = tracerShutdownFunc
		d.Infra.TracerProvider = otel.GetTracerProvider()

		return nil
	}
}

// WithBroker connects to RabbitMQ and, when enabled, declares the retry topology.
func WithBroker() DependencyOption {
	return func(d *Dependencies) error {
		conn := infrastructure.NewBrokerConnection(d.cfg.Queue, d.cfg.AppConfig, d.logger)

		if err := conn.Connect(); err != nil {
			return fmt.Errorf("failed to connect to broker: %w", err)
		}

		d.Infra.BrokerConnection = conn

		if !d.cfg.Queue.DeclareTopology {
			return nil
		}

		ch, err := conn.Channel()
		if err != nil {
			return fmt.Errorf("failed to open broker channel: %w", err)
		}

		topology := infrastructure.RetryTopology(d.cfg.Queue, d.cfg.Retry)
		if err := rabbitmq.DeclareRetryTopology(ch, topology); err != nil {
			return fmt.Errorf("failed to declare retry topology: %w", err)
		}

		d.logger.Info().
			Str("exchange", topology.Exchange).
			Str("source_queue", topology.SourceQueue).
			Int("delay_queues", len(topology.Delays)).
			Msg("retry topology declared")

		return nil
	}
}

// WithProcessing builds the processor stack around the forwarding handler and the consumer driving it.
func WithProcessing() DependencyOption {
	return func(d *Dependencies) error {
		ch, err := d.Infra.BrokerConnection.Channel()
		if err != nil {
			return fmt.Errorf("failed to open broker channel: %w", err)
		}

		options, err := d.cfg.ProcessorOptions()
		if err != nil {
			return fmt.Errorf("invalid processor options: %w", err)
		}

		publisher := adapters.NewBreakerPublisher(
			adapters.NewInstrumentedPublisher(
				rabbitmq.NewPublisher(ch, d.cfg.Queue.RetryExchange, rabbitmq.WithMessageIDs()),
				d.Infra.Metrics,
				d.Infra.TracerProvider,
				d.cfg.Queue.RetryExchange,
			),
			d.cfg.CircuitBreaker,
			d.Infra.Metrics,
			d.logger,
		)

		stack := newProcessorStack(
			d.cfg,
			adapters.NewForwardingHandler(d.cfg.Handler, d.logger),
			publisher,
			d.Infra.Metrics,
			d.Infra.TracerProvider,
			d.logger,
		)

		d.Processing = Processing{
			Stack:     stack,
			Options:   options,
			Publisher: publisher,
			Consumer: consumer.New(
				rabbitmq.NewProvider(ch, d.cfg.Queue.QueueName),
				stack,
				consumer.WithBackoff(backoff.NewIdlePolling(d.cfg.Backoff)),
				consumer.WithLogger(d.logger.Component("consumer")),
			),
		}

		return nil
	}
}

func WithOpsServer() DependencyOption {
	return func(d *Dependencies) error {
		if !d.cfg.OpsServer.Enabled {
			d.logger.Info().Msg("ops server is disabled")

			return nil
		}

		health := adapters.NewHealthChecker(d.healthChecks())
		d.Infra.OpsServer = initOpsServer(d.cfg, d.logger, d.Infra.Metrics, health)

		return nil
	}
}

func (d *Dependencies) healthChecks() map[string]adapters.DependencyCheck {
	checks := map[string]adapters.DependencyCheck{}

	if conn := d.Infra.BrokerConnection; conn != nil {
		checks["broker"] = func(context.Context) error {
			if !conn.IsConnected() {
				return rabbitmq.ErrNotConnected
			}

			return nil
		}
	}

	if publisher := d.Processing.Publisher; publisher != nil {
		checks["retry_publisher"] = func(context.Context) error {
			if publisher.State() == "open" {
				return ErrRetryPublisherOpen
			}

			return nil
		}
	}

	if d.cfg.SecretStorage.Enabled && d.Repos.SecretStorageRepo != nil {
		checks["secret_storage"] = d.Repos.SecretStorageRepo.Healthy
	}

	return checks
}
