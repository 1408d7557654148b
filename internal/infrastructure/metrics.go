package infrastructure

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/architeacher/svc-message-retry/internal/config"
)

const (
	metricsNamespace = "message_retry"

	OutcomeSuccess       = "success"
	OutcomeFailed        = "failed"
	OutcomeInvalidConfig = "invalid_config"
	OutcomeCanceled      = "canceled"
)

type (
	Metrics interface {
		// RecordProcessed records one pass of a message through the processor stack.
		RecordProcessed(ctx context.Context, duration time.Duration, outcome, errorKind string)
		RecordRepublished(ctx context.Context, routingKey string)
		RecordGivenUp(ctx context.Context, errorKind string)
		RecordPublish(ctx context.Context, duration time.Duration, success bool)
		RecordBreakerTransition(ctx context.Context, name, from, to string)
		Handler() http.Handler
		Shutdown(ctx context.Context) error
	}

	OTELMetrics struct {
		meterProvider *sdkmetric.MeterProvider
		meter         metric.Meter
		logger        Logger

		processedTotal     metric.Int64Counter
		processingDuration metric.Float64Histogram
		republishedTotal   metric.Int64Counter
		givenUpTotal       metric.Int64Counter
		publishTotal       metric.Int64Counter
		publishDuration    metric.Float64Histogram
		breakerTransitions metric.Int64Counter
	}
)

func NewMetrics(ctx context.Context, cfg config.ServiceConfig, logger Logger) (Metrics, error) {
	if !cfg.Telemetry.Metrics.Enabled {
		logger.Info().Msg("metrics disabled, using NoOp implementation")

		return &NoOpMetrics{}, nil
	}

	return NewOTELMetrics(ctx, cfg, logger)
}

func NewOTELMetrics(ctx context.Context, cfg config.ServiceConfig, logger Logger) (*OTELMetrics, error) {
	endpoint := fmt.Sprintf("%s:%s", cfg.Telemetry.OtelGRPCHost, cfg.Telemetry.OtelGRPCPort)

	conn, err := grpc.NewClient(
		endpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC connection to OTEL collector: %w", err)
	}

	exporter, err := otlpmetricgrpc.New(ctx, otlpmetricgrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP metric exporter: %w", err)
	}

	res, err := newResource(ctx, cfg.AppConfig)
	if err != nil {
		return nil, err
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(meterProvider)

	provider, err := newOTELMetrics(meterProvider, cfg.AppConfig.ServiceVersion, logger)
	if err != nil {
		return nil, err
	}

	logger.Info().
		Str("otel_endpoint", endpoint).
		Msg("OTEL metrics provider initialized successfully")

	return provider, nil
}

func newOTELMetrics(meterProvider *sdkmetric.MeterProvider, version string, logger Logger) (*OTELMetrics, error) {
	meter := meterProvider.Meter(
		metricsNamespace,
		metric.WithInstrumentationVersion(version),
	)

	provider := &OTELMetrics{
		meterProvider: meterProvider,
		meter:         meter,
		logger:        Logger{Logger: logger.Component("metrics")},
	}

	if err := provider.initializeMetrics(); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	return provider, nil
}

func newResource(ctx context.Context, app config.AppConfig) (*resource.Resource, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(app.ServiceName),
			semconv.ServiceVersionKey.String(app.ServiceVersion),
			semconv.ServiceInstanceIDKey.String(app.CommitSHA),
			semconv.DeploymentEnvironmentKey.String(app.Env),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	return res, nil
}

func (om *OTELMetrics) initializeMetrics() error {
	var err error

	om.processedTotal, err = om.meter.Int64Counter(
		"messages_processed_total",
		metric.WithDescription("Total number of messages passed through the processor stack"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return fmt.Errorf("failed to create messages_processed_total counter: %w", err)
	}

	om.processingDuration, err = om.meter.Float64Histogram(
		"message_processing_duration_seconds",
		metric.WithDescription("Message processing duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return fmt.Errorf("failed to create message_processing_duration_seconds histogram: %w", err)
	}

	om.republishedTotal, err = om.meter.Int64Counter(
		"messages_republished_total",
		metric.WithDescription("Total number of messages republished for another attempt"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return fmt.Errorf("failed to create messages_republished_total counter: %w", err)
	}

	om.givenUpTotal, err = om.meter.Int64Counter(
		"messages_given_up_total",
		metric.WithDescription("Total number of messages whose retries were exhausted"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return fmt.Errorf("failed to create messages_given_up_total counter: %w", err)
	}

	om.publishTotal, err = om.meter.Int64Counter(
		"publish_total",
		metric.WithDescription("Total number of publish calls to the broker"),
		metric.WithUnit("{publish}"),
	)
	if err != nil {
		return fmt.Errorf("failed to create publish_total counter: %w", err)
	}

	om.publishDuration, err = om.meter.Float64Histogram(
		"publish_duration_seconds",
		metric.WithDescription("Broker publish duration in seconds, confirms included"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return fmt.Errorf("failed to create publish_duration_seconds histogram: %w", err)
	}

	om.breakerTransitions, err = om.meter.Int64Counter(
		"circuit_breaker_transitions_total",
		metric.WithDescription("Total number of circuit breaker state changes"),
		metric.WithUnit("{transition}"),
	)
	if err != nil {
		return fmt.Errorf("failed to create circuit_breaker_transitions_total counter: %w", err)
	}

	return nil
}

func (om *OTELMetrics) RecordProcessed(ctx context.Context, duration time.Duration, outcome, errorKind string) {
	om.processedTotal.Add(ctx, 1,
		metric.WithAttributes(
			OutcomeAttr(outcome),
			ErrorKindAttr(errorKind),
		),
	)

	om.processingDuration.Record(ctx, duration.Seconds(),
		metric.WithAttributes(
			OutcomeAttr(outcome),
		),
	)
}

func (om *OTELMetrics) RecordRepublished(ctx context.Context, routingKey string) {
	om.republishedTotal.Add(ctx, 1,
		metric.WithAttributes(
			RoutingKeyAttr(routingKey),
		),
	)
}

func (om *OTELMetrics) RecordGivenUp(ctx context.Context, errorKind string) {
	om.givenUpTotal.Add(ctx, 1,
		metric.WithAttributes(
			ErrorKindAttr(errorKind),
		),
	)
}

func (om *OTELMetrics) RecordPublish(ctx context.Context, duration time.Duration, success bool) {
	status := StatusAttr(statusOf(success))

	om.publishTotal.Add(ctx, 1, metric.WithAttributes(status))
	om.publishDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(status))
}

func (om *OTELMetrics) RecordBreakerTransition(ctx context.Context, name, from, to string) {
	om.breakerTransitions.Add(ctx, 1,
		metric.WithAttributes(
			BreakerAttr(name),
			BreakerFromAttr(from),
			BreakerToAttr(to),
		),
	)
}

func (om *OTELMetrics) Handler() http.Handler {
	return promhttp.Handler()
}

func (om *OTELMetrics) Shutdown(ctx context.Context) error {
	if om.meterProvider == nil {
		return nil
	}

	if err := om.meterProvider.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown meter provider: %w", err)
	}

	om.logger.Info().Msg("OTEL metrics provider shut down")

	return nil
}

func statusOf(success bool) string {
	if success {
		return "success"
	}

	return "error"
}
