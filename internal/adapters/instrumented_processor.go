package adapters

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/architeacher/svc-message-retry/internal/infrastructure"
	"github.com/architeacher/svc-message-retry/pkg/broker"
	"github.com/architeacher/svc-message-retry/pkg/errkind"
	"github.com/architeacher/svc-message-retry/pkg/processor"
	"github.com/architeacher/svc-message-retry/pkg/processor/retry"
)

const tracerName = "github.com/architeacher/svc-message-retry/internal/adapters"

// InstrumentedProcessor traces and measures every pass through the processor it wraps.
// It declares no options of its own and forwards declarations to the wrapped processor.
type InstrumentedProcessor struct {
	processor  processor.Processor
	metrics    infrastructure.Metrics
	tracer     trace.Tracer
	propagator propagation.TextMapPropagator
	queue      string
}

func NewInstrumentedProcessor(
	inner processor.Processor,
	metrics infrastructure.Metrics,
	tracerProvider trace.TracerProvider,
	queue string,
) *InstrumentedProcessor {
	return &InstrumentedProcessor{
		processor:  inner,
		metrics:    metrics,
		tracer:     tracerProvider.Tracer(tracerName),
		propagator: otel.GetTextMapPropagator(),
		queue:      queue,
	}
}

func (p *InstrumentedProcessor) SetDefaultOptions(resolver *processor.OptionsResolver) {
	processor.Declare(p.processor, resolver)
}

func (p *InstrumentedProcessor) Process(ctx context.Context, msg broker.Message, options processor.Options) error {
	ctx = p.propagator.Extract(ctx, headerCarrier(msg))

	ctx, span := p.tracer.Start(ctx, "message.process",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.system", "rabbitmq"),
			attribute.String("messaging.destination.name", p.queue),
			attribute.Int("messaging.retry.attempts", retry.Attempts(msg)),
		),
	)
	defer span.End()

	if id := stringProperty(msg, "message_id"); id != "" {
		span.SetAttributes(attribute.String("messaging.message.id", id))
	}

	start := time.Now()
	err := processor.Next(ctx, p.processor, msg, options)
	duration := time.Since(start)

	outcome, kind := outcomeOf(err)
	p.metrics.RecordProcessed(ctx, duration, outcome, kind)

	if err == nil {
		span.SetStatus(codes.Ok, "")

		return nil
	}

	if outcome == infrastructure.OutcomeFailed {
		p.metrics.RecordGivenUp(ctx, kind)
	}

	span.SetAttributes(attribute.String("error.kind", kind))
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	return err
}

func outcomeOf(err error) (string, string) {
	var cfgErr *processor.ConfigurationError

	switch {
	case err == nil:
		return infrastructure.OutcomeSuccess, ""
	case errors.As(err, &cfgErr):
		return infrastructure.OutcomeInvalidConfig, ""
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return infrastructure.OutcomeCanceled, ""
	default:
		return infrastructure.OutcomeFailed, string(errkind.Of(err))
	}
}

// headerCarrier exposes the string headers of a message to a propagator.
func headerCarrier(msg broker.Message) propagation.MapCarrier {
	carrier := propagation.MapCarrier{}

	for k, v := range msg.Headers() {
		if s, ok := v.(string); ok {
			carrier[k] = s
		}
	}

	return carrier
}
