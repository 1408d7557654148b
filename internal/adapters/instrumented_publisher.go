package adapters

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/architeacher/svc-message-retry/internal/infrastructure"
	"github.com/architeacher/svc-message-retry/pkg/broker"
)

// InstrumentedPublisher traces and measures publish calls. The trace context of
// ctx is injected into the message headers so the next attempt joins the same trace.
type InstrumentedPublisher struct {
	publisher  broker.MessagePublisher
	metrics    infrastructure.Metrics
	tracer     trace.Tracer
	propagator propagation.TextMapPropagator
	exchange   string
}

func NewInstrumentedPublisher(
	publisher broker.MessagePublisher,
	metrics infrastructure.Metrics,
	tracerProvider trace.TracerProvider,
	exchange string,
) *InstrumentedPublisher {
	return &InstrumentedPublisher{
		publisher:  publisher,
		metrics:    metrics,
		tracer:     tracerProvider.Tracer(tracerName),
		propagator: otel.GetTextMapPropagator(),
		exchange:   exchange,
	}
}

func (p *InstrumentedPublisher) Publish(ctx context.Context, msg broker.Message, routingKey string) error {
	ctx, span := p.tracer.Start(ctx, "message.republish",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("messaging.system", "rabbitmq"),
			attribute.String("messaging.destination.name", p.exchange),
			attribute.String("messaging.rabbitmq.destination.routing_key", routingKey),
		),
	)
	defer span.End()

	carrier := propagation.MapCarrier{}
	p.propagator.Inject(ctx, carrier)

	for k, v := range carrier {
		msg = msg.WithHeader(k, v)
	}

	start := time.Now()
	err := p.publisher.Publish(ctx, msg, routingKey)
	p.metrics.RecordPublish(ctx, time.Since(start), err == nil)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return err
	}

	p.metrics.RecordRepublished(ctx, routingKey)

	return nil
}
