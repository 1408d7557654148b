package infrastructure

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/architeacher/svc-message-retry/internal/config"
)

func newTestMetrics(t *testing.T) (*OTELMetrics, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	logger := NewWithWriter(config.LoggingConfig{Level: "error"}, &bytes.Buffer{})

	metrics, err := newOTELMetrics(provider, "test", logger)
	require.NoError(t, err)

	return metrics, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Aggregation)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}

	return out
}

func sumOf(t *testing.T, data metricdata.Aggregation) int64 {
	t.Helper()

	sum, ok := data.(metricdata.Sum[int64])
	require.True(t, ok, "expected an int64 sum, got %T", data)

	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}

	return total
}

func TestNewMetrics_Disabled(t *testing.T) {
	t.Parallel()

	logger := NewWithWriter(config.LoggingConfig{Level: "error"}, &bytes.Buffer{})

	metrics, err := NewMetrics(context.Background(), config.ServiceConfig{}, logger)
	require.NoError(t, err)

	assert.IsType(t, &NoOpMetrics{}, metrics)

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NoError(t, metrics.Shutdown(context.Background()))
}

func TestOTELMetrics_Records(t *testing.T) {
	t.Parallel()

	metrics, reader := newTestMetrics(t)
	ctx := context.Background()

	metrics.RecordProcessed(ctx, 20*time.Millisecond, OutcomeSuccess, "")
	metrics.RecordProcessed(ctx, 30*time.Millisecond, OutcomeFailed, "http.permanent")
	metrics.RecordRepublished(ctx, "retry_1")
	metrics.RecordRepublished(ctx, "retry_2")
	metrics.RecordRepublished(ctx, "retry_2")
	metrics.RecordGivenUp(ctx, "http.permanent")
	metrics.RecordPublish(ctx, time.Millisecond, true)
	metrics.RecordPublish(ctx, time.Millisecond, false)
	metrics.RecordBreakerTransition(ctx, "publisher", "closed", "open")

	data := collect(t, reader)

	assert.Equal(t, int64(2), sumOf(t, data["messages_processed_total"]))
	assert.Equal(t, int64(3), sumOf(t, data["messages_republished_total"]))
	assert.Equal(t, int64(1), sumOf(t, data["messages_given_up_total"]))
	assert.Equal(t, int64(2), sumOf(t, data["publish_total"]))
	assert.Equal(t, int64(1), sumOf(t, data["circuit_breaker_transitions_total"]))

	histogram, ok := data["message_processing_duration_seconds"].(metricdata.Histogram[float64])
	require.True(t, ok)

	var count uint64
	for _, dp := range histogram.DataPoints {
		count += dp.Count
	}
	assert.Equal(t, uint64(2), count)
}

func TestOTELMetrics_Shutdown(t *testing.T) {
	t.Parallel()

	metrics, _ := newTestMetrics(t)

	assert.NoError(t, metrics.Shutdown(context.Background()))
}

func TestErrorKindAttr(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "none", ErrorKindAttr("").Value.AsString())
	assert.Equal(t, "http.transient", ErrorKindAttr("http.transient").Value.AsString())
}
