package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestInitTracer_Disabled(t *testing.T) {
	prev := otel.GetTracerProvider()

	shutdown, err := InitTracer(context.Background(), TracerConfig{ServiceName: "deckdex"}, nil)
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.Same(t, prev, otel.GetTracerProvider(), "global provider is untouched")
	assert.NoError(t, shutdown(context.Background()))
}

func TestInitTracer_Enabled(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	shutdown, err := InitTracer(context.Background(), TracerConfig{
		Endpoint:    "localhost:4317",
		ServiceName: "deckdex-test",
		Version:     "test",
		Insecure:    true,
	}, nil)
	require.NoError(t, err)

	_, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider)
	assert.True(t, ok, "an SDK provider is installed")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, shutdown(ctx))
}

func TestSampler(t *testing.T) {
	assert.Equal(t, sdktrace.AlwaysSample().Description(), sampler(0).Description())
	assert.Equal(t, sdktrace.AlwaysSample().Description(), sampler(1).Description())
	assert.Contains(t, sampler(0.25).Description(), "TraceIDRatioBased")
}

func TestMetrics(t *testing.T) {
	m, err := NewMetrics()
	require.NoError(t, err)

	ctx := context.Background()
	assert.NotPanics(t, func() {
		m.RecordRequest(ctx, "GET", "/api/search", 200, 0.012)
		m.RecordIngest(ctx)
		m.RecordDegradedSearch(ctx)
	})
}
