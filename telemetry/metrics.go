package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the application instruments. They record into whatever
// meter provider is installed globally; without one they are no-ops.
type Metrics struct {
	RequestCounter   metric.Int64Counter
	RequestDuration  metric.Float64Histogram
	DecksIngested    metric.Int64Counter
	DegradedSearches metric.Int64Counter
}

// NewMetrics creates every instrument from the global meter provider.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(ScopeName)

	requestCounter, err := meter.Int64Counter(
		"http.requests.total",
		metric.WithDescription("Total HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	requestDuration, err := meter.Float64Histogram(
		"http.request.duration",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	decksIngested, err := meter.Int64Counter(
		"deckdex.decks.ingested",
		metric.WithDescription("Decks written by batch ingestion"),
	)
	if err != nil {
		return nil, err
	}

	degradedSearches, err := meter.Int64Counter(
		"deckdex.search.degraded",
		metric.WithDescription("Searches that fell back to lexical results only"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		RequestCounter:   requestCounter,
		RequestDuration:  requestDuration,
		DecksIngested:    decksIngested,
		DegradedSearches: degradedSearches,
	}, nil
}

// RecordRequest counts one HTTP request and its duration.
func (m *Metrics) RecordRequest(ctx context.Context, method, route string, status int, seconds float64) {
	attrs := metric.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("http.route", route),
		attribute.Int("http.status_code", status),
	)
	m.RequestCounter.Add(ctx, 1, attrs)
	m.RequestDuration.Record(ctx, seconds, attrs)
}

// RecordIngest counts one successfully ingested deck.
func (m *Metrics) RecordIngest(ctx context.Context) {
	m.DecksIngested.Add(ctx, 1)
}

// RecordDegradedSearch counts one search answered without semantic results.
func (m *Metrics) RecordDegradedSearch(ctx context.Context) {
	m.DegradedSearches.Add(ctx, 1)
}
