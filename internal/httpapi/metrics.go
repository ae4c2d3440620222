package httpapi

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/lostlondon/vicd/internal/orchestrator"
)

const instrumentationName = "github.com/lostlondon/vicd/internal/httpapi"

// Metrics holds the HTTP and turn-level instruments.
type Metrics struct {
	meter  metric.Meter
	logger *zap.Logger

	requestsTotal  metric.Int64Counter
	requestDur     metric.Float64Histogram
	activeRequests metric.Int64UpDownCounter
	turnDur        metric.Float64Histogram
	raceOutcome    metric.Int64Counter
}

// NewMetrics creates the instrument set.
func NewMetrics(logger *zap.Logger) *Metrics {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Metrics{
		meter:  otel.Meter(instrumentationName),
		logger: logger,
	}
	m.init()
	return m
}

func (m *Metrics) init() {
	var err error

	m.requestsTotal, err = m.meter.Int64Counter(
		"vicd.http.requests_total",
		metric.WithDescription("Total HTTP requests labeled by method, endpoint, and status code."),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		m.logger.Warn("failed to create requests counter", zap.Error(err))
	}

	m.requestDur, err = m.meter.Float64Histogram(
		"vicd.http.request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds, labeled by method, endpoint, and status."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0),
	)
	if err != nil {
		m.logger.Warn("failed to create duration histogram", zap.Error(err))
	}

	m.activeRequests, err = m.meter.Int64UpDownCounter(
		"vicd.http.active_requests",
		metric.WithDescription("Number of HTTP requests currently being served."),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		m.logger.Warn("failed to create active requests counter", zap.Error(err))
	}

	m.turnDur, err = m.meter.Float64Histogram(
		"vicd.turn.duration_seconds",
		metric.WithDescription("End-to-end turn duration in seconds, labeled by turn kind."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 3.0, 5.0, 10.0),
	)
	if err != nil {
		m.logger.Warn("failed to create turn duration histogram", zap.Error(err))
	}

	m.raceOutcome, err = m.meter.Int64Counter(
		"vicd.turn.race_outcome_total",
		metric.WithDescription("Outcome of the filler-vs-answer race: filler_spoken when any filler token went out before the answer, answer_direct otherwise."),
		metric.WithUnit("{turn}"),
	)
	if err != nil {
		m.logger.Warn("failed to create race outcome counter", zap.Error(err))
	}
}

// RequestStarted marks a request in flight. The returned func marks it
// finished and must be called exactly once.
func (m *Metrics) RequestStarted(ctx context.Context) func() {
	if m.activeRequests == nil {
		return func() {}
	}
	m.activeRequests.Add(ctx, 1)
	return func() { m.activeRequests.Add(ctx, -1) }
}

// RecordRequest records one HTTP request.
func (m *Metrics) RecordRequest(ctx context.Context, method, path string, status int, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("endpoint", path),
		attribute.Int("status", status),
	)
	if m.requestsTotal != nil {
		m.requestsTotal.Add(ctx, 1, attrs)
	}
	if m.requestDur != nil {
		m.requestDur.Record(ctx, duration.Seconds(), attrs)
	}
}

// RecordTurn records one completed turn and its race outcome.
func (m *Metrics) RecordTurn(ctx context.Context, result *orchestrator.TurnResult, duration time.Duration) {
	if m.turnDur != nil {
		m.turnDur.Record(ctx, duration.Seconds(),
			metric.WithAttributes(attribute.String("kind", result.Kind.String())))
	}
	if m.raceOutcome != nil && result.Enrichment != nil {
		outcome := "answer_direct"
		if result.FillerTokens > 0 {
			outcome = "filler_spoken"
		}
		m.raceOutcome.Add(ctx, 1,
			metric.WithAttributes(attribute.String("outcome", outcome)))
	}
}
