package instrumentation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys - using constants for consistency.
const (
	attrResult    = "result"
	attrStatus    = "status"
	attrOperation = "operation"
)

// Result values recorded on auth and refresh counters.
const (
	ResultSuccess = "success"
	ResultDenied  = "denied"
	ResultTimeout = "timeout"
	ResultError   = "error"
)

// Metrics provides methods for recording observability metrics.
type Metrics struct {
	// Device-code flow metrics
	authTotal         metric.Int64Counter
	authPollsTotal    metric.Int64Counter
	tokenRefreshTotal metric.Int64Counter

	// Graph API metrics
	graphRequestsTotal   metric.Int64Counter
	graphRequestDuration metric.Float64Histogram
	graphRetriesTotal    metric.Int64Counter

	// Search pipeline metrics
	searchMatchesTotal metric.Int64Counter
}

// NewMetrics creates a new Metrics instance with all instruments initialized.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}

	var err error

	m.authTotal, err = meter.Int64Counter(
		"auth_device_flow_total",
		metric.WithDescription("Total number of device-code authentication attempts"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth_device_flow_total counter: %w", err)
	}

	m.authPollsTotal, err = meter.Int64Counter(
		"auth_device_flow_polls_total",
		metric.WithDescription("Total number of token endpoint polls during the device-code flow"),
		metric.WithUnit("{poll}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth_device_flow_polls_total counter: %w", err)
	}

	m.tokenRefreshTotal, err = meter.Int64Counter(
		"token_refresh_total",
		metric.WithDescription("Total number of silent token refresh attempts"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create token_refresh_total counter: %w", err)
	}

	m.graphRequestsTotal, err = meter.Int64Counter(
		"graph_requests_total",
		metric.WithDescription("Total number of Microsoft Graph requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create graph_requests_total counter: %w", err)
	}

	m.graphRequestDuration, err = meter.Float64Histogram(
		"graph_request_duration_seconds",
		metric.WithDescription("Microsoft Graph request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create graph_request_duration_seconds histogram: %w", err)
	}

	m.graphRetriesTotal, err = meter.Int64Counter(
		"graph_retries_total",
		metric.WithDescription("Total number of retried Microsoft Graph page fetches"),
		metric.WithUnit("{retry}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create graph_retries_total counter: %w", err)
	}

	m.searchMatchesTotal, err = meter.Int64Counter(
		"search_matches_total",
		metric.WithDescription("Total number of messages matched by search criteria"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create search_matches_total counter: %w", err)
	}

	return m, nil
}

// RecordAuth records the outcome of a device-code authentication attempt.
func (m *Metrics) RecordAuth(ctx context.Context, result string) {
	if m == nil {
		return
	}
	m.authTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrResult, result),
	))
}

// RecordAuthPoll records one poll of the token endpoint during the
// device-code flow.
func (m *Metrics) RecordAuthPoll(ctx context.Context, status string) {
	if m == nil {
		return
	}
	m.authPollsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrStatus, status),
	))
}

// RecordTokenRefresh records the outcome of a silent token refresh.
func (m *Metrics) RecordTokenRefresh(ctx context.Context, result string) {
	if m == nil {
		return
	}
	m.tokenRefreshTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrResult, result),
	))
}

// RecordGraphRequest records one Microsoft Graph request and its duration.
func (m *Metrics) RecordGraphRequest(ctx context.Context, operation string, statusCode int, duration time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(attrOperation, operation),
		attribute.String(attrStatus, strconv.Itoa(statusCode)),
	)
	m.graphRequestsTotal.Add(ctx, 1, attrs)
	m.graphRequestDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordGraphRetry records one retried page fetch.
func (m *Metrics) RecordGraphRetry(ctx context.Context, operation string) {
	if m == nil {
		return
	}
	m.graphRetriesTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrOperation, operation),
	))
}

// RecordSearchMatches records the number of messages matched by one search.
func (m *Metrics) RecordSearchMatches(ctx context.Context, n int64) {
	if m == nil {
		return
	}
	m.searchMatchesTotal.Add(ctx, n)
}
