package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// WebhookMetrics records webhook pipeline metrics (receipt, outcome, per-record work).
type WebhookMetrics interface {
	RecordReceived(webhookType string)
	RecordOutcome(webhookType, status string, duration time.Duration)
	RecordAuthFailure()
	RecordRecordsProcessed(webhookType string, count int64)
	RecordActionItemsCreated(count int64)
}

// HTTPMetrics records HTTP request count and duration, plus body-limit rejections.
type HTTPMetrics interface {
	RecordRequest(ctx context.Context, method, route, statusClass string, duration time.Duration)
	RecordRequestBodyTooLarge(ctx context.Context)
}

// Metrics bundles the instrument groups handed to components at wiring time.
type Metrics struct {
	Webhooks WebhookMetrics
	HTTP     HTTPMetrics
}

// NewMetrics creates all instrument groups on the given meter.
// Returns (nil, nil) when meter is nil (metrics disabled); callers check for nil.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	if meter == nil {
		//nolint:nilnil // intentional: callers use "if metrics != nil" when metrics disabled
		return nil, nil
	}

	webhooks, err := newWebhookMetrics(meter)
	if err != nil {
		return nil, err
	}

	httpMetrics, err := newHTTPMetrics(meter)
	if err != nil {
		return nil, err
	}

	return &Metrics{Webhooks: webhooks, HTTP: httpMetrics}, nil
}

type webhookMetrics struct {
	received     metric.Int64Counter
	outcomes     metric.Int64Counter
	authFailures metric.Int64Counter
	duration     metric.Float64Histogram
	records      metric.Int64Counter
	actionItems  metric.Int64Counter
}

func newWebhookMetrics(meter metric.Meter) (*webhookMetrics, error) {
	received, err := meter.Int64Counter(
		MetricNameWebhooksReceived,
		metric.WithDescription("Total webhook deliveries received by type"),
	)
	if err != nil {
		return nil, fmt.Errorf("create webhooks received counter: %w", err)
	}

	outcomes, err := meter.Int64Counter(
		MetricNameWebhookOutcomes,
		metric.WithDescription("Total webhook processing outcomes by type and status"),
	)
	if err != nil {
		return nil, fmt.Errorf("create webhook outcomes counter: %w", err)
	}

	authFailures, err := meter.Int64Counter(
		MetricNameWebhookAuthFailed,
		metric.WithDescription("Total webhook deliveries rejected for bad or missing signatures"),
	)
	if err != nil {
		return nil, fmt.Errorf("create webhook auth failures counter: %w", err)
	}

	duration, err := meter.Float64Histogram(
		MetricNameWebhookDuration,
		metric.WithDescription("Webhook processing duration (seconds)"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create webhook duration histogram: %w", err)
	}

	records, err := meter.Int64Counter(
		MetricNameRecordsProcessed,
		metric.WithDescription("Total record changes processed by webhook type"),
	)
	if err != nil {
		return nil, fmt.Errorf("create records processed counter: %w", err)
	}

	actionItems, err := meter.Int64Counter(
		MetricNameActionItemsCreated,
		metric.WithDescription("Total action item records created in the record store"),
	)
	if err != nil {
		return nil, fmt.Errorf("create action items created counter: %w", err)
	}

	return &webhookMetrics{
		received:     received,
		outcomes:     outcomes,
		authFailures: authFailures,
		duration:     duration,
		records:      records,
		actionItems:  actionItems,
	}, nil
}

func attrWebhookType(webhookType string) attribute.KeyValue {
	return attribute.String(AttrWebhookType, webhookType)
}

func (wm *webhookMetrics) RecordReceived(webhookType string) {
	webhookType = NormalizeWebhookType(webhookType)
	wm.received.Add(context.Background(), 1, metric.WithAttributes(attrWebhookType(webhookType)))
}

func (wm *webhookMetrics) RecordOutcome(webhookType, status string, duration time.Duration) {
	webhookType = NormalizeWebhookType(webhookType)
	status = NormalizeStatus(status)
	attrs := metric.WithAttributes(attrWebhookType(webhookType), attribute.String(AttrStatus, status))
	wm.outcomes.Add(context.Background(), 1, attrs)
	wm.duration.Record(context.Background(), duration.Seconds(), attrs)
}

func (wm *webhookMetrics) RecordAuthFailure() {
	wm.authFailures.Add(context.Background(), 1)
}

func (wm *webhookMetrics) RecordRecordsProcessed(webhookType string, count int64) {
	webhookType = NormalizeWebhookType(webhookType)
	wm.records.Add(context.Background(), count, metric.WithAttributes(attrWebhookType(webhookType)))
}

func (wm *webhookMetrics) RecordActionItemsCreated(count int64) {
	wm.actionItems.Add(context.Background(), count)
}

type httpMetrics struct {
	requests     metric.Int64Counter
	duration     metric.Float64Histogram
	bodyTooLarge metric.Int64Counter
}

func newHTTPMetrics(meter metric.Meter) (*httpMetrics, error) {
	requests, err := meter.Int64Counter(
		MetricNameHTTPRequests,
		metric.WithDescription("Total HTTP requests by method, route, and status class"),
	)
	if err != nil {
		return nil, fmt.Errorf("create http requests counter: %w", err)
	}

	duration, err := meter.Float64Histogram(
		MetricNameHTTPDuration,
		metric.WithDescription("HTTP request duration (seconds)"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create http duration histogram: %w", err)
	}

	bodyTooLarge, err := meter.Int64Counter(
		MetricNameBodyTooLarge,
		metric.WithDescription("Total requests rejected for exceeding the body size limit"),
	)
	if err != nil {
		return nil, fmt.Errorf("create body too large counter: %w", err)
	}

	return &httpMetrics{requests: requests, duration: duration, bodyTooLarge: bodyTooLarge}, nil
}

func (hm *httpMetrics) RecordRequest(ctx context.Context, method, route, statusClass string, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String(AttrMethod, method),
		attribute.String(AttrRoute, route),
		attribute.String(AttrStatusClass, statusClass),
	)
	hm.requests.Add(ctx, 1, attrs)
	hm.duration.Record(ctx, duration.Seconds(), attrs)
}

func (hm *httpMetrics) RecordRequestBodyTooLarge(ctx context.Context) {
	hm.bodyTooLarge.Add(ctx, 1)
}
