// Package observability provides OpenTelemetry metrics and tracing for the coachos API.
package observability

// Metric names (Prometheus / OpenTelemetry).
const (
	MetricNameWebhooksReceived   = "coachos_webhooks_received_total"
	MetricNameWebhookOutcomes    = "coachos_webhook_outcomes_total"
	MetricNameWebhookAuthFailed  = "coachos_webhook_auth_failures_total"
	MetricNameWebhookDuration    = "coachos_webhook_processing_duration_seconds"
	MetricNameRecordsProcessed   = "coachos_records_processed_total"
	MetricNameActionItemsCreated = "coachos_action_items_created_total"
	MetricNameHTTPRequests       = "coachos_http_requests_total"
	MetricNameHTTPDuration       = "coachos_http_request_duration_seconds"
	MetricNameBodyTooLarge       = "coachos_http_body_too_large_total"
)

// Attribute keys.
const (
	AttrWebhookType = "webhook_type"
	AttrStatus      = "status"
	AttrMethod      = "method"
	AttrRoute       = "route"
	AttrStatusClass = "status_class"
)

// allowedWebhookTypes bounds the webhook_type attribute cardinality. Values
// mirror the router's closed WebhookType enumeration.
var allowedWebhookTypes = map[string]bool{
	"lead_created":        true,
	"lead_updated":        true,
	"session_created":     true,
	"session_updated":     true,
	"client_updated":      true,
	"payment_updated":     true,
	"action_item_updated": true,
	"unknown":             true,
}

// allowedStatuses bounds the status attribute for outcome metrics. Values
// mirror the router's ProcessingStatus enumeration.
var allowedStatuses = map[string]bool{
	"success":         true,
	"partial_success": true,
	"failed":          true,
	"skipped":         true,
}

// NormalizeWebhookType returns webhookType if allowed, otherwise "unknown".
func NormalizeWebhookType(webhookType string) string {
	if allowedWebhookTypes[webhookType] {
		return webhookType
	}

	return "unknown"
}

// NormalizeStatus returns status if allowed, otherwise "other".
func NormalizeStatus(status string) string {
	if allowedStatuses[status] {
		return status
	}

	return "other"
}
