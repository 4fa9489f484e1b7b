package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/sarahcave/coachos/internal/api/response"
	apperrors "github.com/sarahcave/coachos/internal/errors"
	"github.com/sarahcave/coachos/internal/observability"
	"github.com/sarahcave/coachos/internal/webhook"
)

// forcedTables maps the per-table endpoint path segment to the Airtable table
// name whose automation should run, regardless of what the payload says.
var forcedTables = map[string]string{
	"leads":    "Leads",
	"sessions": "Coaching Sessions",
	"clients":  "Clients",
}

// DeliveryProcessor dispatches a normalized delivery to its automation.
type DeliveryProcessor interface {
	Process(ctx context.Context, delivery *webhook.Delivery) *webhook.ProcessingResult
}

// WebhookHandler handles inbound Airtable webhook notifications.
type WebhookHandler struct {
	auth      *webhook.Authenticator
	processor DeliveryProcessor
	metrics   observability.WebhookMetrics
}

// NewWebhookHandler creates a webhook handler. metrics may be nil.
func NewWebhookHandler(auth *webhook.Authenticator, processor DeliveryProcessor, metrics observability.WebhookMetrics) *WebhookHandler {
	return &WebhookHandler{auth: auth, processor: processor, metrics: metrics}
}

// Handle handles POST /webhooks/airtable: verify the signature, parse and
// normalize the payload, and dispatch it. The processing result is always
// returned with 200; failed automations are reported in the body, not the
// status code, so Airtable does not retry deliveries we already recorded.
func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	delivery, ok := h.acceptDelivery(w, r, "")
	if !ok {
		return
	}

	response.RespondJSON(w, http.StatusOK, h.processor.Process(r.Context(), delivery))
}

// HandleTable handles POST /webhooks/airtable/{table}: same pipeline, but the
// webhook type comes from the path instead of payload table names. Used when
// a base's table naming is too ambiguous for classification.
func (h *WebhookHandler) HandleTable(w http.ResponseWriter, r *http.Request) {
	tableName, ok := forcedTables[r.PathValue("table")]
	if !ok {
		response.RespondNotFound(w, "Unknown webhook table")
		return
	}

	delivery, ok := h.acceptDelivery(w, r, tableName)
	if !ok {
		return
	}

	response.RespondJSON(w, http.StatusOK, h.processor.Process(r.Context(), delivery))
}

// acceptDelivery runs the shared authenticate-parse-normalize steps and writes
// the error response itself when a step fails. A non-empty forcedTable
// overrides the classified webhook type.
func (h *WebhookHandler) acceptDelivery(w http.ResponseWriter, r *http.Request, forcedTable string) (*webhook.Delivery, bool) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		response.RespondBadRequest(w, "Failed to read request body")
		return nil, false
	}

	if err := h.auth.Verify(body, r.Header.Get(webhook.SignatureHeader)); err != nil {
		if h.metrics != nil {
			h.metrics.RecordAuthFailure()
		}

		if errors.Is(err, apperrors.ErrMalformedPayload) {
			response.RespondBadRequest(w, err.Error())
			return nil, false
		}

		response.RespondUnauthorized(w, err.Error())

		return nil, false
	}

	payload, err := webhook.ParsePayload(body)
	if err != nil {
		response.RespondBadRequest(w, err.Error())
		return nil, false
	}

	delivery := payload.Normalize()
	if forcedTable != "" {
		delivery.Type = webhook.ClassifyTableName(forcedTable, payload.HasCreatedRecords())
	}

	return delivery, true
}
