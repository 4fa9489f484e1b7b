// Package webhook receives Airtable change-notification payloads,
// authenticates them, classifies them into a webhook type by inspecting which
// table changed, and dispatches to the registered automation handler.
package webhook

import (
	"github.com/sarahcave/coachos/pkg/airtable"
)

// WebhookType is the semantic intent of a delivery, inferred from the changed
// tables. Downstream automations are keyed by it.
type WebhookType string

const (
	TypeLeadCreated      WebhookType = "lead_created"
	TypeLeadUpdated      WebhookType = "lead_updated"
	TypeSessionCreated   WebhookType = "session_created"
	TypeSessionUpdated   WebhookType = "session_updated"
	TypeClientUpdated    WebhookType = "client_updated"
	TypePaymentUpdated   WebhookType = "payment_updated"
	TypeActionItemUpdate WebhookType = "action_item_updated"
	TypeUnknown          WebhookType = "unknown"
)

// ProcessingStatus is the aggregate outcome of dispatching one delivery.
type ProcessingStatus string

const (
	StatusSuccess        ProcessingStatus = "success"
	StatusPartialSuccess ProcessingStatus = "partial_success"
	StatusFailed         ProcessingStatus = "failed"
	StatusSkipped        ProcessingStatus = "skipped"
)

// ChangeType tags a normalized record change.
type ChangeType string

const (
	ChangeCreated   ChangeType = "created"
	ChangeUpdated   ChangeType = "updated"
	ChangeDestroyed ChangeType = "destroyed"
)

// RecordChange is one record-level change, normalized out of the payload's
// nested per-table maps. Fields is set for created records; PreviousFields
// and CurrentFields for updated records; destroyed records carry only IDs.
type RecordChange struct {
	TableID        string          `json:"table_id"`
	TableName      string          `json:"table_name"`
	RecordID       string          `json:"record_id"`
	ChangeType     ChangeType      `json:"change_type"`
	Fields         airtable.Fields `json:"fields,omitempty"`
	PreviousFields airtable.Fields `json:"previous_fields,omitempty"`
	CurrentFields  airtable.Fields `json:"current_fields,omitempty"`
	ChangedFields  []string        `json:"changed_fields,omitempty"`
	CreatedTime    string          `json:"created_time,omitempty"`
}

// EffectiveFields returns the field map an automation should read: the full
// field set for created records, the post-change values for updated ones.
// Destroyed records have none.
func (rc RecordChange) EffectiveFields() airtable.Fields {
	switch rc.ChangeType {
	case ChangeCreated:
		return rc.Fields
	case ChangeUpdated:
		return rc.CurrentFields
	default:
		return nil
	}
}
