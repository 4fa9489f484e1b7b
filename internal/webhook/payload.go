package webhook

import (
	"encoding/json"
	"sort"
	"time"

	apperrors "github.com/sarahcave/coachos/internal/errors"
	"github.com/sarahcave/coachos/pkg/airtable"
)

// Payload is the raw Airtable webhook notification body.
type Payload struct {
	Webhook struct {
		ID string `json:"id"`
	} `json:"webhook"`
	Base struct {
		ID string `json:"id"`
	} `json:"base"`
	Timestamp         string                 `json:"timestamp"`
	ChangedTablesByID map[string]TableChange `json:"changedTablesById"`
}

// TableChange holds one table's record-level changes. A record appears in at
// most one of created/changed/destroyed per delivery.
type TableChange struct {
	Name               string                      `json:"name"`
	CreatedRecordsByID map[string]CreatedRecord    `json:"createdRecordsById"`
	ChangedRecordsByID map[string]RecordTransition `json:"changedRecordsById"`
	DestroyedRecordIDs []string                    `json:"destroyedRecordIds"`
}

// CreatedRecord is a newly created record's snapshot.
type CreatedRecord struct {
	CreatedTime string          `json:"createdTime"`
	Fields      airtable.Fields `json:"fields"`
}

// RecordTransition is an updated record's before/after field snapshots.
type RecordTransition struct {
	Previous RecordSnapshot `json:"previous"`
	Current  RecordSnapshot `json:"current"`
}

// RecordSnapshot wraps a field map.
type RecordSnapshot struct {
	Fields airtable.Fields `json:"fields"`
}

// Delivery is the normalized form of one webhook payload: classified,
// flattened to a list of record changes, ready for dispatch.
type Delivery struct {
	WebhookID           string         `json:"webhook_id"`
	Type                WebhookType    `json:"webhook_type"`
	BaseID              string         `json:"base_id"`
	Timestamp           string         `json:"timestamp"`
	ChangedTables       []string       `json:"changed_tables"`
	RecordChanges       []RecordChange `json:"record_changes"`
	TotalRecordsChanged int            `json:"total_records_changed"`
}

// ParsePayload decodes a webhook notification body.
func ParsePayload(body []byte) (*Payload, error) {
	var payload Payload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, apperrors.NewMalformedPayloadError("invalid webhook payload: " + err.Error())
	}

	return &payload, nil
}

// Normalize classifies the payload and flattens its per-table change maps
// into an ordered list of record changes. Tables are walked in sorted
// table-ID order so classification and change ordering are deterministic
// regardless of JSON map iteration.
func (p *Payload) Normalize() *Delivery {
	timestamp := p.Timestamp
	if timestamp == "" {
		timestamp = time.Now().UTC().Format(time.RFC3339)
	}

	delivery := &Delivery{
		WebhookID: p.Webhook.ID,
		Type:      Classify(p),
		BaseID:    p.Base.ID,
		Timestamp: timestamp,
	}

	for _, tableID := range p.sortedTableIDs() {
		table := p.ChangedTablesByID[tableID]
		delivery.ChangedTables = append(delivery.ChangedTables, tableID)
		delivery.RecordChanges = append(delivery.RecordChanges, extractTableChanges(tableID, table)...)
		delivery.TotalRecordsChanged += len(table.ChangedRecordsByID)
	}

	return delivery
}

// HasCreatedRecords reports whether any changed table carries created records.
func (p *Payload) HasCreatedRecords() bool {
	for _, table := range p.ChangedTablesByID {
		if len(table.CreatedRecordsByID) > 0 {
			return true
		}
	}

	return false
}

func (p *Payload) sortedTableIDs() []string {
	ids := make([]string, 0, len(p.ChangedTablesByID))
	for id := range p.ChangedTablesByID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func extractTableChanges(tableID string, table TableChange) []RecordChange {
	tableName := table.Name
	if tableName == "" {
		tableName = "Unknown Table"
	}

	var changes []RecordChange

	for _, recordID := range sortedKeys(table.CreatedRecordsByID) {
		record := table.CreatedRecordsByID[recordID]
		changes = append(changes, RecordChange{
			TableID:     tableID,
			TableName:   tableName,
			RecordID:    recordID,
			ChangeType:  ChangeCreated,
			Fields:      record.Fields,
			CreatedTime: record.CreatedTime,
		})
	}

	for _, recordID := range sortedKeys(table.ChangedRecordsByID) {
		transition := table.ChangedRecordsByID[recordID]
		changes = append(changes, RecordChange{
			TableID:        tableID,
			TableName:      tableName,
			RecordID:       recordID,
			ChangeType:     ChangeUpdated,
			PreviousFields: transition.Previous.Fields,
			CurrentFields:  transition.Current.Fields,
			ChangedFields:  fieldNameUnion(transition.Previous.Fields, transition.Current.Fields),
		})
	}

	for _, recordID := range table.DestroyedRecordIDs {
		changes = append(changes, RecordChange{
			TableID:    tableID,
			TableName:  tableName,
			RecordID:   recordID,
			ChangeType: ChangeDestroyed,
		})
	}

	return changes
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// fieldNameUnion lists every field name present before or after the change.
func fieldNameUnion(previous, current airtable.Fields) []string {
	seen := make(map[string]struct{}, len(previous)+len(current))
	for name := range previous {
		seen[name] = struct{}{}
	}
	for name := range current {
		seen[name] = struct{}{}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
