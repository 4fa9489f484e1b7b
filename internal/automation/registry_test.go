package automation

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sarahcave/coachos/internal/webhook"
	"github.com/sarahcave/coachos/pkg/airtable"
)

func newTestRegistry() *Registry {
	logger := testLogger()
	return NewRegistry(
		NewLeadScorer(nil, logger),
		NewSessionProcessor(logger),
		NewHealthMonitor(nil, logger),
		logger,
	)
}

func TestHandleLeadsScoresLeadRecords(t *testing.T) {
	t.Parallel()

	r := newTestRegistry()

	delivery := &webhook.Delivery{
		Type: webhook.TypeLeadCreated,
		RecordChanges: []webhook.RecordChange{
			{
				TableName:  "Leads",
				RecordID:   "recLead0000000001",
				ChangeType: webhook.ChangeCreated,
				Fields:     airtable.Fields{"Name": "Ada Park", "Title": "CEO"},
			},
			{
				// Different table in the same delivery is ignored.
				TableName:  "Invoices",
				RecordID:   "recInv00000000001",
				ChangeType: webhook.ChangeCreated,
				Fields:     airtable.Fields{},
			},
			{
				// Destroyed records carry no fields to score.
				TableName:  "Leads",
				RecordID:   "recLead0000000002",
				ChangeType: webhook.ChangeDestroyed,
			},
		},
	}

	results, errs := r.HandleLeads(context.Background(), delivery)

	assert.Empty(t, errs)
	require.Len(t, results, 1)
	assert.Equal(t, "recLead0000000001", results[0].RecordID)
	assert.Equal(t, NameLeadScoring, results[0].AutomationType)

	score, ok := results[0].Result.(LeadScore)
	require.True(t, ok)
	assert.Equal(t, TrackExecutiveFast, score.NurtureTrack)
}

func TestHandleLeadsIsolatesBadRecords(t *testing.T) {
	t.Parallel()

	r := newTestRegistry()

	changes := make([]webhook.RecordChange, 0, 5)
	for i := 0; i < 5; i++ {
		fields := airtable.Fields{"Name": "Lead", "Company": "Acme"}
		if i == 2 {
			fields = airtable.Fields{} // nothing usable
		}
		changes = append(changes, webhook.RecordChange{
			TableName:  "Leads",
			RecordID:   "recLead" + string(rune('A'+i)),
			ChangeType: webhook.ChangeCreated,
			Fields:     fields,
		})
	}

	results, errs := r.HandleLeads(context.Background(), &webhook.Delivery{RecordChanges: changes})
	assert.Len(t, results, 4)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "recLeadC")
}

func TestHandleSessionsRequiresRawNotes(t *testing.T) {
	t.Parallel()

	r := newTestRegistry()

	delivery := &webhook.Delivery{
		RecordChanges: []webhook.RecordChange{
			{
				TableName:  "Coaching Sessions",
				RecordID:   "recSession0000001",
				ChangeType: webhook.ChangeCreated,
				Fields:     airtable.Fields{"Client Name": "Jane Doe", "Raw Notes": "Great breakthrough on delegation."},
			},
			{
				TableName:  "Coaching Sessions",
				RecordID:   "recSession0000002",
				ChangeType: webhook.ChangeCreated,
				Fields:     airtable.Fields{"Client Name": "Sam Lee"},
			},
		},
	}

	results, errs := r.HandleSessions(context.Background(), delivery)

	assert.Empty(t, errs)
	require.Len(t, results, 1)
	assert.Equal(t, "recSession0000001", results[0].RecordID)

	report, ok := results[0].Result.(SessionReport)
	require.True(t, ok)
	assert.NotEmpty(t, report.ActionItems)
}

func TestHandleSessionsLogsSkippedRecords(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	r := NewRegistry(
		NewLeadScorer(nil, logger),
		NewSessionProcessor(logger),
		NewHealthMonitor(nil, logger),
		logger,
	)

	delivery := &webhook.Delivery{
		RecordChanges: []webhook.RecordChange{
			{
				TableName:  "Coaching Sessions",
				RecordID:   "recSession0000003",
				ChangeType: webhook.ChangeUpdated,
				CurrentFields: airtable.Fields{
					"Client Name": "Sam Lee",
				},
			},
		},
	}

	results, errs := r.HandleSessions(context.Background(), delivery)

	assert.Empty(t, results)
	assert.Empty(t, errs)
	assert.Contains(t, logs.String(), "recSession0000003")
	assert.Contains(t, logs.String(), "raw notes")
}

func TestHandleClientHealthCollectsClients(t *testing.T) {
	t.Parallel()

	r := newTestRegistry()

	delivery := &webhook.Delivery{
		Type: webhook.TypePaymentUpdated,
		RecordChanges: []webhook.RecordChange{
			{
				TableName:  "Clients",
				RecordID:   "recClientB0000001",
				ChangeType: webhook.ChangeUpdated,
				CurrentFields: airtable.Fields{
					"Client Name": "Jane Doe",
				},
			},
			{
				TableName:  "Invoices",
				RecordID:   "recInv00000000001",
				ChangeType: webhook.ChangeUpdated,
				CurrentFields: airtable.Fields{
					"Client": []any{"recClientA0000001"},
				},
			},
			{
				// Invoice without a client link contributes nothing.
				TableName:     "Invoices",
				RecordID:      "recInv00000000002",
				ChangeType:    webhook.ChangeUpdated,
				CurrentFields: airtable.Fields{},
			},
		},
	}

	results, errs := r.HandleClientHealth(context.Background(), delivery)

	assert.Empty(t, errs)
	require.Len(t, results, 2)
	// Sorted by client ID for deterministic output.
	assert.Equal(t, "recClientA0000001", results[0].ClientID)
	assert.Equal(t, "recClientB0000001", results[1].ClientID)

	assessment, ok := results[0].Result.(HealthAssessment)
	require.True(t, ok)
	assert.NotEmpty(t, assessment.HealthStatus)
}

func TestHandleActionItemsLogsAndReassesses(t *testing.T) {
	t.Parallel()

	r := newTestRegistry()

	delivery := &webhook.Delivery{
		Type: webhook.TypeActionItemUpdate,
		RecordChanges: []webhook.RecordChange{
			{
				TableName:  "Action Items",
				RecordID:   "recItem0000000001",
				ChangeType: webhook.ChangeUpdated,
				CurrentFields: airtable.Fields{
					"Status": "completed",
					"Client": []any{"recClient00000001"},
				},
			},
		},
	}

	results, errs := r.HandleActionItems(context.Background(), delivery)

	assert.Empty(t, errs)
	require.Len(t, results, 2)

	logged, ok := results[0].Result.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "logged_change", logged["action"])
	assert.Equal(t, "completed", logged["status"])

	assert.Equal(t, "recClient00000001", results[1].ClientID)
	assert.Equal(t, "action_item_update", results[1].TriggeredBy)
}
