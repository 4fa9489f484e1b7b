package automation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sarahcave/coachos/pkg/airtable"
)

func newFrozenSessionProcessor(at time.Time) *SessionProcessor {
	p := NewSessionProcessor(testLogger())
	p.now = func() time.Time { return at }
	return p
}

func TestSessionProcessOutcomes(t *testing.T) {
	t.Parallel()

	p := NewSessionProcessor(testLogger())

	tests := []struct {
		name             string
		notes            string
		wantOutcome      SessionOutcome
		wantSatisfaction int
		wantHealth       string
	}{
		{
			name:             "positive notes",
			notes:            "Real breakthrough today, excellent progress on delegation, client fully engaged.",
			wantOutcome:      OutcomeProgress,
			wantSatisfaction: 8,
			wantHealth:       "Healthy",
		},
		{
			name:             "negative notes",
			notes:            "Client seemed frustrated and stuck, a difficult session overall.",
			wantOutcome:      OutcomeChallenge,
			wantSatisfaction: 5,
			wantHealth:       "At Risk",
		},
		{
			name:             "neutral notes",
			notes:            "Covered quarterly goals and planning for the offsite.",
			wantOutcome:      OutcomeMaintenance,
			wantSatisfaction: 6,
			wantHealth:       "Healthy",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			report := p.Process(context.Background(), SessionData{ClientName: "Jane Doe", RawNotes: tc.notes})
			assert.Equal(t, tc.wantOutcome, report.Outcome)
			assert.Equal(t, tc.wantSatisfaction, report.ClientSatisfaction)
			assert.Equal(t, tc.wantHealth, report.HealthSignal)
			assert.Contains(t, report.Summary, "Jane Doe")
			assert.True(t, report.FallbackUsed)
		})
	}
}

func TestSessionActionItemExtraction(t *testing.T) {
	t.Parallel()

	// Monday.
	now := time.Date(2024, time.January, 1, 10, 0, 0, 0, time.UTC)
	p := newFrozenSessionProcessor(now)

	notes := "Client will practice active listening with direct reports this week. " +
		"We agreed she will review the feedback survey results by Friday. " +
		"General discussion about offsite logistics."

	report := p.Process(context.Background(), SessionData{ClientName: "Jane Doe", RawNotes: notes})

	require.Len(t, report.ActionItems, 2)
	assert.Contains(t, report.ActionItems[0].Description, "practice active listening")
	// No explicit date defaults to one week out.
	assert.Equal(t, "2024-01-08", report.ActionItems[0].DueDate)
	// "by Friday" resolves against the frozen reference date.
	assert.Equal(t, "2024-01-05", report.ActionItems[1].DueDate)
	assert.Equal(t, "Medium", report.ActionItems[0].Priority)
}

func TestSessionActionItemsGuaranteeOne(t *testing.T) {
	t.Parallel()

	p := NewSessionProcessor(testLogger())
	report := p.Process(context.Background(), SessionData{ClientName: "Jane Doe", RawNotes: "Short chat."})

	require.Len(t, report.ActionItems, 1)
	assert.Equal(t, "Implement insights from today's coaching session", report.ActionItems[0].Description)
}

func TestSessionActionItemsCapped(t *testing.T) {
	t.Parallel()

	notes := "Client will do the first exercise this cycle. " +
		"Client will do the second exercise this cycle. " +
		"Client will do the third exercise this cycle. " +
		"Client will do the fourth exercise this cycle."

	p := NewSessionProcessor(testLogger())
	report := p.Process(context.Background(), SessionData{RawNotes: notes})

	assert.Len(t, report.ActionItems, maxExtractedSessionItems)
}

func TestSessionDataFromFields(t *testing.T) {
	t.Parallel()

	session := SessionDataFromFields(airtable.Fields{
		"Client":     "Jane Doe",
		"Date":       "2024-01-05",
		"Duration":   float64(90),
		"Raw Notes":  "Notes here",
		"Model Used": "Situational Leadership",
	}, "recSession0000001")

	assert.Equal(t, "Jane Doe", session.ClientName)
	assert.Equal(t, "2024-01-05", session.SessionDate)
	assert.Equal(t, 90, session.DurationMinutes)
	assert.Equal(t, "1-on-1 Coaching", session.SessionType)
	assert.Equal(t, "Situational Leadership", session.LeadershipModel)
}

func TestSessionDataDefaults(t *testing.T) {
	t.Parallel()

	session := SessionDataFromFields(airtable.Fields{}, "rec1")
	assert.Equal(t, "Unknown Client", session.ClientName)
	assert.Equal(t, 60, session.DurationMinutes)
	assert.NotEmpty(t, session.SessionDate)
}
