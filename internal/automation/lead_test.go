package automation

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sarahcave/coachos/pkg/airtable"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeCompleter struct {
	response string
	err      error
	calls    int
}

func (f *fakeCompleter) Complete(_ context.Context, _, _ string) (string, error) {
	f.calls++
	return f.response, f.err
}

func TestFallbackLeadScore(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		profile LeadProfile
		want    int
	}{
		{
			name: "executive at large tech company via referral",
			profile: LeadProfile{
				Title:           "CEO",
				CompanySize:     600,
				Source:          "Referral from board member",
				Industry:        "Technology",
				EngagementCount: 3,
			},
			// 20 + 30 + 25 + 20 + 15 + 10 = 120, capped.
			want: 100,
		},
		{
			name:    "empty profile gets floor components",
			profile: LeadProfile{},
			// 20 + 5 + 5 + 4 + 8 + 2
			want: 44,
		},
		{
			name: "manager at mid-size retailer from linkedin",
			profile: LeadProfile{
				Title:           "Engineering Manager",
				CompanySize:     120,
				Source:          "LinkedIn",
				Industry:        "Retail",
				EngagementCount: 1,
			},
			// 20 + 15 + 20 + 12 + 12 + 6
			want: 85,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.want, fallbackLeadScore(tc.profile))
		})
	}
}

func TestPriorityForScore(t *testing.T) {
	t.Parallel()

	assert.Equal(t, PriorityHot, priorityForScore(80))
	assert.Equal(t, PriorityWarm, priorityForScore(79))
	assert.Equal(t, PriorityWarm, priorityForScore(60))
	assert.Equal(t, PriorityCold, priorityForScore(59))
}

func TestNurtureTrack(t *testing.T) {
	t.Parallel()

	assert.Equal(t, TrackExecutiveFast, nurtureTrack(LeadProfile{Title: "VP of Sales"}))
	assert.Equal(t, TrackManagerDevelopment, nurtureTrack(LeadProfile{Title: "Director of Ops"}))
	assert.Equal(t, TrackLongTermNurture, nurtureTrack(LeadProfile{Title: "Analyst"}))
}

func TestLeadRedFlags(t *testing.T) {
	t.Parallel()

	flags := leadRedFlags(LeadProfile{
		Title:       "Junior Coordinator",
		CompanySize: 4,
		Notes:       "Mentioned the price seemed high; already works with a consultant.",
	})

	assert.Len(t, flags, 4)
}

func TestLeadScorerRuleBasedWhenNoCompleter(t *testing.T) {
	t.Parallel()

	scorer := NewLeadScorer(nil, testLogger())
	score := scorer.Score(context.Background(), LeadProfile{Title: "CTO", CompanySize: 50, Source: "referral", Industry: "tech"})

	assert.True(t, score.FallbackUsed)
	assert.Equal(t, PriorityHot, score.Priority)
	assert.NotEmpty(t, score.NextAction)
	assert.False(t, score.FollowUpDue.IsZero())
}

func TestLeadScorerAIFailureFallsBack(t *testing.T) {
	t.Parallel()

	completer := &fakeCompleter{err: errors.New("rate limited")}
	scorer := NewLeadScorer(completer, testLogger())

	score := scorer.Score(context.Background(), LeadProfile{Title: "Manager"})
	assert.True(t, score.FallbackUsed)
	assert.Equal(t, 1, completer.calls)
}

func TestLeadScorerUsesParsedAIScore(t *testing.T) {
	t.Parallel()

	completer := &fakeCompleter{response: "Score: 92\nReasoning: Strong executive profile with direct referral."}
	scorer := NewLeadScorer(completer, testLogger())

	score := scorer.Score(context.Background(), LeadProfile{Title: "Analyst"})
	assert.False(t, score.FallbackUsed)
	assert.Equal(t, 92, score.LeadScore)
	assert.Equal(t, PriorityHot, score.Priority)
	assert.Equal(t, "Strong executive profile with direct referral.", score.Reasoning)
}

func TestLeadScorerUnparsableAIFallsBack(t *testing.T) {
	t.Parallel()

	completer := &fakeCompleter{response: "I cannot evaluate this lead."}
	scorer := NewLeadScorer(completer, testLogger())

	score := scorer.Score(context.Background(), LeadProfile{Title: "Analyst"})
	assert.True(t, score.FallbackUsed)
}

func TestLeadProfileFromFields(t *testing.T) {
	t.Parallel()

	profile := LeadProfileFromFields(airtable.Fields{
		"Lead Name":          "Ada Park",
		"Job Title":          "VP Engineering",
		"Company Name":       "Initech",
		"Company Size":       "250 employees",
		"Source":             "Conference",
		"Industry":           "Finance",
		"Engagement History": []any{"call", "email", "demo"},
	}, "recLead0000000001")

	assert.Equal(t, "Ada Park", profile.Name)
	assert.Equal(t, "VP Engineering", profile.Title)
	assert.Equal(t, "Initech", profile.Company)
	assert.Equal(t, 250, profile.CompanySize)
	assert.Equal(t, "Conference", profile.Source)
	assert.Equal(t, 3, profile.EngagementCount)
}

func TestLeadProfileDefaults(t *testing.T) {
	t.Parallel()

	profile := LeadProfileFromFields(airtable.Fields{}, "rec1")
	assert.Equal(t, "Unknown Lead", profile.Name)
	assert.Equal(t, "Unknown", profile.Source)
	assert.Zero(t, profile.CompanySize)
}
