package automation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sarahcave/coachos/internal/actionitems"
	"github.com/sarahcave/coachos/pkg/airtable"
)

// SessionOutcome classifies how a coaching session went.
type SessionOutcome string

const (
	OutcomeBreakthrough SessionOutcome = "Breakthrough"
	OutcomeProgress     SessionOutcome = "Progress"
	OutcomeMaintenance  SessionOutcome = "Maintenance"
	OutcomeChallenge    SessionOutcome = "Challenge"
)

// SessionData is the normalized input to session processing.
type SessionData struct {
	RecordID        string `json:"record_id"`
	ClientName      string `json:"client_name"`
	SessionDate     string `json:"session_date"`
	DurationMinutes int    `json:"session_duration"`
	SessionType     string `json:"session_type"`
	LeadershipModel string `json:"leadership_model"`
	ClientGoals     string `json:"client_goals"`
	RawNotes        string `json:"raw_notes"`
	PreviousActions string `json:"previous_actions"`
}

// SessionDataFromFields maps a session record's fields onto SessionData.
func SessionDataFromFields(fields airtable.Fields, recordID string) SessionData {
	clientName := fields.String("Client Name", "Client")
	if clientName == "" {
		clientName = "Unknown Client"
	}

	sessionDate := fields.String("Session Date", "Date")
	if sessionDate == "" {
		sessionDate = time.Now().UTC().Format(time.RFC3339)
	}

	duration := 60
	if n, ok := fields.Number("Duration", "Session Duration"); ok {
		duration = int(n)
	}

	sessionType := fields.String("Session Type")
	if sessionType == "" {
		sessionType = "1-on-1 Coaching"
	}

	return SessionData{
		RecordID:        recordID,
		ClientName:      clientName,
		SessionDate:     sessionDate,
		DurationMinutes: duration,
		SessionType:     sessionType,
		LeadershipModel: fields.String("Leadership Model", "Model Used"),
		ClientGoals:     fields.String("Client Goals"),
		RawNotes:        fields.String("Raw Notes", "raw_notes"),
		PreviousActions: fields.String("Previous Action Items"),
	}
}

// SessionActionItem is one commitment distilled from the session notes.
type SessionActionItem struct {
	Description     string    `json:"action_description"`
	Priority        string    `json:"priority_level"`
	DueDate         string    `json:"due_date"`
	SuccessMetric   string    `json:"success_metric"`
	DevelopmentArea string    `json:"leadership_development_area"`
	ClientName      string    `json:"client_name"`
	SessionDate     string    `json:"session_date"`
	CreatedAt       time.Time `json:"created_at"`
}

// SessionReport is the processed result for one session record.
type SessionReport struct {
	Summary            string              `json:"session_summary"`
	Outcome            SessionOutcome      `json:"session_outcome"`
	ClientSatisfaction int                 `json:"client_satisfaction"`
	HealthSignal       string              `json:"health_score"`
	RedFlags           []string            `json:"red_flags"`
	NextSessionFocus   string              `json:"next_session_focus"`
	ActionItems        []SessionActionItem `json:"action_items"`
	ProcessedAt        time.Time           `json:"processed_at"`
	FallbackUsed       bool                `json:"fallback_used"`
}

// SessionProcessor turns raw session notes into a structured report with
// extracted action items. Word-list sentiment stands in when no AI summary
// is available.
type SessionProcessor struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewSessionProcessor creates a processor.
func NewSessionProcessor(logger *slog.Logger) *SessionProcessor {
	return &SessionProcessor{logger: logger, now: time.Now}
}

var (
	positiveSessionWords = []string{"breakthrough", "progress", "excellent", "great", "successful", "engaged"}
	negativeSessionWords = []string{"challenge", "difficult", "struggle", "frustrated", "stuck", "resistance"}

	actionSentenceKeywords = []string{"will", "commit", "action", "follow up", "implement", "practice", "review"}
)

const maxExtractedSessionItems = 3

// Process builds a report from the session's raw notes. Notes are required;
// the caller gates on their presence.
func (p *SessionProcessor) Process(ctx context.Context, session SessionData) SessionReport {
	notes := strings.ToLower(session.RawNotes)

	positive := countOccurrences(notes, positiveSessionWords)
	negative := countOccurrences(notes, negativeSessionWords)

	var (
		outcome      SessionOutcome
		satisfaction int
		healthSignal string
	)
	switch {
	case positive > negative+1:
		outcome, satisfaction, healthSignal = OutcomeProgress, 8, "Healthy"
	case negative > positive:
		outcome, satisfaction, healthSignal = OutcomeChallenge, 5, "At Risk"
	default:
		outcome, satisfaction, healthSignal = OutcomeMaintenance, 6, "Healthy"
	}

	wordCount := len(strings.Fields(session.RawNotes))
	summary := fmt.Sprintf(
		"Session covered key leadership topics with %s. Discussion included %d words of content focusing on leadership development and goal progression.",
		session.ClientName, wordCount)

	return SessionReport{
		Summary:            summary,
		Outcome:            outcome,
		ClientSatisfaction: satisfaction,
		HealthSignal:       healthSignal,
		RedFlags:           []string{},
		NextSessionFocus:   "Follow up on session insights and action item progress",
		ActionItems:        p.extractActionItems(session),
		ProcessedAt:        p.now().UTC(),
		FallbackUsed:       true,
	}
}

// extractActionItems pulls commitment-shaped sentences out of the notes,
// capped at three, and guarantees at least one item so every processed
// session leaves the client with a next step.
func (p *SessionProcessor) extractActionItems(session SessionData) []SessionActionItem {
	var items []SessionActionItem

	for _, sentence := range strings.Split(session.RawNotes, ".") {
		sentence = strings.TrimSpace(sentence)
		if len(sentence) <= 20 || !containsAny(strings.ToLower(sentence), actionSentenceKeywords...) {
			continue
		}

		items = append(items, p.newActionItem(capitalize(sentence), sentence, session))
		if len(items) >= maxExtractedSessionItems {
			break
		}
	}

	if len(items) == 0 {
		items = append(items, p.newActionItem("Implement insights from today's coaching session", "", session))
	}

	return items
}

func (p *SessionProcessor) newActionItem(description, sourceText string, session SessionData) SessionActionItem {
	now := p.now().UTC()

	// Honor an explicit date in the sentence; otherwise give the client a
	// week.
	dueDate := now.AddDate(0, 0, 7)
	if sourceText != "" {
		if extracted, ok := actionitems.ExtractDueDate(sourceText, now); ok {
			dueDate = extracted
		}
	}

	return SessionActionItem{
		Description:     description,
		Priority:        "Medium",
		DueDate:         dueDate.Format("2006-01-02"),
		SuccessMetric:   "Progress discussed in next session",
		DevelopmentArea: "Leadership Development",
		ClientName:      session.ClientName,
		SessionDate:     session.SessionDate,
		CreatedAt:       now,
	}
}

func countOccurrences(text string, words []string) int {
	count := 0
	for _, word := range words {
		if strings.Contains(text, word) {
			count++
		}
	}
	return count
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
