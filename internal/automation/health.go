package automation

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/sarahcave/coachos/internal/insights"
)

// HealthStatus buckets a client's overall health score.
type HealthStatus string

const (
	StatusHealthy  HealthStatus = "Healthy"
	StatusAtRisk   HealthStatus = "At Risk"
	StatusCritical HealthStatus = "Critical"
)

// RiskCategory names the dominant risk dimension for an at-risk client.
type RiskCategory string

const (
	RiskEngagement   RiskCategory = "Engagement Risk"
	RiskFinancial    RiskCategory = "Financial Risk"
	RiskSatisfaction RiskCategory = "Satisfaction Risk"
	RiskProgress     RiskCategory = "Progress Risk"
)

// AlertPriority drives how urgently the coach should act on an assessment.
type AlertPriority string

const (
	AlertHigh   AlertPriority = "High"
	AlertMedium AlertPriority = "Medium"
	AlertLow    AlertPriority = "Low"
)

// Component score keys. The weights below must sum to 1.
const (
	componentSessionFrequency = "session_frequency"
	componentPaymentBehavior  = "payment_behavior"
	componentSatisfaction     = "session_satisfaction"
	componentActionCompletion = "action_item_completion"
	componentEngagement       = "engagement_signals"
	componentMomentum         = "progress_momentum"
)

var healthWeights = map[string]float64{
	componentSessionFrequency: 0.25,
	componentPaymentBehavior:  0.20,
	componentSatisfaction:     0.20,
	componentActionCompletion: 0.15,
	componentEngagement:       0.15,
	componentMomentum:         0.05,
}

// SessionHistoryEntry is one past session in a client's history.
type SessionHistoryEntry struct {
	Date              string  `json:"date"`
	SatisfactionScore float64 `json:"satisfaction_score,omitempty"`
	Attended          *bool   `json:"attended,omitempty"`
	Outcome           string  `json:"outcome,omitempty"`
}

// PaymentHistoryEntry is one invoice outcome.
type PaymentHistoryEntry struct {
	Status string `json:"status"`
}

// TrackedActionItem is one of the client's open or closed action items.
type TrackedActionItem struct {
	Status  string `json:"status"`
	DueDate string `json:"due_date,omitempty"`
}

// CommunicationEntry is one logged exchange with the client.
type CommunicationEntry struct {
	ResponseTimeHours float64 `json:"response_time_hours,omitempty"`
	InitiatedBy       string  `json:"initiated_by,omitempty"`
}

// GoalProgress tracks goal completion when the base records it directly.
type GoalProgress struct {
	Percentage *float64 `json:"percentage,omitempty"`
}

// ClientHealthData is everything the monitor scores a client on.
type ClientHealthData struct {
	ClientID           string                `json:"client_id"`
	ClientName         string                `json:"client_name"`
	LastSessionDate    string                `json:"last_session_date,omitempty"`
	SessionHistory     []SessionHistoryEntry `json:"session_history,omitempty"`
	PaymentHistory     []PaymentHistoryEntry `json:"payment_history,omitempty"`
	ActionItems        []TrackedActionItem   `json:"action_items,omitempty"`
	CommunicationLog   []CommunicationEntry  `json:"communication_log,omitempty"`
	SatisfactionScores []float64             `json:"satisfaction_scores,omitempty"`
	GoalProgress       GoalProgress          `json:"goal_progress,omitzero"`
	Notes              string                `json:"notes,omitempty"`
}

// ComponentBreakdown reports one component's score and weight.
type ComponentBreakdown struct {
	Component string  `json:"component"`
	Score     int     `json:"score"`
	Weight    float64 `json:"weight"`
}

// HealthAssessment is the full assessment for one client.
type HealthAssessment struct {
	ClientID             string               `json:"client_id"`
	ClientName           string               `json:"client_name"`
	HealthScore          float64              `json:"health_score"`
	HealthStatus         HealthStatus         `json:"health_status"`
	AlertPriority        AlertPriority        `json:"alert_priority"`
	RiskCategory         RiskCategory         `json:"risk_category"`
	RiskFactors          []string             `json:"risk_factors"`
	RecommendedActions   []string             `json:"recommended_actions"`
	InterventionTimeline string               `json:"intervention_timeline"`
	MonitoringFrequency  string               `json:"monitoring_frequency"`
	ComponentBreakdown   []ComponentBreakdown `json:"component_breakdown"`
	AssessedAt           time.Time            `json:"assessed_at"`
	NextAssessmentDue    time.Time            `json:"next_assessment_due"`
	FallbackUsed         bool                 `json:"fallback_used"`
}

// HealthMonitor scores client health from behavioral components, optionally
// blending in an AI assessment (70% rules, 30% AI) when a completer is
// configured and responds parseably.
type HealthMonitor struct {
	completer insights.Completer
	logger    *slog.Logger
	now       func() time.Time
}

// NewHealthMonitor creates a monitor. completer may be nil.
func NewHealthMonitor(completer insights.Completer, logger *slog.Logger) *HealthMonitor {
	return &HealthMonitor{completer: completer, logger: logger, now: time.Now}
}

const healthSystemPrompt = `You are a client-retention analyst for an executive coaching practice.
Given the client's behavioral component scores, assess overall health from 1-100 and list the main risk factors
and recommendations as plain text lists.`

// Assess scores the client and derives status, risk, and follow-up cadence.
func (m *HealthMonitor) Assess(ctx context.Context, client ClientHealthData) HealthAssessment {
	components := m.componentScores(client)
	ruleScore := weightedTotal(components)

	finalScore := ruleScore
	riskFactors := []string{}
	var aiRecommendations []string
	fallback := true

	if m.completer != nil {
		response, err := m.completer.Complete(ctx, healthSystemPrompt, healthContext(client, components, ruleScore))
		if err != nil {
			m.logger.WarnContext(ctx, "Client health AI call failed, using rule-based score",
				slog.String("client_id", client.ClientID),
				slog.String("error", err.Error()))
		} else if parsed := insights.ParseHealthInsights(response); parsed.Score >= 1 && parsed.Score <= 100 {
			finalScore = math.Round((ruleScore*0.7+float64(parsed.Score)*0.3)*10) / 10
			riskFactors = parsed.RiskFactors
			aiRecommendations = parsed.Recommendations
			fallback = false
		}
	}

	status := statusForScore(finalScore)
	alert := alertForStatus(status)
	risk := primaryRiskCategory(components)

	assessedAt := m.now().UTC()

	return HealthAssessment{
		ClientID:             client.ClientID,
		ClientName:           clientDisplayName(client),
		HealthScore:          finalScore,
		HealthStatus:         status,
		AlertPriority:        alert,
		RiskCategory:         risk,
		RiskFactors:          riskFactors,
		RecommendedActions:   recommendations(status, risk, aiRecommendations),
		InterventionTimeline: interventionTimeline(status),
		MonitoringFrequency:  monitoringFrequency(status),
		ComponentBreakdown:   breakdown(components),
		AssessedAt:           assessedAt,
		NextAssessmentDue:    nextAssessment(status, assessedAt),
		FallbackUsed:         fallback,
	}
}

func (m *HealthMonitor) componentScores(client ClientHealthData) map[string]int {
	return map[string]int{
		componentSessionFrequency: m.scoreSessionFrequency(client),
		componentPaymentBehavior:  scorePaymentBehavior(client.PaymentHistory),
		componentSatisfaction:     scoreSatisfaction(client),
		componentActionCompletion: m.scoreActionCompletion(client.ActionItems),
		componentEngagement:       scoreEngagementSignals(client),
		componentMomentum:         scoreProgressMomentum(client),
	}
}

func weightedTotal(components map[string]int) float64 {
	total := 0.0
	for component, score := range components {
		total += float64(score) * healthWeights[component]
	}
	return math.Round(total*10) / 10
}

func (m *HealthMonitor) scoreSessionFrequency(client ClientHealthData) int {
	if len(client.SessionHistory) == 0 || client.LastSessionDate == "" {
		return 40
	}

	lastSession, err := time.Parse(time.RFC3339, client.LastSessionDate)
	if err != nil {
		return 50
	}
	daysSince := int(m.now().UTC().Sub(lastSession).Hours() / 24)

	var recency int
	switch {
	case daysSince <= 7:
		recency = 100
	case daysSince <= 14:
		recency = 85
	case daysSince <= 30:
		recency = 70
	case daysSince <= 60:
		recency = 50
	default:
		recency = 20
	}

	dated := 0
	for _, s := range client.SessionHistory {
		if s.Date != "" {
			dated++
		}
	}

	var consistency int
	switch {
	case dated >= 4:
		consistency = 100
	case dated >= 3:
		consistency = 80
	case dated >= 2:
		consistency = 60
	case dated >= 1:
		consistency = 40
	default:
		consistency = 20
	}

	return (recency + consistency) / 2
}

func scorePaymentBehavior(payments []PaymentHistoryEntry) int {
	if len(payments) == 0 {
		return 80
	}

	total := len(payments)
	onTime, late, overdue := 0, 0, 0
	for _, p := range payments {
		status := strings.ToLower(p.Status)
		switch {
		case status == "paid_on_time":
			onTime++
		case strings.Contains(status, "overdue"):
			overdue++
		case strings.Contains(status, "late"):
			late++
		}
	}

	onTimeRate := float64(onTime) / float64(total)
	score := int(onTimeRate*100) - int(float64(late)/float64(total)*30) - int(float64(overdue)/float64(total)*50)
	score = max(0, score)

	if onTime == total && total >= 3 {
		score = min(100, score+10)
	}

	return score
}

func scoreSatisfaction(client ClientHealthData) int {
	scores := client.SatisfactionScores
	if len(scores) == 0 {
		for _, s := range client.SessionHistory {
			if s.SatisfactionScore > 0 {
				scores = append(scores, s.SatisfactionScore)
			}
		}
	}
	if len(scores) == 0 {
		return 75
	}

	sum := 0.0
	for _, s := range scores {
		sum += s
	}
	avg := sum / float64(len(scores))

	// 1-10 scale to 0-100.
	score := int(avg / 10.0 * 100)

	if len(scores) >= 3 {
		recent := (scores[len(scores)-3] + scores[len(scores)-2] + scores[len(scores)-1]) / 3
		olderCount := len(scores) - 3
		if olderCount > 0 {
			olderSum := 0.0
			for _, s := range scores[:olderCount] {
				olderSum += s
			}
			older := olderSum / float64(olderCount)
			if recent > older {
				score += 5
			} else if recent < older-0.5 {
				score -= 10
			}
		}
	}

	return max(0, min(100, score))
}

func (m *HealthMonitor) scoreActionCompletion(items []TrackedActionItem) int {
	if len(items) == 0 {
		return 70
	}

	total := len(items)
	completed, inProgress, overdue := 0, 0, 0
	for _, item := range items {
		switch item.Status {
		case "completed":
			completed++
		case "in_progress":
			inProgress++
		}
		if m.isOverdue(item) {
			overdue++
		}
	}

	score := int(float64(completed)/float64(total)*100) +
		int(float64(inProgress)/float64(total)*30) -
		int(float64(overdue)/float64(total)*40)

	return max(0, min(100, score))
}

func (m *HealthMonitor) isOverdue(item TrackedActionItem) bool {
	if item.DueDate == "" || item.Status == "completed" {
		return false
	}

	due, err := time.Parse("2006-01-02", item.DueDate)
	if err != nil {
		return false
	}

	return due.Before(m.now().UTC())
}

func scoreEngagementSignals(client ClientHealthData) int {
	score := 70

	var responseTimes []float64
	for _, comm := range client.CommunicationLog {
		if comm.ResponseTimeHours > 0 {
			responseTimes = append(responseTimes, comm.ResponseTimeHours)
		}
	}
	if len(responseTimes) > 0 {
		sum := 0.0
		for _, rt := range responseTimes {
			sum += rt
		}
		avg := sum / float64(len(responseTimes))
		switch {
		case avg <= 24:
			score += 15
		case avg <= 48:
			score += 5
		case avg > 72:
			score -= 10
		}
	}

	if len(client.SessionHistory) > 0 {
		attended := 0
		for _, s := range client.SessionHistory {
			if s.Attended == nil || *s.Attended {
				attended++
			}
		}
		attendanceRate := float64(attended) / float64(len(client.SessionHistory))
		score += int((attendanceRate - 0.9) * 50)
	}

	proactive := 0
	for _, comm := range client.CommunicationLog {
		if comm.InitiatedBy == "client" {
			proactive++
		}
	}
	if proactive > 2 {
		score += 10
	} else if proactive == 0 && len(client.CommunicationLog) > 3 {
		score -= 15
	}

	return max(0, min(100, score))
}

func scoreProgressMomentum(client ClientHealthData) int {
	if client.GoalProgress.Percentage == nil && len(client.SessionHistory) == 0 {
		return 60
	}

	if client.GoalProgress.Percentage != nil {
		return max(0, min(100, int(*client.GoalProgress.Percentage)))
	}

	breakthroughs, progresses, challenges := 0, 0, 0
	for _, s := range client.SessionHistory {
		switch SessionOutcome(s.Outcome) {
		case OutcomeBreakthrough:
			breakthroughs++
		case OutcomeProgress:
			progresses++
		case OutcomeChallenge:
			challenges++
		}
	}

	total := len(client.SessionHistory)
	positiveRate := float64(breakthroughs*2+progresses) / float64(total)
	challengeRate := float64(challenges) / float64(total)
	score := int(positiveRate*50 - challengeRate*20 + 50)

	return max(0, min(100, score))
}

func statusForScore(score float64) HealthStatus {
	switch {
	case score >= 80:
		return StatusHealthy
	case score >= 50:
		return StatusAtRisk
	default:
		return StatusCritical
	}
}

func alertForStatus(status HealthStatus) AlertPriority {
	switch status {
	case StatusCritical:
		return AlertHigh
	case StatusAtRisk:
		return AlertMedium
	default:
		return AlertLow
	}
}

var riskByComponent = map[string]RiskCategory{
	componentSessionFrequency: RiskEngagement,
	componentPaymentBehavior:  RiskFinancial,
	componentSatisfaction:     RiskSatisfaction,
	componentActionCompletion: RiskProgress,
	componentEngagement:       RiskEngagement,
	componentMomentum:         RiskProgress,
}

// primaryRiskCategory maps the lowest-scoring component to a category.
// Ties break on component name so the result is deterministic.
func primaryRiskCategory(components map[string]int) RiskCategory {
	names := make([]string, 0, len(components))
	for name := range components {
		names = append(names, name)
	}
	sort.Strings(names)

	lowest := names[0]
	for _, name := range names[1:] {
		if components[name] < components[lowest] {
			lowest = name
		}
	}

	return riskByComponent[lowest]
}

var recommendationsByRisk = map[RiskCategory][]string{
	RiskFinancial: {
		"Review payment terms and address any billing concerns",
		"Consider payment plan options if cash flow is an issue",
		"Reassess value proposition and ROI demonstration",
	},
	RiskEngagement: {
		"Schedule check-in call to assess engagement levels",
		"Explore session format changes to increase participation",
		"Review coaching goals alignment with current priorities",
	},
	RiskSatisfaction: {
		"Conduct satisfaction survey to identify specific concerns",
		"Adjust coaching approach based on client preferences",
		"Schedule additional session time to address satisfaction issues",
	},
	RiskProgress: {
		"Review goal setting and create more achievable milestones",
		"Increase action item support and follow-up frequency",
		"Consider intensive session format for breakthrough progress",
	},
}

const maxRecommendations = 5

func recommendations(status HealthStatus, risk RiskCategory, aiRecommendations []string) []string {
	recs := make([]string, 0, maxRecommendations)
	if len(aiRecommendations) > 3 {
		aiRecommendations = aiRecommendations[:3]
	}
	recs = append(recs, aiRecommendations...)
	recs = append(recs, recommendationsByRisk[risk]...)

	if status == StatusCritical {
		recs = append([]string{"URGENT: Schedule immediate client retention conversation"}, recs...)
	}

	if len(recs) > maxRecommendations {
		recs = recs[:maxRecommendations]
	}
	return recs
}

func interventionTimeline(status HealthStatus) string {
	switch status {
	case StatusCritical:
		return "Within 24 hours"
	case StatusAtRisk:
		return "Within 1 week"
	default:
		return "Next scheduled session"
	}
}

func monitoringFrequency(status HealthStatus) string {
	switch status {
	case StatusCritical:
		return "Daily until improvement"
	case StatusAtRisk:
		return "Weekly assessment"
	default:
		return "Monthly assessment"
	}
}

func nextAssessment(status HealthStatus, from time.Time) time.Time {
	switch status {
	case StatusCritical:
		return from.AddDate(0, 0, 1)
	case StatusAtRisk:
		return from.AddDate(0, 0, 7)
	default:
		return from.AddDate(0, 0, 30)
	}
}

func breakdown(components map[string]int) []ComponentBreakdown {
	names := make([]string, 0, len(components))
	for name := range components {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]ComponentBreakdown, 0, len(names))
	for _, name := range names {
		out = append(out, ComponentBreakdown{
			Component: name,
			Score:     components[name],
			Weight:    healthWeights[name],
		})
	}
	return out
}

func clientDisplayName(client ClientHealthData) string {
	if client.ClientName != "" {
		return client.ClientName
	}
	return "Client " + client.ClientID
}

func healthContext(client ClientHealthData, components map[string]int, ruleScore float64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Client: %s\n", clientDisplayName(client))
	fmt.Fprintf(&b, "Rule-based health score: %.1f\n", ruleScore)
	for _, c := range breakdown(components) {
		fmt.Fprintf(&b, "%s: %d (weight %.2f)\n", c.Component, c.Score, c.Weight)
	}
	if client.Notes != "" {
		fmt.Fprintf(&b, "Notes: %s\n", client.Notes)
	}
	return b.String()
}
