// Package automation implements the rule-based engines the webhook router
// dispatches to: lead scoring, session processing, client health assessment,
// and action-item tracking. Each engine works standalone; AI enrichment is
// optional and every AI or parse failure degrades to the rule-based result.
package automation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sarahcave/coachos/internal/insights"
	"github.com/sarahcave/coachos/pkg/airtable"
)

// LeadPriority buckets a scored lead for follow-up urgency.
type LeadPriority string

const (
	PriorityHot  LeadPriority = "Hot"
	PriorityWarm LeadPriority = "Warm"
	PriorityCold LeadPriority = "Cold"
)

// NurtureTrack assigns the outreach sequence matching the lead's seniority.
type NurtureTrack string

const (
	TrackExecutiveFast      NurtureTrack = "Executive Fast-Track"
	TrackManagerDevelopment NurtureTrack = "Manager Development"
	TrackLongTermNurture    NurtureTrack = "Long-term Nurture"
)

// LeadProfile is the normalized input to scoring, mapped out of the record
// store's drifting column names.
type LeadProfile struct {
	RecordID        string `json:"record_id"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	Company         string `json:"company"`
	Title           string `json:"title"`
	Source          string `json:"lead_source"`
	Industry        string `json:"industry"`
	CompanySize     int    `json:"company_size"`
	EngagementCount int    `json:"engagement_count"`
	Notes           string `json:"notes"`
}

// LeadProfileFromFields maps a lead record's fields onto a profile,
// accepting the column-name synonyms seen across bases.
func LeadProfileFromFields(fields airtable.Fields, recordID string) LeadProfile {
	name := fields.String("Name", "Lead Name")
	if name == "" {
		name = "Unknown Lead"
	}

	source := fields.String("Lead Source", "Source")
	if source == "" {
		source = "Unknown"
	}

	return LeadProfile{
		RecordID:        recordID,
		Name:            name,
		Email:           fields.String("Email", "Email Address"),
		Phone:           fields.String("Phone", "Phone Number"),
		Company:         fields.String("Company", "Company Name"),
		Title:           fields.String("Title", "Job Title"),
		Source:          source,
		Industry:        fields.String("Industry"),
		CompanySize:     companySize(fields),
		EngagementCount: len(fields.StringList("Engagement History")),
		Notes:           fields.String("Notes", "Additional Notes"),
	}
}

// companySize reads the size column whether it arrives as a number or as
// text like "250 employees".
func companySize(fields airtable.Fields) int {
	if n, ok := fields.Number("Company Size"); ok {
		return int(n)
	}

	raw := fields.String("Company Size")
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, raw)

	var n int
	fmt.Sscanf(digits, "%d", &n)
	return n
}

// LeadScore is the scoring result for one lead.
type LeadScore struct {
	LeadScore          int          `json:"lead_score"`
	Priority           LeadPriority `json:"priority_level"`
	NurtureTrack       NurtureTrack `json:"nurture_track"`
	NextAction         string       `json:"next_action"`
	EngagementStrategy string       `json:"engagement_recommendation"`
	Reasoning          string       `json:"reasoning"`
	RedFlags           []string     `json:"red_flags"`
	ScoredAt           time.Time    `json:"scored_at"`
	FollowUpDue        time.Time    `json:"follow_up_due"`
	FallbackUsed       bool         `json:"fallback_used"`
}

// LeadScorer scores leads for executive-coaching fit. With a completer it
// asks the model for a score and reasoning first; the weighted rules are
// both the fallback and the sanity floor.
type LeadScorer struct {
	completer insights.Completer
	logger    *slog.Logger
	now       func() time.Time
}

// NewLeadScorer creates a scorer. completer may be nil to run rules only.
func NewLeadScorer(completer insights.Completer, logger *slog.Logger) *LeadScorer {
	return &LeadScorer{completer: completer, logger: logger, now: time.Now}
}

const leadScoringSystemPrompt = `You are a lead qualification analyst for an executive leadership coaching practice.
Score the lead from 1-100 for coaching fit, considering seniority, company size, lead source, industry, and engagement.
Respond with the score, a short reasoning section, and a recommendations section as plain text lists.`

// Score produces a lead score. The rule-based result always computes; AI
// output replaces the score and reasoning only when it parses cleanly.
func (s *LeadScorer) Score(ctx context.Context, profile LeadProfile) LeadScore {
	score := s.ruleBasedScore(profile)

	if s.completer == nil {
		return score
	}

	response, err := s.completer.Complete(ctx, leadScoringSystemPrompt, leadContext(profile))
	if err != nil {
		s.logger.WarnContext(ctx, "Lead scoring AI call failed, using rule-based score",
			slog.String("record_id", profile.RecordID),
			slog.String("error", err.Error()))
		return score
	}

	parsed := insights.ParseLeadInsights(response)
	if parsed.Score < 1 || parsed.Score > 100 {
		return score
	}

	score.LeadScore = parsed.Score
	score.Priority = priorityForScore(parsed.Score)
	score.NextAction = nextAction(profile, score.Priority)
	score.EngagementStrategy = engagementStrategy(profile, score.Priority)
	score.FollowUpDue = s.followUpDue(score.Priority)
	if parsed.Reasoning != "" {
		score.Reasoning = parsed.Reasoning
	}
	score.FallbackUsed = false

	return score
}

func (s *LeadScorer) ruleBasedScore(profile LeadProfile) LeadScore {
	total := fallbackLeadScore(profile)
	priority := priorityForScore(total)

	return LeadScore{
		LeadScore:          total,
		Priority:           priority,
		NurtureTrack:       nurtureTrack(profile),
		NextAction:         nextAction(profile, priority),
		EngagementStrategy: engagementStrategy(profile, priority),
		Reasoning:          "Rule-based scoring",
		RedFlags:           leadRedFlags(profile),
		ScoredAt:           s.now().UTC(),
		FollowUpDue:        s.followUpDue(priority),
		FallbackUsed:       true,
	}
}

// fallbackLeadScore is the weighted heuristic: base 20, plus title (max 30),
// company size (25), source (20), industry fit (15), and engagement (10),
// capped at 100.
func fallbackLeadScore(profile LeadProfile) int {
	score := 20

	title := strings.ToLower(profile.Title)
	switch {
	case containsAny(title, "ceo", "cto", "cfo", "president", "founder"):
		score += 30
	case containsAny(title, "vp", "vice president", "chief"):
		score += 25
	case containsAny(title, "director", "head of", "lead"):
		score += 20
	case containsAny(title, "manager", "supervisor", "team lead"):
		score += 15
	default:
		score += 5
	}

	switch {
	case profile.CompanySize >= 500:
		score += 25
	case profile.CompanySize >= 100:
		score += 20
	case profile.CompanySize >= 50:
		score += 15
	case profile.CompanySize >= 10:
		score += 10
	default:
		score += 5
	}

	source := strings.ToLower(profile.Source)
	switch {
	case strings.Contains(source, "referral"):
		score += 20
	case containsAny(source, "networking", "event", "conference"):
		score += 16
	case strings.Contains(source, "linkedin"):
		score += 12
	case strings.Contains(source, "website"):
		score += 8
	default:
		score += 4
	}

	industry := strings.ToLower(profile.Industry)
	switch {
	case containsAny(industry, "technology", "tech", "finance", "consulting"):
		score += 15
	case containsAny(industry, "healthcare", "manufacturing", "retail"):
		score += 12
	default:
		score += 8
	}

	switch {
	case profile.EngagementCount > 2:
		score += 10
	case profile.EngagementCount > 0:
		score += 6
	default:
		score += 2
	}

	return min(100, score)
}

func priorityForScore(score int) LeadPriority {
	switch {
	case score >= 80:
		return PriorityHot
	case score >= 60:
		return PriorityWarm
	default:
		return PriorityCold
	}
}

func nurtureTrack(profile LeadProfile) NurtureTrack {
	title := strings.ToLower(profile.Title)
	switch {
	case containsAny(title, "ceo", "cto", "cfo", "president", "founder", "vp", "vice president", "chief"):
		return TrackExecutiveFast
	case containsAny(title, "director", "manager", "head of", "lead", "supervisor"):
		return TrackManagerDevelopment
	default:
		return TrackLongTermNurture
	}
}

func nextAction(profile LeadProfile, priority LeadPriority) string {
	name := profile.Name
	company := profile.Company
	if company == "" {
		company = "their organization"
	}

	switch priority {
	case PriorityHot:
		return fmt.Sprintf("Call %s within 24 hours to discuss leadership challenges at %s. Reference %s connection and offer strategy session.", name, company, profile.Source)
	case PriorityWarm:
		return fmt.Sprintf("Send personalized email to %s within 48 hours with leadership insights relevant to %s. Include case study and calendar link.", name, company)
	default:
		return fmt.Sprintf("Add %s to nurture sequence with valuable leadership content. Follow up in 2 weeks with industry-specific insights.", name)
	}
}

func engagementStrategy(profile LeadProfile, priority LeadPriority) string {
	switch priority {
	case PriorityHot:
		return fmt.Sprintf("Direct executive outreach focusing on %s leadership challenges. Offer exclusive strategy session with immediate value proposition.", profile.Industry)
	case PriorityWarm:
		return fmt.Sprintf("Educational approach with leadership insights relevant to %s role. Share success stories from similar executives.", profile.Title)
	default:
		return "Long-term nurture with valuable leadership content, industry trends, and case studies to build trust and authority."
	}
}

func leadRedFlags(profile LeadProfile) []string {
	var flags []string

	title := strings.ToLower(profile.Title)
	if containsAny(title, "junior", "entry", "assistant", "intern", "coordinator") {
		flags = append(flags, "Junior-level title may not have budget authority")
	}

	if profile.CompanySize < 10 {
		flags = append(flags, "Very small company size may limit coaching budget")
	}

	notes := strings.ToLower(profile.Notes)
	if containsAny(notes, "budget", "cost", "price", "expensive", "cheap") {
		flags = append(flags, "Potential budget sensitivity mentioned")
	}
	if containsAny(notes, "coaching", "consultant", "trainer", "development") {
		flags = append(flags, "May already have coaching/development support")
	}

	return flags
}

func (s *LeadScorer) followUpDue(priority LeadPriority) time.Time {
	now := s.now().UTC()
	switch priority {
	case PriorityHot:
		return now.Add(24 * time.Hour)
	case PriorityWarm:
		return now.Add(48 * time.Hour)
	default:
		return now.AddDate(0, 0, 14)
	}
}

func leadContext(profile LeadProfile) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Name: %s\n", profile.Name)
	fmt.Fprintf(&b, "Title: %s\n", profile.Title)
	fmt.Fprintf(&b, "Company: %s (%d employees)\n", profile.Company, profile.CompanySize)
	fmt.Fprintf(&b, "Industry: %s\n", profile.Industry)
	fmt.Fprintf(&b, "Lead source: %s\n", profile.Source)
	fmt.Fprintf(&b, "Engagement touchpoints: %d\n", profile.EngagementCount)
	if profile.Notes != "" {
		fmt.Fprintf(&b, "Notes: %s\n", profile.Notes)
	}
	return b.String()
}

func containsAny(haystack string, needles ...string) bool {
	for _, needle := range needles {
		if strings.Contains(haystack, needle) {
			return true
		}
	}
	return false
}
