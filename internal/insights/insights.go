// Package insights wraps optional AI enrichment behind a narrow interface.
// AI responses are free text parsed by best-effort keyword sniffing; a parse
// that finds nothing yields empty partial insights, never an error. Callers
// treat missing insights as "unavailable" and fall back to rule-based output.
package insights

import (
	"context"
	"regexp"
	"strconv"
	"strings"
)

// Completer produces a free-text completion for a system/user prompt pair.
// internal/openai provides the production implementation.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// LeadInsights are the fields recoverable from an AI lead-scoring response.
// Zero values mean the field was not found in the response text.
type LeadInsights struct {
	Score           int
	Reasoning       string
	Recommendations []string
}

// HealthInsights are the fields recoverable from an AI health-assessment response.
type HealthInsights struct {
	Score           int
	RiskFactors     []string
	Recommendations []string
}

var numberRegex = regexp.MustCompile(`\b(\d{1,3})\b`)

// firstScore extracts the first 1-100 number from a line, or 0.
func firstScore(line string) int {
	for _, m := range numberRegex.FindAllString(line, -1) {
		n, err := strconv.Atoi(m)
		if err != nil {
			continue
		}
		if n >= 1 && n <= 100 {
			return n
		}
	}
	return 0
}

// listItem strips a leading bullet or dash from a line; returns "" when the
// line is not a list item.
func listItem(line string) string {
	trimmed := strings.TrimSpace(line)
	for _, prefix := range []string{"- ", "• ", "* "} {
		if strings.HasPrefix(trimmed, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(trimmed, prefix))
		}
	}
	return ""
}

// ParseLeadInsights scans a free-text AI response for a numeric score, a
// reasoning line, and recommendation bullets. Lines are matched by keyword;
// anything unrecognized is ignored.
func ParseLeadInsights(freeText string) LeadInsights {
	var out LeadInsights

	inRecommendations := false
	for _, line := range strings.Split(freeText, "\n") {
		lower := strings.ToLower(line)

		switch {
		case out.Score == 0 && strings.Contains(lower, "score"):
			out.Score = firstScore(line)
		case out.Reasoning == "" && strings.Contains(lower, "reasoning"):
			if _, after, found := strings.Cut(line, ":"); found {
				out.Reasoning = strings.TrimSpace(after)
			}
		}

		if strings.Contains(lower, "recommendation") || strings.Contains(lower, "next step") {
			inRecommendations = true
			continue
		}

		if item := listItem(line); item != "" && inRecommendations {
			out.Recommendations = append(out.Recommendations, item)
		} else if item == "" && strings.TrimSpace(line) != "" {
			// A non-list, non-empty line ends the recommendations block.
			inRecommendations = false
		}
	}

	return out
}

// ParseHealthInsights scans a free-text AI response for a health score, risk
// factor bullets, and recommendation bullets.
func ParseHealthInsights(freeText string) HealthInsights {
	var out HealthInsights

	section := ""
	for _, line := range strings.Split(freeText, "\n") {
		lower := strings.ToLower(line)

		if out.Score == 0 && strings.Contains(lower, "score") {
			out.Score = firstScore(line)
		}

		switch {
		case strings.Contains(lower, "risk factor"):
			section = "risks"
			continue
		case strings.Contains(lower, "recommendation"):
			section = "recommendations"
			continue
		}

		item := listItem(line)
		switch {
		case item != "" && section == "risks":
			out.RiskFactors = append(out.RiskFactors, item)
		case item != "" && section == "recommendations":
			out.Recommendations = append(out.Recommendations, item)
		case item == "" && strings.TrimSpace(line) != "":
			section = ""
		}
	}

	return out
}
