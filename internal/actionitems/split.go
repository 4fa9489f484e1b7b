// Package actionitems turns the free-text "Action Items" field of a meeting
// record into discrete, attributable, optionally dated action item records.
package actionitems

import (
	"regexp"
	"strings"
)

// bulletPatterns are tried in priority order; the first glyph that splits the
// text into more than one non-empty fragment is used for the whole blob.
// Mixed bullet styles in one blob are not supported.
var bulletPatterns = []*regexp.Regexp{
	regexp.MustCompile(`•\s*`),
	regexp.MustCompile(`-\s*`),
	regexp.MustCompile(`\*\s*`),
	regexp.MustCompile(`◦\s*`),
	regexp.MustCompile(`▪\s*`),
}

// enumPrefixRegex matches leading enumeration like "1. " or "2) ".
var enumPrefixRegex = regexp.MustCompile(`^\d+[.)]\s*`)

// SplitItems splits an action-items blob into discrete items.
// Cascade: bullet glyphs in priority order, then line breaks, then the whole
// text as a single item. Enumeration prefixes are stripped and fragments that
// end up empty are dropped.
func SplitItems(text string) []string {
	var items []string

	for _, pattern := range bulletPatterns {
		fragments := nonEmptyTrimmed(pattern.Split(text, -1))
		if len(fragments) > 1 {
			items = fragments
			break
		}
	}

	if len(items) == 0 {
		items = nonEmptyTrimmed(strings.Split(text, "\n"))
	}

	if len(items) == 0 && strings.TrimSpace(text) != "" {
		items = []string{strings.TrimSpace(text)}
	}

	cleaned := make([]string, 0, len(items))
	for _, item := range items {
		item = enumPrefixRegex.ReplaceAllString(item, "")
		if item != "" {
			cleaned = append(cleaned, item)
		}
	}

	return cleaned
}

func nonEmptyTrimmed(fragments []string) []string {
	var out []string
	for _, f := range fragments {
		if trimmed := strings.TrimSpace(f); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
