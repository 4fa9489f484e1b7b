package webhook

import "strings"

// classificationRule maps a table-name fragment to a base webhook type.
// Rules are an ordered list, not a map: first match wins, and the ordering is
// the documented tie-break policy for ambiguous table names.
type classificationRule struct {
	fragment string
	base     WebhookType
}

var classificationRules = []classificationRule{
	{"leads", TypeLeadUpdated},
	{"lead", TypeLeadUpdated},
	{"sessions", TypeSessionUpdated},
	{"coaching sessions", TypeSessionUpdated},
	{"clients", TypeClientUpdated},
	{"client", TypeClientUpdated},
	{"invoices", TypePaymentUpdated},
	{"action items", TypeActionItemUpdate},
	{"action item", TypeActionItemUpdate},
}

// ClassifyTableName matches a single table name against the rule list,
// ignoring the payload's own tables. Used by the direct per-table webhook
// endpoints, which force the table instead of inferring it. hasCreated
// applies the same *_created promotion as Classify.
func ClassifyTableName(tableName string, hasCreated bool) WebhookType {
	tableName = strings.ToLower(tableName)

	for _, rule := range classificationRules {
		if !strings.Contains(tableName, rule.fragment) {
			continue
		}

		if hasCreated {
			switch rule.base {
			case TypeLeadUpdated:
				return TypeLeadCreated
			case TypeSessionUpdated:
				return TypeSessionCreated
			}
		}

		return rule.base
	}

	return TypeUnknown
}

// Classify infers the delivery's webhook type from the changed tables.
// Each table's name is matched case-insensitively as a substring against the
// rule list; a table with created records promotes lead_updated and
// session_updated to their *_created variants. Tables are checked in sorted
// table-ID order and the first matching table decides. No match means
// unknown.
func Classify(p *Payload) WebhookType {
	for _, tableID := range p.sortedTableIDs() {
		table := p.ChangedTablesByID[tableID]
		tableName := strings.ToLower(table.Name)

		for _, rule := range classificationRules {
			if !strings.Contains(tableName, rule.fragment) {
				continue
			}

			if len(table.CreatedRecordsByID) > 0 {
				switch rule.base {
				case TypeLeadUpdated:
					return TypeLeadCreated
				case TypeSessionUpdated:
					return TypeSessionCreated
				}
			}

			return rule.base
		}
	}

	return TypeUnknown
}
