package webhook

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sarahcave/coachos/pkg/airtable"
)

func payloadWithTable(name string, created, changed bool) *Payload {
	table := TableChange{Name: name}
	if created {
		table.CreatedRecordsByID = map[string]CreatedRecord{
			"recAAAAAAAAAAAAAA": {Fields: airtable.Fields{}},
		}
	}
	if changed {
		table.ChangedRecordsByID = map[string]RecordTransition{
			"recBBBBBBBBBBBBBB": {},
		}
	}

	return &Payload{
		ChangedTablesByID: map[string]TableChange{"tblAAAAAAAAAAAAAA": table},
	}
}

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		table   string
		created bool
		want    WebhookType
	}{
		{name: "leads updated", table: "Leads", want: TypeLeadUpdated},
		{name: "leads created promotes", table: "Leads", created: true, want: TypeLeadCreated},
		{name: "lead singular", table: "Lead Pipeline", want: TypeLeadUpdated},
		{name: "coaching sessions updated", table: "Coaching Sessions", want: TypeSessionUpdated},
		{name: "coaching sessions created promotes", table: "Coaching Sessions", created: true, want: TypeSessionCreated},
		{name: "clients", table: "Clients", want: TypeClientUpdated},
		{name: "clients created does not promote", table: "Clients", created: true, want: TypeClientUpdated},
		{name: "invoices", table: "Invoices", want: TypePaymentUpdated},
		{name: "invoices created does not promote", table: "Invoices", created: true, want: TypePaymentUpdated},
		{name: "action items", table: "Action Items", want: TypeActionItemUpdate},
		{name: "case insensitive substring", table: "my leads backlog", want: TypeLeadUpdated},
		{name: "unmapped table", table: "Quarterly Reports", want: TypeUnknown},
		{name: "empty name", table: "", want: TypeUnknown},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			p := payloadWithTable(tc.table, tc.created, !tc.created)
			assert.Equal(t, tc.want, Classify(p))
		})
	}
}

func TestClassifyFirstMatchingTableWins(t *testing.T) {
	t.Parallel()

	// Tables are visited in sorted table-ID order, so the invoice table
	// (lower ID) decides even though a client table also changed.
	p := &Payload{
		ChangedTablesByID: map[string]TableChange{
			"tblAAAAAAAAAAAAAA": {Name: "Invoices"},
			"tblZZZZZZZZZZZZZZ": {Name: "Clients"},
		},
	}

	assert.Equal(t, TypePaymentUpdated, Classify(p))
}

func TestClassifyNoTables(t *testing.T) {
	t.Parallel()

	assert.Equal(t, TypeUnknown, Classify(&Payload{}))
}
