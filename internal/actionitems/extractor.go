// Package actionitems turns the free-text "Action Items" field of meeting
// records into individual records in the record store's Action Items table,
// attributing each item to the meeting's attendees and extracting due dates
// from the item text.
package actionitems

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/sarahcave/coachos/internal/observability"
	"github.com/sarahcave/coachos/pkg/airtable"
	"github.com/sarahcave/coachos/pkg/cache"
)

const (
	clientsTable     = "Clients"
	actionItemsTable = "Action Items"

	fieldClientName = "Client Name"
	fieldActionItem = "Action Item"
	fieldStatus     = "Status"
	fieldPriority   = "Priority"
	fieldDueDate    = "Due Date"

	defaultStatus   = "Not Started"
	defaultPriority = "Medium"

	unknownClientName = "Unknown"
	unknownAttendee   = "Unknown Attendee"

	attendeeCacheSize = 512
)

// RecordStore is the slice of the record-store client the extractor needs.
type RecordStore interface {
	GetRecord(ctx context.Context, table, recordID string) (*airtable.Record, error)
	CreateRecords(ctx context.Context, table string, fields []airtable.Fields) ([]airtable.Record, error)
}

// MeetingRecord is one meeting to process, either from a webhook delivery or
// a manual API payload.
type MeetingRecord struct {
	ID     string          `json:"id"`
	Fields airtable.Fields `json:"fields"`
}

// CreatedItem describes one action item record created in the record store.
type CreatedItem struct {
	ID         string `json:"id"`
	ActionItem string `json:"action_item"`
	DueDate    string `json:"due_date,omitempty"`
	Status     string `json:"status"`
}

// MeetingResult summarizes the action items created for one meeting.
type MeetingResult struct {
	MeetingID    string        `json:"meeting_id"`
	MeetingTitle string        `json:"meeting_title"`
	ItemsCreated int           `json:"items_created"`
	ActionItems  []CreatedItem `json:"action_items"`
}

// Extractor processes meeting records into action item records. Attendee
// names are cached across meetings since the same clients recur.
type Extractor struct {
	store   RecordStore
	logger  *slog.Logger
	names   *cache.LoaderCache[string]
	metrics observability.WebhookMetrics
}

// NewExtractor creates an extractor backed by the given record store.
// metrics may be nil when metrics are disabled.
func NewExtractor(store RecordStore, logger *slog.Logger, metrics observability.WebhookMetrics) (*Extractor, error) {
	names, err := cache.NewLoaderCache[string](attendeeCacheSize)
	if err != nil {
		return nil, err
	}

	return &Extractor{
		store:   store,
		logger:  logger,
		names:   names,
		metrics: metrics,
	}, nil
}

// ProcessMeetings handles a batch of meeting records. Meetings with an empty
// Action Items field are skipped; a meeting whose record creation fails
// contributes a result with whatever items did get created. Only the records
// actually processed appear in the results.
func (e *Extractor) ProcessMeetings(ctx context.Context, meetings []MeetingRecord) []MeetingResult {
	results := make([]MeetingResult, 0, len(meetings))

	for _, meeting := range meetings {
		itemsText := strings.TrimSpace(meeting.Fields.String("Action Items"))
		if itemsText == "" {
			continue
		}

		title := meeting.Fields.String("Meeting Title")
		if title == "" {
			title = "Untitled Meeting"
		}

		attendeeIDs := meeting.Fields.StringList("Attendees")
		attendeeNames := e.attendeeNames(ctx, attendeeIDs)

		items := SplitItems(itemsText)
		referenceDate := ParseReferenceDate(meeting.Fields.String("Created"))

		created := e.createActionItems(ctx, items, attendeeNames, referenceDate)

		results = append(results, MeetingResult{
			MeetingID:    meeting.ID,
			MeetingTitle: title,
			ItemsCreated: len(created),
			ActionItems:  created,
		})
	}

	return results
}

// attendeeNames resolves attendee record IDs to client names. A record whose
// lookup succeeds but has no name field yields "Unknown"; a failed lookup
// yields "Unknown Attendee" and is not cached, so a transient store error
// does not pin a placeholder name.
func (e *Extractor) attendeeNames(ctx context.Context, recordIDs []string) []string {
	if len(recordIDs) == 0 {
		return nil
	}

	names := make([]string, 0, len(recordIDs))
	for _, recordID := range recordIDs {
		name, err := e.names.Get(ctx, recordID, e.loadAttendeeName)
		if err != nil {
			e.logger.WarnContext(ctx, "Failed to resolve attendee name",
				slog.String("record_id", recordID),
				slog.String("error", err.Error()))
			names = append(names, unknownAttendee)
			continue
		}

		names = append(names, name)
	}

	return names
}

func (e *Extractor) loadAttendeeName(ctx context.Context, recordID string) (string, error) {
	record, err := e.store.GetRecord(ctx, clientsTable, recordID)
	if err != nil {
		return "", err
	}

	name := record.Fields.String(fieldClientName)
	if name == "" {
		return unknownClientName, nil
	}

	return name, nil
}

// createActionItems creates one record per parsed item, in store-imposed
// batches. A failed batch is logged and skipped; later batches still run.
func (e *Extractor) createActionItems(ctx context.Context, items, attendeeNames []string, referenceDate time.Time) []CreatedItem {
	if len(items) == 0 {
		return nil
	}

	prefix := ""
	if len(attendeeNames) > 0 {
		prefix = strings.Join(attendeeNames, ", ") + ": "
	}

	toCreate := make([]airtable.Fields, 0, len(items))
	for _, item := range items {
		fields := airtable.Fields{
			fieldActionItem: prefix + item,
			fieldStatus:     defaultStatus,
			fieldPriority:   defaultPriority,
		}

		if due, ok := ExtractDueDate(item, referenceDate); ok {
			fields[fieldDueDate] = due.Format("2006-01-02")
		}

		toCreate = append(toCreate, fields)
	}

	created := make([]CreatedItem, 0, len(toCreate))
	for start := 0; start < len(toCreate); start += airtable.MaxBatchSize {
		end := min(start+airtable.MaxBatchSize, len(toCreate))

		records, err := e.store.CreateRecords(ctx, actionItemsTable, toCreate[start:end])
		if err != nil {
			e.logger.ErrorContext(ctx, "Failed to create action items batch",
				slog.Int("batch_start", start),
				slog.Int("batch_size", end-start),
				slog.String("error", err.Error()))
			continue
		}

		for _, record := range records {
			created = append(created, CreatedItem{
				ID:         record.ID,
				ActionItem: record.Fields.String(fieldActionItem),
				DueDate:    record.Fields.String(fieldDueDate),
				Status:     record.Fields.String(fieldStatus),
			})
		}
	}

	if e.metrics != nil && len(created) > 0 {
		e.metrics.RecordActionItemsCreated(int64(len(created)))
	}

	return created
}
