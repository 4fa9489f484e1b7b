package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/sarahcave/coachos/internal/actionitems"
	"github.com/sarahcave/coachos/internal/api/response"
	"github.com/sarahcave/coachos/internal/api/validation"
	"github.com/sarahcave/coachos/pkg/airtable"
)

// ActionItemExtractor turns meeting records into action item records.
type ActionItemExtractor interface {
	ProcessMeetings(ctx context.Context, meetings []actionitems.MeetingRecord) []actionitems.MeetingResult
}

// ProcessMeetingsRequest is the manual trigger payload: Airtable meeting
// records pasted or forwarded by an automation script.
type ProcessMeetingsRequest struct {
	Records []MeetingRecordRequest `json:"records" validate:"required,min=1,max=50,dive"`
}

// MeetingRecordRequest is one meeting record in the manual trigger payload.
type MeetingRecordRequest struct {
	ID     string          `json:"id" validate:"required,airtable_record_id"`
	Fields airtable.Fields `json:"fields"`
}

// MeetingsHandler handles manual action-item extraction requests.
type MeetingsHandler struct {
	extractor ActionItemExtractor
}

// NewMeetingsHandler creates a meetings handler.
func NewMeetingsHandler(extractor ActionItemExtractor) *MeetingsHandler {
	return &MeetingsHandler{extractor: extractor}
}

// ProcessActionItems handles POST /v1/meetings/action-items.
func (h *MeetingsHandler) ProcessActionItems(w http.ResponseWriter, r *http.Request) {
	var req ProcessMeetingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.RespondBadRequest(w, "Invalid request body")
		return
	}

	if err := validation.ValidateStruct(&req); err != nil {
		validation.RespondValidationError(w, err)
		return
	}

	meetings := make([]actionitems.MeetingRecord, 0, len(req.Records))
	for _, record := range req.Records {
		meetings = append(meetings, actionitems.MeetingRecord{
			ID:     record.ID,
			Fields: record.Fields,
		})
	}

	results := h.extractor.ProcessMeetings(r.Context(), meetings)

	response.RespondEnvelope(w, http.StatusOK, "success", map[string]any{
		"processed_meetings": len(results),
		"results":            results,
	})
}
