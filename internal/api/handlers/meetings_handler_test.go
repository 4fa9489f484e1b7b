package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sarahcave/coachos/internal/actionitems"
)

// mockExtractor mocks ActionItemExtractor for handler tests.
type mockExtractor struct {
	lastMeetings []actionitems.MeetingRecord
	results      []actionitems.MeetingResult
}

func (m *mockExtractor) ProcessMeetings(_ context.Context, meetings []actionitems.MeetingRecord) []actionitems.MeetingResult {
	m.lastMeetings = meetings

	return m.results
}

func TestMeetingsHandler_ProcessActionItems(t *testing.T) {
	t.Run("valid payload runs the extractor and returns results", func(t *testing.T) {
		mock := &mockExtractor{
			results: []actionitems.MeetingResult{
				{MeetingID: "recMeeting0000001", MeetingTitle: "Weekly sync", ItemsCreated: 2},
			},
		}
		h := NewMeetingsHandler(mock)

		body := `{"records": [{"id": "recMeeting0000001", "fields": {"Action Items": "Call John", "Title": "Weekly sync"}}]}`
		req := httptest.NewRequest(http.MethodPost, "http://test/v1/meetings/action-items", strings.NewReader(body))
		rec := httptest.NewRecorder()

		h.ProcessActionItems(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		require.Len(t, mock.lastMeetings, 1)
		assert.Equal(t, "recMeeting0000001", mock.lastMeetings[0].ID)
		assert.Equal(t, "Call John", mock.lastMeetings[0].Fields.String("Action Items"))

		var resp map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "success", resp["status"])
		assert.InDelta(t, 1, resp["processed_meetings"], 0)
		assert.NotEmpty(t, resp["timestamp"])
	})

	t.Run("invalid JSON returns 400", func(t *testing.T) {
		h := NewMeetingsHandler(&mockExtractor{})

		req := httptest.NewRequest(http.MethodPost, "http://test/v1/meetings/action-items", strings.NewReader("{"))
		rec := httptest.NewRecorder()

		h.ProcessActionItems(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("empty records list fails validation", func(t *testing.T) {
		mock := &mockExtractor{}
		h := NewMeetingsHandler(mock)

		req := httptest.NewRequest(http.MethodPost, "http://test/v1/meetings/action-items", strings.NewReader(`{"records": []}`))
		rec := httptest.NewRecorder()

		h.ProcessActionItems(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Nil(t, mock.lastMeetings)
		assert.Contains(t, rec.Body.String(), "Records")
	})

	t.Run("malformed record ID fails validation", func(t *testing.T) {
		h := NewMeetingsHandler(&mockExtractor{})

		body := `{"records": [{"id": "not-a-record-id", "fields": {}}]}`
		req := httptest.NewRequest(http.MethodPost, "http://test/v1/meetings/action-items", strings.NewReader(body))
		rec := httptest.NewRecorder()

		h.ProcessActionItems(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "Airtable record ID")
	})
}
