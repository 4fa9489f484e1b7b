package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sarahcave/coachos/internal/webhook"
)

func seededHistory(entries int) *webhook.History {
	history := webhook.NewHistory(0)
	for i := 0; i < entries; i++ {
		history.RecordOutcome(webhook.OutcomeEntry{
			WebhookType: webhook.TypeLeadCreated,
			Status:      webhook.StatusSuccess,
			Timestamp:   time.Date(2024, 1, 1, 10, 0, i, 0, time.UTC),
		})
	}

	return history
}

func TestStatsHandler_Get(t *testing.T) {
	t.Run("returns the full snapshot", func(t *testing.T) {
		h := NewStatsHandler(seededHistory(5))

		req := httptest.NewRequest(http.MethodGet, "http://test/v1/stats", http.NoBody)
		rec := httptest.NewRecorder()

		h.Get(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var stats webhook.Stats
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
		assert.Equal(t, 5, stats.TotalProcessed)
		assert.Equal(t, 5, stats.StatusCounts["success"])
		assert.Len(t, stats.Recent, 5)
	})

	t.Run("limit keeps only the newest entries", func(t *testing.T) {
		h := NewStatsHandler(seededHistory(5))

		req := httptest.NewRequest(http.MethodGet, "http://test/v1/stats?limit=2", http.NoBody)
		rec := httptest.NewRecorder()

		h.Get(rec, req)

		var stats webhook.Stats
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
		assert.Equal(t, 5, stats.TotalProcessed)
		require.Len(t, stats.Recent, 2)
		assert.Equal(t, time.Date(2024, 1, 1, 10, 0, 4, 0, time.UTC), stats.Recent[1].Timestamp)
	})

	t.Run("out-of-range limit fails validation", func(t *testing.T) {
		h := NewStatsHandler(seededHistory(1))

		req := httptest.NewRequest(http.MethodGet, "http://test/v1/stats?limit=1000", http.NoBody)
		rec := httptest.NewRecorder()

		h.Get(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHealthHandler_Check(t *testing.T) {
	h := NewHealthHandler(true, false)

	req := httptest.NewRequest(http.MethodGet, "http://test/health", http.NoBody)
	rec := httptest.NewRecorder()

	h.Check(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var status healthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "healthy", status.Status)
	assert.Equal(t, "coachos-api", status.Service)
	assert.True(t, status.RecordStoreConfigured)
	assert.False(t, status.InsightsConfigured)
}
