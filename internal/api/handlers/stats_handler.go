package handlers

import (
	"net/http"

	"github.com/sarahcave/coachos/internal/api/response"
	"github.com/sarahcave/coachos/internal/api/validation"
	"github.com/sarahcave/coachos/internal/webhook"
)

// StatsProvider exposes a snapshot of webhook processing history.
type StatsProvider interface {
	Snapshot() webhook.Stats
}

// StatsQuery holds the query parameters for the stats endpoint.
type StatsQuery struct {
	// Limit caps how many recent entries are returned, newest last.
	Limit int `form:"limit" validate:"omitempty,gte=1,lte=100"`
}

// StatsHandler serves webhook processing statistics.
type StatsHandler struct {
	history StatsProvider
}

// NewStatsHandler creates a stats handler.
func NewStatsHandler(history StatsProvider) *StatsHandler {
	return &StatsHandler{history: history}
}

// Get handles GET /v1/stats.
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	var query StatsQuery
	if err := validation.ValidateAndDecodeQueryParams(r, &query); err != nil {
		validation.RespondValidationError(w, err)
		return
	}

	stats := h.history.Snapshot()
	if query.Limit > 0 && len(stats.Recent) > query.Limit {
		stats.Recent = stats.Recent[len(stats.Recent)-query.Limit:]
	}

	response.RespondJSON(w, http.StatusOK, stats)
}
