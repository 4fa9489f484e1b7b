package handlers

import (
	"net/http"

	"github.com/sarahcave/coachos/internal/api/response"
)

// healthStatus is the liveness response. The configured flags surface missing
// credentials without leaking their values.
type healthStatus struct {
	Status                string `json:"status"`
	Service               string `json:"service"`
	RecordStoreConfigured bool   `json:"record_store_configured"`
	InsightsConfigured    bool   `json:"insights_configured"`
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	recordStoreConfigured bool
	insightsConfigured    bool
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(recordStoreConfigured, insightsConfigured bool) *HealthHandler {
	return &HealthHandler{
		recordStoreConfigured: recordStoreConfigured,
		insightsConfigured:    insightsConfigured,
	}
}

// Check handles GET /health.
func (h *HealthHandler) Check(w http.ResponseWriter, _ *http.Request) {
	response.RespondJSON(w, http.StatusOK, healthStatus{
		Status:                "healthy",
		Service:               "coachos-api",
		RecordStoreConfigured: h.recordStoreConfigured,
		InsightsConfigured:    h.insightsConfigured,
	})
}
