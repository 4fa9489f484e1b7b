package webhook

import (
	"sync"
	"time"
)

// defaultHistoryCapacity bounds the in-process outcome ring buffer.
const defaultHistoryCapacity = 100

// OutcomeEntry summarizes the processing of one delivery.
type OutcomeEntry struct {
	WebhookType      WebhookType      `json:"webhook_type"`
	WebhookID        string           `json:"webhook_id,omitempty"`
	RecordsProcessed int              `json:"records_processed"`
	Status           ProcessingStatus `json:"processing_status"`
	Duration         time.Duration    `json:"-"`
	DurationMillis   float64          `json:"processing_duration_ms"`
	Timestamp        time.Time        `json:"timestamp"`
	Errors           []string         `json:"errors,omitempty"`
}

// OutcomeSink receives one entry per processed delivery. The processor never
// reads the sink back; it exists only for reporting.
type OutcomeSink interface {
	RecordOutcome(entry OutcomeEntry)
}

// History is an in-memory OutcomeSink: a rolling buffer of the most recent
// entries plus per-type error counters. Counters only report; nothing
// circuit-breaks on them.
type History struct {
	mu          sync.Mutex
	entries     []OutcomeEntry
	errorCounts map[WebhookType]int
	statusTally map[ProcessingStatus]int
	total       int
	capacity    int
}

// NewHistory creates a history keeping the most recent capacity entries.
// A non-positive capacity falls back to the default of 100.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = defaultHistoryCapacity
	}

	return &History{
		errorCounts: make(map[WebhookType]int),
		statusTally: make(map[ProcessingStatus]int),
		capacity:    capacity,
	}
}

// RecordOutcome appends an entry, evicting the oldest beyond capacity.
func (h *History) RecordOutcome(entry OutcomeEntry) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries = append(h.entries, entry)
	if len(h.entries) > h.capacity {
		h.entries = h.entries[len(h.entries)-h.capacity:]
	}

	h.total++
	h.statusTally[entry.Status]++
	if len(entry.Errors) > 0 {
		h.errorCounts[entry.WebhookType]++
	}
}

// Stats is a point-in-time snapshot of processing history.
type Stats struct {
	TotalProcessed int            `json:"total_processed"`
	StatusCounts   map[string]int `json:"status_counts"`
	ErrorCounts    map[string]int `json:"error_counts_by_type"`
	Recent         []OutcomeEntry `json:"recent"`
}

// Snapshot returns a copy of the counters and the most recent entries,
// newest last.
func (h *History) Snapshot() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()

	stats := Stats{
		TotalProcessed: h.total,
		StatusCounts:   make(map[string]int, len(h.statusTally)),
		ErrorCounts:    make(map[string]int, len(h.errorCounts)),
		Recent:         make([]OutcomeEntry, len(h.entries)),
	}

	for status, n := range h.statusTally {
		stats.StatusCounts[string(status)] = n
	}
	for webhookType, n := range h.errorCounts {
		stats.ErrorCounts[string(webhookType)] = n
	}
	copy(stats.Recent, h.entries)

	return stats
}
