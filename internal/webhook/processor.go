package webhook

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sarahcave/coachos/internal/observability"
)

// Outcome is one automation result for one processed record or client.
type Outcome struct {
	RecordID       string    `json:"record_id,omitempty"`
	ClientID       string    `json:"client_id,omitempty"`
	TableName      string    `json:"table_name,omitempty"`
	AutomationType string    `json:"automation_type"`
	Result         any       `json:"result"`
	ProcessedAt    time.Time `json:"processed_at"`
	TriggeredBy    string    `json:"triggered_by,omitempty"`
}

// HandlerFunc processes the record changes of one delivery. It returns one
// outcome per processed item plus a free-text error list; a single record's
// failure must not abort the rest of the batch.
type HandlerFunc func(ctx context.Context, delivery *Delivery) ([]Outcome, []string)

// ProcessingResult is the aggregate response for one dispatched delivery.
type ProcessingResult struct {
	Status         ProcessingStatus `json:"status"`
	AutomationType string           `json:"automation_type,omitempty"`
	Message        string           `json:"message,omitempty"`
	ResultsCount   int              `json:"results_count"`
	ErrorCount     int              `json:"error_count"`
	Results        []Outcome        `json:"results"`
	Errors         []string         `json:"errors"`
	ProcessedAt    time.Time        `json:"processed_at"`
	DurationMillis float64          `json:"processing_duration_ms"`
}

type registeredHandler struct {
	automationName string
	fn             HandlerFunc
}

// Processor routes normalized deliveries to automation handlers and records
// every outcome to the sink.
type Processor struct {
	handlers map[WebhookType]registeredHandler
	enabled  map[string]struct{}
	sink     OutcomeSink
	metrics  observability.WebhookMetrics
	logger   *slog.Logger
}

// NewProcessor creates a processor. enabledAutomations is an allow-list of
// automation names; empty means every registered automation is enabled.
// metrics may be nil.
func NewProcessor(logger *slog.Logger, sink OutcomeSink, metrics observability.WebhookMetrics, enabledAutomations []string) *Processor {
	var enabled map[string]struct{}
	if len(enabledAutomations) > 0 {
		enabled = make(map[string]struct{}, len(enabledAutomations))
		for _, name := range enabledAutomations {
			enabled[name] = struct{}{}
		}
	}

	return &Processor{
		handlers: make(map[WebhookType]registeredHandler),
		enabled:  enabled,
		sink:     sink,
		metrics:  metrics,
		logger:   logger,
	}
}

// Register binds a handler to a webhook type under an automation name. The
// name is what the enabled-automations allow-list matches against.
func (p *Processor) Register(webhookType WebhookType, automationName string, fn HandlerFunc) {
	p.handlers[webhookType] = registeredHandler{automationName: automationName, fn: fn}
}

// Process dispatches a normalized delivery to its handler and derives the
// aggregate status from the handler's results and errors. Unknown types,
// unregistered types, and disabled automations are skipped, not failed.
func (p *Processor) Process(ctx context.Context, delivery *Delivery) *ProcessingResult {
	start := time.Now()

	if p.metrics != nil {
		p.metrics.RecordReceived(string(delivery.Type))
	}

	handler, ok := p.handlers[delivery.Type]
	if !ok {
		return p.finish(ctx, delivery, start, &ProcessingResult{
			Status:  StatusSkipped,
			Message: fmt.Sprintf("no handler for webhook type: %s", delivery.Type),
		})
	}

	if !p.automationEnabled(handler.automationName) {
		return p.finish(ctx, delivery, start, &ProcessingResult{
			Status:         StatusSkipped,
			AutomationType: handler.automationName,
			Message:        fmt.Sprintf("automation %s is disabled", handler.automationName),
		})
	}

	results, errs := handler.fn(ctx, delivery)

	return p.finish(ctx, delivery, start, &ProcessingResult{
		Status:         deriveStatus(len(results), len(errs)),
		AutomationType: handler.automationName,
		Results:        results,
		Errors:         errs,
	})
}

func (p *Processor) automationEnabled(name string) bool {
	if p.enabled == nil {
		return true
	}
	_, ok := p.enabled[name]
	return ok
}

// deriveStatus: nothing attempted is skipped, errors alone fail, a mix is
// partial success.
func deriveStatus(results, errors int) ProcessingStatus {
	switch {
	case results == 0 && errors == 0:
		return StatusSkipped
	case results == 0:
		return StatusFailed
	case errors > 0:
		return StatusPartialSuccess
	default:
		return StatusSuccess
	}
}

func (p *Processor) finish(ctx context.Context, delivery *Delivery, start time.Time, result *ProcessingResult) *ProcessingResult {
	duration := time.Since(start)

	result.ResultsCount = len(result.Results)
	result.ErrorCount = len(result.Errors)
	result.ProcessedAt = time.Now().UTC()
	result.DurationMillis = float64(duration.Microseconds()) / 1000

	if result.Results == nil {
		result.Results = []Outcome{}
	}
	if result.Errors == nil {
		result.Errors = []string{}
	}

	if p.sink != nil {
		p.sink.RecordOutcome(OutcomeEntry{
			WebhookType:      delivery.Type,
			WebhookID:        delivery.WebhookID,
			RecordsProcessed: delivery.TotalRecordsChanged,
			Status:           result.Status,
			Duration:         duration,
			DurationMillis:   result.DurationMillis,
			Timestamp:        result.ProcessedAt,
			Errors:           result.Errors,
		})
	}

	if p.metrics != nil {
		p.metrics.RecordOutcome(string(delivery.Type), string(result.Status), duration)
		if delivery.TotalRecordsChanged > 0 {
			p.metrics.RecordRecordsProcessed(string(delivery.Type), int64(delivery.TotalRecordsChanged))
		}
	}

	logLevel := slog.LevelInfo
	if result.Status == StatusFailed {
		logLevel = slog.LevelError
	}
	p.logger.Log(ctx, logLevel, "Processed webhook delivery",
		slog.String("webhook_type", string(delivery.Type)),
		slog.String("webhook_id", delivery.WebhookID),
		slog.String("status", string(result.Status)),
		slog.Int("results", result.ResultsCount),
		slog.Int("errors", result.ErrorCount),
		slog.Float64("duration_ms", result.DurationMillis))

	return result
}
