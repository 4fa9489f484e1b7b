package automation

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/sarahcave/coachos/internal/webhook"
)

// Automation names, as matched by the enabled-automations allow-list.
const (
	NameLeadScoring        = "lead_scoring"
	NameSessionProcessing  = "session_processing"
	NameClientHealth       = "client_health"
	NameActionItemTracking = "action_item_tracking"
)

// Registry adapts the automation engines to webhook handlers and binds them
// to their webhook types.
type Registry struct {
	leads    *LeadScorer
	sessions *SessionProcessor
	health   *HealthMonitor
	logger   *slog.Logger
}

// NewRegistry creates a registry over the given engines.
func NewRegistry(leads *LeadScorer, sessions *SessionProcessor, health *HealthMonitor, logger *slog.Logger) *Registry {
	return &Registry{leads: leads, sessions: sessions, health: health, logger: logger}
}

// RegisterAll binds every engine to its webhook types on the processor.
func (r *Registry) RegisterAll(p *webhook.Processor) {
	p.Register(webhook.TypeLeadCreated, NameLeadScoring, r.HandleLeads)
	p.Register(webhook.TypeLeadUpdated, NameLeadScoring, r.HandleLeads)
	p.Register(webhook.TypeSessionCreated, NameSessionProcessing, r.HandleSessions)
	p.Register(webhook.TypeSessionUpdated, NameSessionProcessing, r.HandleSessions)
	p.Register(webhook.TypeClientUpdated, NameClientHealth, r.HandleClientHealth)
	p.Register(webhook.TypePaymentUpdated, NameClientHealth, r.HandleClientHealth)
	p.Register(webhook.TypeActionItemUpdate, NameActionItemTracking, r.HandleActionItems)
}

// HandleLeads scores every created or updated lead record. One record's
// failure is recorded and the rest of the batch continues.
func (r *Registry) HandleLeads(ctx context.Context, delivery *webhook.Delivery) ([]webhook.Outcome, []string) {
	var results []webhook.Outcome
	var errs []string

	for _, change := range delivery.RecordChanges {
		if !strings.Contains(strings.ToLower(change.TableName), "lead") {
			continue
		}

		fields := change.EffectiveFields()
		if fields == nil {
			continue
		}

		profile := LeadProfileFromFields(fields, change.RecordID)
		if profile.Name == "Unknown Lead" && profile.Email == "" && profile.Company == "" {
			errs = append(errs, fmt.Sprintf("lead scoring failed: record %s has no usable lead fields", change.RecordID))
			continue
		}

		results = append(results, webhook.Outcome{
			RecordID:       change.RecordID,
			TableName:      change.TableName,
			AutomationType: NameLeadScoring,
			Result:         r.leads.Score(ctx, profile),
			ProcessedAt:    time.Now().UTC(),
		})
	}

	return results, errs
}

// HandleSessions processes created or updated session records that carry raw
// notes; records without notes are silently skipped, they are the trigger.
func (r *Registry) HandleSessions(ctx context.Context, delivery *webhook.Delivery) ([]webhook.Outcome, []string) {
	var results []webhook.Outcome
	var errs []string

	for _, change := range delivery.RecordChanges {
		if !strings.Contains(strings.ToLower(change.TableName), "session") {
			continue
		}

		fields := change.EffectiveFields()
		if fields == nil {
			continue
		}

		if fields.String("Raw Notes", "raw_notes") == "" {
			r.logger.DebugContext(ctx, "Skipping session record without raw notes",
				"record_id", change.RecordID, "table", change.TableName)
			continue
		}

		session := SessionDataFromFields(fields, change.RecordID)

		results = append(results, webhook.Outcome{
			RecordID:       change.RecordID,
			TableName:      change.TableName,
			AutomationType: NameSessionProcessing,
			Result:         r.sessions.Process(ctx, session),
			ProcessedAt:    time.Now().UTC(),
		})
	}

	return results, errs
}

// HandleClientHealth reassesses every client touched by the delivery: client
// records directly, invoice records through their linked client.
func (r *Registry) HandleClientHealth(ctx context.Context, delivery *webhook.Delivery) ([]webhook.Outcome, []string) {
	clientIDs := make(map[string]struct{})

	for _, change := range delivery.RecordChanges {
		tableName := strings.ToLower(change.TableName)

		switch {
		case strings.Contains(tableName, "client"):
			clientIDs[change.RecordID] = struct{}{}
		case strings.Contains(tableName, "payment") || strings.Contains(tableName, "invoice"):
			if linked := linkedClientID(change); linked != "" {
				clientIDs[linked] = struct{}{}
			}
		}
	}

	return r.assessClients(ctx, delivery, clientIDs, "")
}

// HandleActionItems logs each action-item change and reassesses the health
// of every linked client.
func (r *Registry) HandleActionItems(ctx context.Context, delivery *webhook.Delivery) ([]webhook.Outcome, []string) {
	var results []webhook.Outcome
	clientIDs := make(map[string]struct{})

	for _, change := range delivery.RecordChanges {
		if !strings.Contains(strings.ToLower(change.TableName), "action") {
			continue
		}

		if linked := linkedClientID(change); linked != "" {
			clientIDs[linked] = struct{}{}
		}

		status := "unknown"
		if fields := change.EffectiveFields(); fields != nil {
			if s := fields.String("Status"); s != "" {
				status = s
			}
		}

		results = append(results, webhook.Outcome{
			RecordID:       change.RecordID,
			TableName:      change.TableName,
			AutomationType: NameActionItemTracking,
			Result: map[string]any{
				"action":      "logged_change",
				"change_type": change.ChangeType,
				"status":      status,
			},
			ProcessedAt: time.Now().UTC(),
		})
	}

	reassessments, errs := r.assessClients(ctx, delivery, clientIDs, "action_item_update")
	return append(results, reassessments...), errs
}

// assessClients runs health assessment per client, in sorted ID order for
// deterministic output. One client's failure does not stop the rest.
func (r *Registry) assessClients(ctx context.Context, delivery *webhook.Delivery, clientIDs map[string]struct{}, triggeredBy string) ([]webhook.Outcome, []string) {
	ids := make([]string, 0, len(clientIDs))
	for id := range clientIDs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var results []webhook.Outcome
	var errs []string

	for _, clientID := range ids {
		client := ClientHealthData{
			ClientID:        clientID,
			LastSessionDate: time.Now().UTC().Format(time.RFC3339),
			Notes:           fmt.Sprintf("Health assessment triggered by webhook: %s", delivery.Type),
		}

		results = append(results, webhook.Outcome{
			ClientID:       clientID,
			AutomationType: NameClientHealth,
			Result:         r.health.Assess(ctx, client),
			ProcessedAt:    time.Now().UTC(),
			TriggeredBy:    triggeredBy,
		})
	}

	return results, errs
}

// linkedClientID reads the first entry of a record's Client link field.
func linkedClientID(change webhook.RecordChange) string {
	fields := change.EffectiveFields()
	if fields == nil {
		return ""
	}

	for _, key := range []string{"Client", "client"} {
		if linked := fields.StringList(key); len(linked) > 0 {
			return linked[0]
		}
	}
	return ""
}
