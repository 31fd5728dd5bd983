// Package jobs holds the background task definitions and the Asynq worker
// wiring.
package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskGrantIntegrity re-derives permission bundles and repairs drift.
	TaskGrantIntegrity = "authz:grant_integrity"
	// TaskAuditPrune trims old audit log rows.
	TaskAuditPrune = "audit:prune"
)

// GrantIntegrityPayload configures an integrity sweep.
type GrantIntegrityPayload struct {
	// Repair controls whether drift is fixed or only reported.
	Repair bool `json:"repair"`
}

// NewGrantIntegrityTask constructs an Asynq task for the integrity sweep.
func NewGrantIntegrityTask(payload GrantIntegrityPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskGrantIntegrity, data), nil
}

// AuditPrunePayload configures the audit retention sweep.
type AuditPrunePayload struct {
	RetentionDays int `json:"retention_days"`
}

// NewAuditPruneTask constructs an Asynq task for audit pruning.
func NewAuditPruneTask(payload AuditPrunePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAuditPrune, data), nil
}
