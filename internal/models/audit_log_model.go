package models

import "time"

// Audit actions.
const (
	ActionUserRegistered      = "USER_REGISTERED"
	ActionUserSignedIn        = "USER_SIGNED_IN"
	ActionEstimateGenerated   = "ESTIMATE_GENERATED"
	ActionTrialExpiredBlocked = "TRIAL_EXPIRED_BLOCKED"
)

// AuditEvent represents an audit trail event published to the event queue.
type AuditEvent struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Email     string         `json:"email"`
	Action    string         `json:"action"`
	Details   map[string]any `json:"details,omitempty"`
}
