package core

import (
	"context"
	"time"

	"bidderpro-backend-go/internal/models"
)

// TrialGate defines sign-in and trial evaluation.
type TrialGate interface {
	// SignIn registers the email on first use and returns the stored record.
	// created is false for a returning email, whose trial start is untouched.
	SignIn(ctx context.Context, name, email string) (user *models.UserRecord, created bool, err error)
	// Session loads the record for email and evaluates its trial now.
	Session(ctx context.Context, email string) (*Session, error)
	// Status evaluates the trial of user at the given instant.
	Status(user *models.UserRecord, now time.Time) TrialStatus
	// Window returns the configured trial length.
	Window() time.Duration
}

// EstimateService defines the generate-estimate action.
type EstimateService interface {
	Generate(ctx context.Context, session *Session, req models.EstimateRequest) (*models.EstimateView, error)
}

// AuditService defines the interface for audit event publishing.
type AuditService interface {
	Record(ctx context.Context, email, action string, details map[string]any) error
}

// BillingService defines the subscription upgrade path.
type BillingService interface {
	SubscriptionLink(ctx context.Context, email string) string
}
