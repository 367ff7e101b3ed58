package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"bidderpro-backend-go/internal/db"
	"bidderpro-backend-go/internal/models"
)

// TrialState is the computed access state of a registered user.
type TrialState string

const (
	TrialActive  TrialState = "active"
	TrialExpired TrialState = "expired"
)

// TrialStatus is derived from the stored trial start; it is never persisted.
type TrialStatus struct {
	State            TrialState `json:"state"`
	TrialStart       time.Time  `json:"trialStart"`
	ExpiresAt        time.Time  `json:"expiresAt"`
	RemainingSeconds int64      `json:"remainingSeconds"`
	DaysLeft         int        `json:"daysLeft"`
}

// Active reports whether estimation is allowed.
func (s TrialStatus) Active() bool { return s.State == TrialActive }

// Session is the per-request context passed from the gate to the handlers
// and the estimate service.
type Session struct {
	User  *models.UserRecord `json:"user"`
	Trial TrialStatus        `json:"trial"`
}

type trialGate struct {
	userRepo db.UserRepository
	window   time.Duration
	audit    AuditService
	logger   *zap.Logger
	now      func() time.Time
}

// NewTrialGate creates a TrialGate. window is the trial length.
func NewTrialGate(userRepo db.UserRepository, window time.Duration, audit AuditService, logger *zap.Logger) TrialGate {
	return &trialGate{
		userRepo: userRepo,
		window:   window,
		audit:    audit,
		logger:   logger,
		now:      time.Now,
	}
}

func (g *trialGate) Window() time.Duration { return g.window }

func (g *trialGate) SignIn(ctx context.Context, name, email string) (*models.UserRecord, bool, error) {
	name = strings.TrimSpace(name)
	email = models.NormalizeEmail(email)
	if name == "" || email == "" {
		return nil, false, ErrMissingCredentials
	}

	candidate := &models.UserRecord{
		Email:      email,
		Name:       name,
		// Postgres and Firestore keep microseconds; truncating here keeps the
		// value returned on creation equal to what later reads return.
		TrialStart: g.now().UTC().Truncate(time.Microsecond),
	}
	user, created, err := g.userRepo.InsertIfAbsent(ctx, candidate)
	if err != nil {
		g.logger.Error("Sign-in failed to reach user store", zap.String("email", email), zap.Error(err))
		return nil, false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	action := models.ActionUserSignedIn
	if created {
		action = models.ActionUserRegistered
	}
	if err := g.audit.Record(ctx, user.Email, action, map[string]any{"trialStart": user.TrialStart}); err != nil {
		g.logger.Warn("Failed to record audit event", zap.String("action", action), zap.Error(err))
	}
	return user, created, nil
}

func (g *trialGate) Session(ctx context.Context, email string) (*Session, error) {
	user, err := g.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrUserNotFound, models.NormalizeEmail(email))
		}
		g.logger.Error("Session lookup failed to reach user store", zap.String("email", email), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return &Session{User: user, Trial: g.Status(user, g.now())}, nil
}

// Status is Active while now - TrialStart < window and Expired from the
// exact window boundary on.
func (g *trialGate) Status(user *models.UserRecord, now time.Time) TrialStatus {
	expiresAt := user.TrialStart.Add(g.window)
	elapsed := now.Sub(user.TrialStart)

	status := TrialStatus{
		State:      TrialExpired,
		TrialStart: user.TrialStart,
		ExpiresAt:  expiresAt,
	}
	if elapsed < g.window {
		status.State = TrialActive
		remaining := g.window - elapsed
		status.RemainingSeconds = int64(remaining / time.Second)
		status.DaysLeft = int((remaining + 24*time.Hour - 1) / (24 * time.Hour))
	}
	return status
}
