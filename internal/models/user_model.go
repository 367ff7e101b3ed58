package models

import (
	"strings"
	"time"
)

// UserRecord is a signed-in user. It is created on first sign-in and never
// modified afterwards; TrialStart is the moment the email was first seen.
type UserRecord struct {
	Email      string    `json:"email" firestore:"email"`
	Name       string    `json:"name" firestore:"name"`
	TrialStart time.Time `json:"trialStart" firestore:"trialStart"`
}

// NormalizeEmail returns the canonical form used as the store key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
