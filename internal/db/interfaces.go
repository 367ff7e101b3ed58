package db

import (
	"context"
	"errors"

	"bidderpro-backend-go/internal/models"
)

// ErrNotFound is returned by GetByEmail when no record exists for the key.
var ErrNotFound = errors.New("user record not found")

// UserRepository defines the storage operations the trial gate relies on.
// Records are keyed by normalized email and never updated or deleted.
type UserRepository interface {
	// GetByEmail returns the stored record, or an error wrapping ErrNotFound.
	GetByEmail(ctx context.Context, email string) (*models.UserRecord, error)
	// InsertIfAbsent stores user unless a record with the same email exists.
	// It returns the record that is stored after the call and whether this
	// call created it. The check and the write are atomic per backend.
	InsertIfAbsent(ctx context.Context, user *models.UserRecord) (*models.UserRecord, bool, error)
}
