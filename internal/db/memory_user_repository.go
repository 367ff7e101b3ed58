package db

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"bidderpro-backend-go/internal/models"
)

// memoryUserRepository keeps user records in process memory.
type memoryUserRepository struct {
	mu    sync.RWMutex
	users map[string]models.UserRecord
}

// NewMemoryUserRepository creates an empty in-memory UserRepository.
func NewMemoryUserRepository() UserRepository {
	return &memoryUserRepository{users: make(map[string]models.UserRecord)}
}

func (r *memoryUserRepository) GetByEmail(ctx context.Context, email string) (*models.UserRecord, error) {
	key := models.NormalizeEmail(email)
	if key == "" {
		return nil, errors.New("email cannot be empty for GetByEmail operation")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[key]
	if !ok {
		return nil, fmt.Errorf("user with email '%s': %w", key, ErrNotFound)
	}
	return &user, nil
}

func (r *memoryUserRepository) InsertIfAbsent(ctx context.Context, user *models.UserRecord) (*models.UserRecord, bool, error) {
	key := models.NormalizeEmail(user.Email)
	if key == "" {
		return nil, false, errors.New("email cannot be empty for InsertIfAbsent operation")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.users[key]; ok {
		return &existing, false, nil
	}
	stored := *user
	stored.Email = key
	r.users[key] = stored
	return &stored, true, nil
}
