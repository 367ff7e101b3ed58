package db

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"bidderpro-backend-go/internal/models"
)

const usersCollection = "users"

// firestoreUserRepository implements UserRepository using Firestore.
// The normalized email is the document ID.
type firestoreUserRepository struct {
	client *firestore.Client
}

// NewFirestoreUserRepository creates a new instance of firestoreUserRepository.
func NewFirestoreUserRepository(client *firestore.Client) (UserRepository, error) {
	if client == nil {
		return nil, errors.New("firestore client is not initialized for UserRepository")
	}
	return &firestoreUserRepository{client: client}, nil
}

// GetByEmail retrieves a user document by its email.
func (r *firestoreUserRepository) GetByEmail(ctx context.Context, email string) (*models.UserRecord, error) {
	key := models.NormalizeEmail(email)
	if key == "" {
		return nil, errors.New("email cannot be empty for GetByEmail operation")
	}
	docSnap, err := r.client.Collection(usersCollection).Doc(key).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("user with email '%s' not found: %w", key, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user with email '%s': %w", key, err)
	}

	var user models.UserRecord
	if err := docSnap.DataTo(&user); err != nil {
		return nil, fmt.Errorf("failed to decode user data for email '%s': %w", key, err)
	}
	user.Email = docSnap.Ref.ID
	return &user, nil
}

// InsertIfAbsent relies on DocumentRef.Create, which fails with AlreadyExists
// when the document is present. In that case the stored document is returned.
func (r *firestoreUserRepository) InsertIfAbsent(ctx context.Context, user *models.UserRecord) (*models.UserRecord, bool, error) {
	key := models.NormalizeEmail(user.Email)
	if key == "" {
		return nil, false, errors.New("email cannot be empty for InsertIfAbsent operation")
	}
	stored := *user
	stored.Email = key

	_, err := r.client.Collection(usersCollection).Doc(key).Create(ctx, stored)
	if err == nil {
		return &stored, true, nil
	}
	if status.Code(err) != codes.AlreadyExists {
		return nil, false, fmt.Errorf("failed to create user with email '%s': %w", key, err)
	}

	existing, err := r.GetByEmail(ctx, key)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}
