package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"go.uber.org/zap"

	"bidderpro-backend-go/internal/models"
)

const lockRetryDelay = 10 * time.Millisecond

// fileUserRepository persists user records as a single JSON document keyed
// by email. Every operation re-reads the file, so edits made by other
// processes are picked up. mu serializes goroutines of this process and an
// flock on "<path>.lock" serializes processes sharing the file. Writes land
// atomically through a temp file and rename.
type fileUserRepository struct {
	mu     sync.Mutex
	path   string
	lock   *flock.Flock
	logger *zap.Logger
}

// NewFileUserRepository creates a UserRepository backed by the JSON file at
// path. The directory is created eagerly and the file on first insert.
func NewFileUserRepository(path string, logger *zap.Logger) (UserRepository, error) {
	if path == "" {
		return nil, errors.New("users file path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create users directory: %w", err)
	}
	repo := &fileUserRepository{path: path, lock: flock.New(path + ".lock"), logger: logger}
	if _, err := repo.load(); err != nil {
		return nil, err
	}
	logger.Info("File user repository ready", zap.String("path", path))
	return repo, nil
}

func (r *fileUserRepository) GetByEmail(ctx context.Context, email string) (*models.UserRecord, error) {
	key := models.NormalizeEmail(email)
	if key == "" {
		return nil, errors.New("email cannot be empty for GetByEmail operation")
	}

	unlock, err := r.acquire(ctx, true)
	if err != nil {
		return nil, err
	}
	defer unlock()

	users, err := r.load()
	if err != nil {
		return nil, err
	}
	user, ok := users[key]
	if !ok {
		return nil, fmt.Errorf("user with email '%s': %w", key, ErrNotFound)
	}
	user.Email = key
	return &user, nil
}

func (r *fileUserRepository) InsertIfAbsent(ctx context.Context, user *models.UserRecord) (*models.UserRecord, bool, error) {
	key := models.NormalizeEmail(user.Email)
	if key == "" {
		return nil, false, errors.New("email cannot be empty for InsertIfAbsent operation")
	}

	unlock, err := r.acquire(ctx, false)
	if err != nil {
		return nil, false, err
	}
	defer unlock()

	users, err := r.load()
	if err != nil {
		return nil, false, err
	}
	if existing, ok := users[key]; ok {
		existing.Email = key
		return &existing, false, nil
	}

	stored := *user
	stored.Email = key
	users[key] = stored
	if err := r.save(users); err != nil {
		return nil, false, err
	}
	return &stored, true, nil
}

// acquire takes the process mutex and then the file lock, shared for reads
// and exclusive for the load-then-save of an insert.
func (r *fileUserRepository) acquire(ctx context.Context, shared bool) (func(), error) {
	r.mu.Lock()
	var (
		locked bool
		err    error
	)
	if shared {
		locked, err = r.lock.TryRLockContext(ctx, lockRetryDelay)
	} else {
		locked, err = r.lock.TryLockContext(ctx, lockRetryDelay)
	}
	if err == nil && !locked {
		err = errors.New("lock not acquired")
	}
	if err != nil {
		r.mu.Unlock()
		return nil, fmt.Errorf("lock users file %s: %w", r.path, err)
	}
	return func() {
		if err := r.lock.Unlock(); err != nil {
			r.logger.Warn("Failed to release users file lock", zap.String("path", r.path), zap.Error(err))
		}
		r.mu.Unlock()
	}, nil
}

func (r *fileUserRepository) load() (map[string]models.UserRecord, error) {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, os.ErrNotExist) {
		return make(map[string]models.UserRecord), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read users file %s: %w", r.path, err)
	}
	users := make(map[string]models.UserRecord)
	if len(data) == 0 {
		return users, nil
	}
	if err := json.Unmarshal(data, &users); err != nil {
		return nil, fmt.Errorf("decode users file %s: %w", r.path, err)
	}
	return users, nil
}

func (r *fileUserRepository) save(users map[string]models.UserRecord) error {
	data, err := json.MarshalIndent(users, "", "  ")
	if err != nil {
		return fmt.Errorf("encode users: %w", err)
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create users directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".users-*.json")
	if err != nil {
		return fmt.Errorf("create temp users file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp users file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp users file: %w", err)
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		return fmt.Errorf("replace users file: %w", err)
	}
	return nil
}
