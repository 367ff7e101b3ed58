package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"bidderpro-backend-go/internal/models"
)

const redisUserKeyPrefix = "users:"

// RedisOptions configures the Redis user repository.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	// ConnectTimeout bounds the start-up retries. Zero means one minute.
	ConnectTimeout time.Duration
}

// redisUserRepository stores each record as a JSON string under
// "users:<email>". SETNX gives the create-if-absent guarantee.
type redisUserRepository struct {
	client *redis.Client
}

// NewRedisUserRepository connects to Redis, retrying the initial ping with
// exponential backoff.
func NewRedisUserRepository(ctx context.Context, opts RedisOptions, logger *zap.Logger) (UserRepository, func() error, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		PoolSize:     20,
		MinIdleConns: 2,
	})

	retryPolicy := backoff.NewExponentialBackOff()
	retryPolicy.MaxElapsedTime = opts.ConnectTimeout
	if retryPolicy.MaxElapsedTime == 0 {
		retryPolicy.MaxElapsedTime = time.Minute
	}
	retryPolicy.MaxInterval = 10 * time.Second

	logger.Info("Connecting to Redis...", zap.String("addr", opts.Addr))
	err := backoff.RetryNotify(
		func() error {
			return client.Ping(ctx).Err()
		},
		backoff.WithContext(retryPolicy, ctx),
		func(err error, next time.Duration) {
			logger.Warn("Redis connection failed, retrying...",
				zap.Error(err),
				zap.Duration("next_attempt_in", next))
		},
	)
	if err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("redis: failed to connect after retries: %w", err)
	}

	logger.Info("Successfully connected to Redis")
	return &redisUserRepository{client: client}, client.Close, nil
}

func (r *redisUserRepository) GetByEmail(ctx context.Context, email string) (*models.UserRecord, error) {
	key := models.NormalizeEmail(email)
	if key == "" {
		return nil, errors.New("email cannot be empty for GetByEmail operation")
	}
	data, err := r.client.Get(ctx, redisUserKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("user with email '%s': %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", key, err)
	}

	var user models.UserRecord
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("unmarshal user %s: %w", key, err)
	}
	user.Email = key
	return &user, nil
}

func (r *redisUserRepository) InsertIfAbsent(ctx context.Context, user *models.UserRecord) (*models.UserRecord, bool, error) {
	key := models.NormalizeEmail(user.Email)
	if key == "" {
		return nil, false, errors.New("email cannot be empty for InsertIfAbsent operation")
	}
	stored := *user
	stored.Email = key

	data, err := json.Marshal(stored)
	if err != nil {
		return nil, false, fmt.Errorf("marshal user: %w", err)
	}

	created, err := r.client.SetNX(ctx, redisUserKeyPrefix+key, data, 0).Result()
	if err != nil {
		return nil, false, fmt.Errorf("setnx user %s: %w", key, err)
	}
	if created {
		return &stored, true, nil
	}

	existing, err := r.GetByEmail(ctx, key)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}
