package db

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"

	"bidderpro-backend-go/internal/models"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// postgresUserRepository implements UserRepository on a users table whose
// primary key is the email.
type postgresUserRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresUserRepository connects to databaseURL, retrying with
// exponential backoff, and applies the embedded migrations.
func NewPostgresUserRepository(ctx context.Context, databaseURL string, logger *zap.Logger) (UserRepository, func() error, error) {
	const operation = "db.NewPostgresUserRepository"

	var pool *pgxpool.Pool
	retryPolicy := backoff.NewExponentialBackOff()
	retryPolicy.MaxElapsedTime = 2 * time.Minute
	retryPolicy.MaxInterval = 15 * time.Second

	logger.Info("Connecting to PostgreSQL...")
	err := backoff.RetryNotify(
		func() error {
			p, err := pgxpool.New(ctx, databaseURL)
			if err != nil {
				return backoff.Permanent(fmt.Errorf("parse config: %w", err))
			}
			if err := p.Ping(ctx); err != nil {
				p.Close()
				return fmt.Errorf("ping: %w", err)
			}
			pool = p
			return nil
		},
		backoff.WithContext(retryPolicy, ctx),
		func(err error, next time.Duration) {
			logger.Warn("PostgreSQL connection failed, retrying...",
				zap.Error(err),
				zap.Duration("next_attempt_in", next))
		},
	)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: failed to connect after retries: %w", operation, err)
	}
	logger.Info("Successfully connected to PostgreSQL")

	if err := runMigrations(ctx, pool, logger); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("%s: %w", operation, err)
	}

	closeFn := func() error {
		pool.Close()
		return nil
	}
	return &postgresUserRepository{pool: pool}, closeFn, nil
}

func runMigrations(ctx context.Context, pool *pgxpool.Pool, logger *zap.Logger) error {
	logger.Info("Running database migrations...")

	sqlDB := stdlib.OpenDBFromPool(pool)
	defer sqlDB.Close()

	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}
	if err := goose.UpContext(ctx, sqlDB, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Info("Database migrations completed successfully")
	return nil
}

func (r *postgresUserRepository) GetByEmail(ctx context.Context, email string) (*models.UserRecord, error) {
	key := models.NormalizeEmail(email)
	if key == "" {
		return nil, errors.New("email cannot be empty for GetByEmail operation")
	}

	const query = `SELECT email, name, trial_start FROM users WHERE email = $1`

	var user models.UserRecord
	err := r.pool.QueryRow(ctx, query, key).Scan(&user.Email, &user.Name, &user.TrialStart)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user with email '%s': %w", key, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	user.TrialStart = user.TrialStart.UTC()
	return &user, nil
}

func (r *postgresUserRepository) InsertIfAbsent(ctx context.Context, user *models.UserRecord) (*models.UserRecord, bool, error) {
	key := models.NormalizeEmail(user.Email)
	if key == "" {
		return nil, false, errors.New("email cannot be empty for InsertIfAbsent operation")
	}

	const query = `
		INSERT INTO users (email, name, trial_start)
		VALUES ($1, $2, $3)
		ON CONFLICT (email) DO NOTHING
	`

	tag, err := r.pool.Exec(ctx, query, key, user.Name, user.TrialStart.UTC())
	if err != nil {
		return nil, false, fmt.Errorf("failed to insert user: %w", err)
	}
	if tag.RowsAffected() == 1 {
		stored := *user
		stored.Email = key
		return &stored, true, nil
	}

	existing, err := r.GetByEmail(ctx, key)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}
