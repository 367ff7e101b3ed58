package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Supported USER_STORE values.
const (
	StoreMemory    = "memory"
	StoreFile      = "file"
	StoreRedis     = "redis"
	StoreFirestore = "firestore"
	StorePostgres  = "postgres"
)

// Config holds all configuration for the application.
type Config struct {
	Port    string `mapstructure:"PORT"`
	GinMode string `mapstructure:"GIN_MODE"`
	// ClientURL is the allowed CORS origin. CORS is skipped when empty.
	ClientURL string `mapstructure:"CLIENT_URL"`

	SessionSecret string        `mapstructure:"SESSION_SECRET"`
	SessionTTL    time.Duration `mapstructure:"SESSION_TTL"`
	TrialWindow   time.Duration `mapstructure:"TRIAL_WINDOW"`

	DefaultLaborRate float64 `mapstructure:"DEFAULT_LABOR_RATE"`
	PriceTableFile   string  `mapstructure:"PRICE_TABLE_FILE"`
	SubscribeURL     string  `mapstructure:"SUBSCRIBE_URL"`

	UserStore string `mapstructure:"USER_STORE"`
	UsersFile string `mapstructure:"USERS_FILE"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	FirebaseProjectID                string `mapstructure:"FIREBASE_PROJECT_ID"`
	GoogleApplicationCredentials     string `mapstructure:"GOOGLE_APPLICATION_CREDENTIALS"`
	FirebaseServiceAccountJSONBase64 string `mapstructure:"FIREBASE_SERVICE_ACCOUNT_JSON_BASE64"`

	DatabaseURL string `mapstructure:"DATABASE_URL"`

	RabbitMQURL string `mapstructure:"RABBITMQ_URL"`
	AuditQueue  string `mapstructure:"AUDIT_QUEUE"`
}

var keys = []string{
	"PORT", "GIN_MODE", "CLIENT_URL",
	"SESSION_SECRET", "SESSION_TTL", "TRIAL_WINDOW",
	"DEFAULT_LABOR_RATE", "PRICE_TABLE_FILE", "SUBSCRIBE_URL",
	"USER_STORE", "USERS_FILE",
	"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB",
	"FIREBASE_PROJECT_ID", "GOOGLE_APPLICATION_CREDENTIALS", "FIREBASE_SERVICE_ACCOUNT_JSON_BASE64",
	"DATABASE_URL",
	"RABBITMQ_URL", "AUDIT_QUEUE",
}

// LoadConfig loads configuration from environment variables using Viper.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("PORT", "8080")
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("SESSION_TTL", "24h")
	v.SetDefault("TRIAL_WINDOW", "48h")
	v.SetDefault("DEFAULT_LABOR_RATE", 35.0)
	v.SetDefault("SUBSCRIBE_URL", "https://bidderpro.example.com/subscribe")
	v.SetDefault("USER_STORE", StoreMemory)
	v.SetDefault("USERS_FILE", "users.json")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("AUDIT_QUEUE", "bidder.audit")

	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.UserStore = strings.ToLower(strings.TrimSpace(cfg.UserStore))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks required settings, including those of the selected store.
func (c *Config) Validate() error {
	if c.SessionSecret == "" {
		return errors.New("SESSION_SECRET is required")
	}
	if c.SessionTTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}
	if c.TrialWindow <= 0 {
		return errors.New("TRIAL_WINDOW must be positive")
	}
	if c.DefaultLaborRate < 10 {
		return fmt.Errorf("DEFAULT_LABOR_RATE must be at least 10, got %.2f", c.DefaultLaborRate)
	}

	switch c.UserStore {
	case StoreMemory:
	case StoreFile:
		if c.UsersFile == "" {
			return errors.New("USERS_FILE is required when USER_STORE=file")
		}
	case StoreRedis:
		if c.RedisAddr == "" {
			return errors.New("REDIS_ADDR is required when USER_STORE=redis")
		}
	case StoreFirestore:
		if c.FirebaseProjectID == "" {
			return errors.New("FIREBASE_PROJECT_ID is required when USER_STORE=firestore")
		}
	case StorePostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required when USER_STORE=postgres")
		}
	default:
		return fmt.Errorf("unknown USER_STORE %q", c.UserStore)
	}
	return nil
}

// IsRelease reports whether gin runs in release mode.
func (c *Config) IsRelease() bool {
	return strings.EqualFold(c.GinMode, "release")
}
