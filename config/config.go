package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

const (
	// ExpiryPolicyFixed sets expires_at at creation and once more on activation
	ExpiryPolicyFixed = "fixed"
	// ExpiryPolicyIdle additionally pushes expires_at forward on every accepted message
	ExpiryPolicyIdle = "idle"
)

type Config struct {
	Environment string `env:"APP_ENV" envDefault:"development"`
	Name        string `env:"APP_NAME" envDefault:"panchakarma-chat"`
	Version     string `env:"APP_VERSION" envDefault:"1.0.0"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	HTTP      HTTPConfig      `envPrefix:"HTTP_"`
	Storage   StorageConfig   `envPrefix:"STORAGE_"`
	Postgres  PostgresConfig  `envPrefix:"POSTGRES_"`
	JWT       JWTConfig       `envPrefix:"JWT_"`
	S3        S3Config        `envPrefix:"S3_"`
	Redis     RedisConfig     `envPrefix:"REDIS_"`
	Session   SessionConfig   `envPrefix:"SESSION_"`
	Billing   BillingConfig   `envPrefix:"BILLING_"`
	Scheduler SchedulerConfig `envPrefix:"SCHEDULER_"`
}

type HTTPConfig struct {
	Port           string        `env:"PORT" envDefault:"8080"`
	ReadTimeout    time.Duration `env:"READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout   time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
	MaxHeaderMB    int           `env:"MAX_HEADER_MB" envDefault:"1"`
	MaxUploadMB    int64         `env:"MAX_UPLOAD_MB" envDefault:"25"`
	AllowedOrigins []string      `env:"ALLOWED_ORIGINS" envSeparator:","`
}

type StorageConfig struct {
	Driver string `env:"DRIVER" envDefault:"postgres"`
	// SeedUsers populates the memory driver, e.g. "1:patient,2:doctor"
	SeedUsers map[string]string `env:"SEED_USERS" envKeyValSeparator:":"`
}

type PostgresConfig struct {
	Host               string        `env:"HOST" envDefault:"localhost"`
	Port               string        `env:"PORT" envDefault:"5432"`
	Username           string        `env:"USER" envDefault:"postgres"`
	Password           string        `env:"PASSWORD" envDefault:"postgres"`
	DBName             string        `env:"DB" envDefault:"panchakarma"`
	SSLMode            string        `env:"SSL_MODE" envDefault:"disable"`
	MaxConnections     int           `env:"MAX_CONNECTIONS" envDefault:"10"`
	MaxIdleConnections int           `env:"MAX_IDLE_CONNECTIONS" envDefault:"5"`
	MaxLifetime        time.Duration `env:"MAX_LIFETIME" envDefault:"5m"`
	MigrateOnStart     bool          `env:"MIGRATE_ON_START" envDefault:"true"`
}

// URL renders the connection string understood by both pgx and golang-migrate
func (c PostgresConfig) URL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Username, c.Password),
		Host:     c.Host + ":" + c.Port,
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=" + url.QueryEscape(c.SSLMode),
	}
	return u.String()
}

type JWTConfig struct {
	SigningKey string `env:"SIGNING_KEY" envDefault:"your_secret_key"`
}

type S3Config struct {
	Endpoint        string        `env:"ENDPOINT"`
	Region          string        `env:"REGION" envDefault:"us-east-1"`
	AccessKeyID     string        `env:"ACCESS_KEY_ID"`
	SecretAccessKey string        `env:"SECRET_ACCESS_KEY"`
	Bucket          string        `env:"BUCKET" envDefault:"panchakarma-chat"`
	UseSSL          bool          `env:"USE_SSL" envDefault:"true"`
	PresignExpiry   time.Duration `env:"PRESIGN_EXPIRY" envDefault:"1h"`
}

type RedisConfig struct {
	URL string `env:"URL"`
}

type SessionConfig struct {
	ExpiryPolicy string        `env:"EXPIRY_POLICY" envDefault:"fixed"`
	PendingTTL   time.Duration `env:"PENDING_TTL" envDefault:"30m"`
	MaxDuration  time.Duration `env:"MAX_DURATION" envDefault:"1h"`
	IdleTimeout  time.Duration `env:"IDLE_TIMEOUT" envDefault:"15m"`
}

// BillingConfig holds the cost per unit for each session type:
// per accepted message for chat, per second for calls
type BillingConfig struct {
	ChatRate      decimal.Decimal `env:"CHAT_RATE" envDefault:"10"`
	AudioCallRate decimal.Decimal `env:"AUDIO_CALL_RATE" envDefault:"0.5"`
	VideoCallRate decimal.Decimal `env:"VIDEO_CALL_RATE" envDefault:"0.75"`
}

type SchedulerConfig struct {
	Enabled        bool          `env:"ENABLED" envDefault:"true"`
	ExpirySchedule string        `env:"EXPIRY_SCHEDULE" envDefault:"*/30 * * * * *"`
	LockTTL        time.Duration `env:"LOCK_TTL" envDefault:"25s"`
}

func NewConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case StorageDriverPostgres, StorageDriverMemory:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	switch c.Session.ExpiryPolicy {
	case ExpiryPolicyFixed, ExpiryPolicyIdle:
	default:
		return fmt.Errorf("unknown session expiry policy %q", c.Session.ExpiryPolicy)
	}

	if c.Session.PendingTTL <= 0 || c.Session.MaxDuration <= 0 {
		return errors.New("session TTLs must be positive")
	}

	for name, rate := range map[string]decimal.Decimal{
		"chat":       c.Billing.ChatRate,
		"audio_call": c.Billing.AudioCallRate,
		"video_call": c.Billing.VideoCallRate,
	} {
		if rate.IsNegative() {
			return fmt.Errorf("billing rate for %s must not be negative", name)
		}
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
