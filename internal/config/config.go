package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	// Database
	DBHost     string `env:"DB_HOST" envDefault:"localhost"`
	DBPort     string `env:"DB_PORT" envDefault:"5432"`
	DBUser     string `env:"DB_USER" envDefault:"postgres"`
	DBPassword string `env:"DB_PASSWORD"`
	DBName     string `env:"DB_NAME" envDefault:"lovekeeper"`
	DBSSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`

	// Identity. Tokens are issued by the external auth service and
	// signed with the shared project secret.
	JWTSecret string `env:"JWT_SECRET"`

	// Operators. Admin routes accept either the shared token header or a
	// JWT whose subject is listed here.
	AdminToken   string `env:"ADMIN_TOKEN"`
	AdminUserIDs string `env:"ADMIN_USER_IDS"`

	// Partnerships
	InviteBaseURL         string        `env:"INVITE_BASE_URL" envDefault:"http://localhost:5173/"`
	RelinkAttempts        uint          `env:"RELINK_ATTEMPTS" envDefault:"5"`
	RelinkInitialInterval time.Duration `env:"RELINK_INITIAL_INTERVAL" envDefault:"200ms"`
	ReconcileInterval     time.Duration `env:"RECONCILE_INTERVAL" envDefault:"10m"`
	ReconcileWorkers      int           `env:"RECONCILE_WORKERS" envDefault:"4"`

	// Mood hints (Gemini)
	GeminiAPIKey string        `env:"GEMINI_API_KEY"`
	GeminiModel  string        `env:"GEMINI_MODEL" envDefault:"gemini-2.0-flash"`
	AITimeout    time.Duration `env:"AI_TIMEOUT" envDefault:"15s"`

	// Avatars (S3 compatible)
	S3Endpoint       string        `env:"S3_ENDPOINT"`
	S3Region         string        `env:"S3_REGION" envDefault:"us-east-1"`
	S3AccessKey      string        `env:"S3_ACCESS_KEY"`
	S3SecretKey      string        `env:"S3_SECRET_KEY"`
	S3Bucket         string        `env:"S3_AVATAR_BUCKET"`
	S3PublicURL      string        `env:"S3_PUBLIC_URL"`
	S3ForcePathStyle bool          `env:"S3_FORCE_PATH_STYLE" envDefault:"true"`
	AvatarURLTTL     time.Duration `env:"AVATAR_UPLOAD_TTL" envDefault:"5m"`

	// Events
	NATSURL       string `env:"NATS_URL"`
	SubjectPrefix string `env:"EVENT_SUBJECT_PREFIX" envDefault:"lovekeeper"`

	// Observability
	SentryDSN        string `env:"SENTRY_DSN"`
	AppEnv           string `env:"APP_ENV" envDefault:"development"`
	OTLPEndpoint     string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	LogRetentionDays int    `env:"LOG_RETENTION_DAYS" envDefault:"30"`

	// Server
	Port        string `env:"PORT" envDefault:"8080"`
	CORSOrigins string `env:"CORS_ORIGINS" envDefault:"*"`
}

// Load parses the environment into a Config.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, nil
}

// Validate reports settings the server cannot start without.
func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET environment variable is required"))
	}
	if c.DBPassword == "" {
		errs = append(errs, errors.New("DB_PASSWORD environment variable is required"))
	}
	if c.RelinkAttempts == 0 {
		errs = append(errs, errors.New("RELINK_ATTEMPTS must be at least 1"))
	}
	if c.ReconcileWorkers < 1 {
		errs = append(errs, errors.New("RECONCILE_WORKERS must be at least 1"))
	}
	if c.ReconcileInterval <= 0 {
		errs = append(errs, errors.New("RECONCILE_INTERVAL must be positive"))
	}
	return errors.Join(errs...)
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

// AvatarsEnabled reports whether avatar uploads are configured.
func (c *Config) AvatarsEnabled() bool {
	return c.S3Bucket != "" && c.S3Endpoint != ""
}
