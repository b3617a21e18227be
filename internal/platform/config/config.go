package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorageLocal = "local"
	StorageS3    = "s3"
)

type Config struct {
	Addr               string
	DatabaseURL        string
	JWTSecret          string
	DataEncryptionKey  string
	Environment        string
	LogLevel           string
	SaaSMode           bool
	RunMigrations      bool
	RunSeed            bool
	SeedDemoData       bool
	SuperAdminEmail    string
	SuperAdminPassword string
	CompanyEmail       string
	CompanyPassword    string
	MaxBodyBytes       int64
	RateLimitPerMinute int
	MetricsEnabled     bool
	Storage            StorageConfig
	Mail               MailConfig
	Jobs               JobsConfig
}

type MailConfig struct {
	Enabled  bool
	Host     string
	Port     int
	User     string
	Password string
	UseTLS   bool
	From     string
}

type JobsConfig struct {
	Enabled                  bool
	PlanExpiryInterval       time.Duration
	IdempotencyPurgeInterval time.Duration
	IdempotencyTTL           time.Duration
}

type StorageConfig struct {
	Driver       string
	LocalDir     string
	Bucket       string
	Region       string
	Endpoint     string
	AccessKey    string
	SecretKey    string
	UsePathStyle bool
}

// Load reads the process environment. A .env file in the working directory is
// applied first; variables already set in the environment are left untouched.
func Load() Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("dotenv load failed", "err", err)
	}
	return Config{
		Addr:               getEnv("APP_ADDR", ":8080"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		DataEncryptionKey:  getEnv("DATA_ENCRYPTION_KEY", ""),
		Environment:        getEnv("APP_ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		SaaSMode:           getEnvBool("SAAS_MODE", true),
		RunMigrations:      getEnvBool("RUN_MIGRATIONS", true),
		RunSeed:            getEnvBool("RUN_SEED", true),
		SeedDemoData:       getEnvBool("SEED_DEMO_DATA", true),
		SuperAdminEmail:    getEnv("SEED_SUPERADMIN_EMAIL", "superadmin@example.com"),
		SuperAdminPassword: getEnv("SEED_SUPERADMIN_PASSWORD", "password"),
		CompanyEmail:       getEnv("SEED_COMPANY_EMAIL", "company@example.com"),
		CompanyPassword:    getEnv("SEED_COMPANY_PASSWORD", "password"),
		MaxBodyBytes:       int64(getEnvInt("MAX_BODY_BYTES", 1048576)),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 120),
		MetricsEnabled:     getEnvBool("METRICS_ENABLED", true),
		Storage: StorageConfig{
			Driver:       strings.ToLower(getEnv("STORAGE_DRIVER", StorageLocal)),
			LocalDir:     getEnv("STORAGE_LOCAL_DIR", "storage"),
			Bucket:       getEnv("S3_BUCKET", ""),
			Region:       getEnv("S3_REGION", "us-east-1"),
			Endpoint:     getEnv("S3_ENDPOINT", ""),
			AccessKey:    getEnv("S3_ACCESS_KEY", ""),
			SecretKey:    getEnv("S3_SECRET_KEY", ""),
			UsePathStyle: getEnvBool("S3_USE_PATH_STYLE", true),
		},
		Mail: MailConfig{
			Enabled:  getEnvBool("EMAIL_ENABLED", false),
			Host:     getEnv("SMTP_HOST", ""),
			Port:     getEnvInt("SMTP_PORT", 587),
			User:     getEnv("SMTP_USER", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			UseTLS:   getEnvBool("SMTP_USE_TLS", true),
			From:     getEnv("MAIL_FROM", "no-reply@example.com"),
		},
		Jobs: JobsConfig{
			Enabled:                  getEnvBool("JOBS_ENABLED", true),
			PlanExpiryInterval:       getEnvDuration("PLAN_EXPIRY_INTERVAL", time.Hour),
			IdempotencyPurgeInterval: getEnvDuration("IDEMPOTENCY_PURGE_INTERVAL", time.Hour),
			IdempotencyTTL:           getEnvDuration("IDEMPOTENCY_TTL", 24*time.Hour),
		},
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if strings.TrimSpace(c.JWTSecret) == "" {
		if c.IsProduction() {
			return fmt.Errorf("JWT_SECRET must be set to a strong value in production")
		}
	}
	if c.IsProduction() {
		if strings.TrimSpace(c.DataEncryptionKey) == "" {
			return fmt.Errorf("DATA_ENCRYPTION_KEY must be set in production to protect gateway secrets")
		}
		if c.RunSeed && (c.SuperAdminPassword == "password" || c.CompanyPassword == "password") {
			return fmt.Errorf("seed passwords must be changed or RUN_SEED disabled in production")
		}
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	switch c.Storage.Driver {
	case StorageLocal:
		if strings.TrimSpace(c.Storage.LocalDir) == "" {
			return fmt.Errorf("STORAGE_LOCAL_DIR must be set for local storage")
		}
	case StorageS3:
		if c.Storage.Bucket == "" || c.Storage.AccessKey == "" || c.Storage.SecretKey == "" {
			return fmt.Errorf("S3_BUCKET, S3_ACCESS_KEY and S3_SECRET_KEY are required for s3 storage")
		}
	default:
		return fmt.Errorf("STORAGE_DRIVER must be %q or %q", StorageLocal, StorageS3)
	}
	if c.Mail.Enabled {
		if strings.TrimSpace(c.Mail.Host) == "" || c.Mail.Port <= 0 {
			return fmt.Errorf("SMTP_HOST and SMTP_PORT are required when EMAIL_ENABLED is set")
		}
		if strings.TrimSpace(c.Mail.From) == "" {
			return fmt.Errorf("MAIL_FROM is required when EMAIL_ENABLED is set")
		}
	}
	if c.Jobs.Enabled && c.Jobs.IdempotencyTTL < time.Minute {
		return fmt.Errorf("IDEMPOTENCY_TTL must be at least one minute")
	}
	return nil
}
