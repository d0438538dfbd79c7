package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// PlaceholderJWTSecret is the development default. Production refuses to start with it.
const PlaceholderJWTSecret = "dev_secret_key_minimum_32_characters_long_change_me"

type Config struct {
	ServerAddr  string   `env:"SERVER_ADDR" envDefault:":8080"`
	Environment string   `env:"APP_ENV" envDefault:"development"`
	CORSOrigins []string `env:"CORS_ORIGINS" envDefault:"*" envSeparator:","`

	DBDriver   string `env:"DB_DRIVER" envDefault:"postgres"`
	DBHost     string `env:"DB_HOST" envDefault:"localhost"`
	DBPort     string `env:"DB_PORT" envDefault:"5432"`
	DBUser     string `env:"DB_USER" envDefault:"postgres"`
	DBPassword string `env:"DB_PASSWORD"`
	DBName     string `env:"DB_NAME" envDefault:"sitecms"`
	DBSSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`
	SQLitePath string `env:"SQLITE_PATH" envDefault:"sitecms.db"`

	JWTSecret    string `env:"JWT_SECRET" envDefault:"dev_secret_key_minimum_32_characters_long_change_me"`
	CookieSecure bool   `env:"COOKIE_SECURE" envDefault:"false"`

	BlobProvider string        `env:"BLOB_PROVIDER" envDefault:"none"`
	BlobTokenTTL time.Duration `env:"BLOB_TOKEN_TTL" envDefault:"15m"`

	S3Bucket      string `env:"S3_BUCKET"`
	S3Region      string `env:"S3_REGION"`
	CloudFrontURL string `env:"CLOUDFRONT_URL"`

	MinioEndpoint  string `env:"MINIO_ENDPOINT"`
	MinioAccessKey string `env:"MINIO_ACCESS_KEY"`
	MinioSecretKey string `env:"MINIO_SECRET_KEY"`
	MinioBucket    string `env:"MINIO_BUCKET"`
	MinioUseSSL    bool   `env:"MINIO_USE_SSL" envDefault:"false"`
	MinioPublicURL string `env:"MINIO_PUBLIC_URL"`

	GCSBucket            string `env:"GCS_BUCKET"`
	GCSSigningEmail      string `env:"GCS_SIGNING_EMAIL"`
	GCSSigningPrivateKey string `env:"GCS_SIGNING_PRIVATE_KEY"`

	RateLimitRedisAddr     string `env:"RATE_LIMIT_REDIS_ADDR"`
	RateLimitRedisPassword string `env:"RATE_LIMIT_REDIS_PASSWORD"`

	UploadSessionTTL time.Duration `env:"UPLOAD_SESSION_TTL" envDefault:"6h"`
	SweepSchedule    string        `env:"SWEEP_SCHEDULE" envDefault:"@every 1h"`
}

// Current is the configuration loaded at startup. Handlers read environment-dependent
// behaviour (error sanitising, cookie flags) from here.
var Current = Default()

// Default returns a development configuration without reading the environment.
func Default() *Config {
	return &Config{
		ServerAddr:       ":8080",
		Environment:      "development",
		CORSOrigins:      []string{"*"},
		DBDriver:         "sqlite",
		SQLitePath:       ":memory:",
		JWTSecret:        PlaceholderJWTSecret,
		BlobProvider:     "none",
		BlobTokenTTL:     15 * time.Minute,
		UploadSessionTTL: 6 * time.Hour,
		SweepSchedule:    "@every 1h",
	}
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.DBDriver = strings.ToLower(strings.TrimSpace(cfg.DBDriver))
	cfg.BlobProvider = strings.ToLower(strings.TrimSpace(cfg.BlobProvider))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log.Println("✅ Config loaded")
	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

func (c *Config) Validate() error {
	if err := c.ValidateJWTSecret(); err != nil {
		return err
	}

	switch c.DBDriver {
	case "postgres":
		if c.DBHost == "" || c.DBName == "" || c.DBUser == "" {
			return fmt.Errorf("DB_HOST, DB_NAME and DB_USER are required for postgres")
		}
	case "sqlite":
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for sqlite")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}

	switch c.BlobProvider {
	case "", "none":
	case "s3":
		if c.S3Bucket == "" || c.S3Region == "" {
			return fmt.Errorf("S3_BUCKET and S3_REGION are required for BLOB_PROVIDER=s3")
		}
	case "minio":
		if c.MinioEndpoint == "" || c.MinioBucket == "" || c.MinioAccessKey == "" || c.MinioSecretKey == "" {
			return fmt.Errorf("MINIO_ENDPOINT, MINIO_BUCKET, MINIO_ACCESS_KEY and MINIO_SECRET_KEY are required for BLOB_PROVIDER=minio")
		}
	case "gcs":
		if c.GCSBucket == "" || c.GCSSigningEmail == "" || c.GCSSigningPrivateKey == "" {
			return fmt.Errorf("GCS_BUCKET, GCS_SIGNING_EMAIL and GCS_SIGNING_PRIVATE_KEY are required for BLOB_PROVIDER=gcs")
		}
	default:
		return fmt.Errorf("unsupported BLOB_PROVIDER %q", c.BlobProvider)
	}

	if c.BlobTokenTTL <= 0 || c.BlobTokenTTL > time.Hour {
		return fmt.Errorf("BLOB_TOKEN_TTL must be between 1s and 1h")
	}

	return nil
}

// ValidateJWTSecret only allows the placeholder outside production.
func (c *Config) ValidateJWTSecret() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET environment variable is required")
	}

	if !c.IsProduction() {
		return nil
	}

	if c.JWTSecret == PlaceholderJWTSecret {
		return fmt.Errorf("cannot use default development secret in production")
	}

	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters long (current: %d)", len(c.JWTSecret))
	}

	return nil
}
