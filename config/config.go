package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	_ "github.com/joho/godotenv/autoload" // loads .env into the process environment
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

const (
	EnvPrefix = "NATOURS_"

	EnvDevelopment = "development"
	EnvProduction  = "production"

	StorageDisk = "disk"
	StorageS3   = "s3"
)

type Config struct {
	Env         string `koanf:"env" validate:"oneof=development production"`
	BindAddress string `koanf:"bind_address" validate:"required"`
	TLSDomains  string `koanf:"tls_domains"` // e.g. "example.com,example2.com"
	LogLevel    string `koanf:"log_level" validate:"oneof=debug info warn error"`

	// Database: MySQL wins over Postgres, Postgres over SQLite
	MySQLDSN    string `koanf:"mysql_dsn"`
	PostgresDSN string `koanf:"postgres_dsn"`
	SQLiteFile  string `koanf:"sqlite_file"`

	JWTSecret                string        `koanf:"jwt_secret" validate:"required,min=32"`
	JWTExpiresIn             time.Duration `koanf:"jwt_expires_in" validate:"gt=0"`
	JWTCookieExpiresInDays   int           `koanf:"jwt_cookie_expires_in_days" validate:"gt=0"`
	PasswordResetExpiration  time.Duration `koanf:"password_reset_expiration" validate:"gt=0"`
	SessionKey               string        `koanf:"session_key" validate:"required"`
	SessionCookieName        string        `koanf:"session_cookie_name" validate:"required"`
	SessionExpirationSeconds int           `koanf:"session_expiration_seconds"`

	PublicDir  string `koanf:"public_dir" validate:"required"`
	Storage    string `koanf:"storage" validate:"oneof=disk s3"`
	S3Bucket   string `koanf:"s3_bucket" validate:"required_if=Storage s3"`
	S3Region   string `koanf:"s3_region"`
	S3Endpoint string `koanf:"s3_endpoint"`
	S3Prefix   string `koanf:"s3_prefix"`
	S3Key      string `koanf:"s3_key"`
	S3Secret   string `koanf:"s3_secret"`

	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`

	ResendAPIKey string `koanf:"resend_api_key"`
	EmailFrom    string `koanf:"email_from" validate:"required"`

	StripeSecretKey     string `koanf:"stripe_secret_key"`
	StripeWebhookSecret string `koanf:"stripe_webhook_secret"`

	RateLimitMax    int           `koanf:"rate_limit_max" validate:"gt=0"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window" validate:"gt=0"`
	BodyLimitBytes  int64         `koanf:"body_limit_bytes" validate:"gt=0"`
	CORSOrigins     []string      `koanf:"cors_origins" validate:"required,min=1"`

	GeocodeEnabled bool `koanf:"geocode_enabled"`
}

// Current is the configuration in use. Load replaces it.
var Current = Default()

func Default() *Config {
	return &Config{
		Env:                      EnvDevelopment,
		BindAddress:              "0.0.0.0:8080",
		LogLevel:                 "info",
		SQLiteFile:               "natours.db",
		JWTExpiresIn:             90 * 24 * time.Hour,
		JWTCookieExpiresInDays:   90,
		PasswordResetExpiration:  10 * time.Minute,
		SessionKey:               "change this session key in production",
		SessionCookieName:        "natours_session",
		SessionExpirationSeconds: 30 * 86400,
		PublicDir:                "public",
		Storage:                  StorageDisk,
		S3Region:                 "us-east-1",
		EmailFrom:                "Natours <hello@natours.dev>",
		RateLimitMax:             100,
		RateLimitWindow:          time.Hour,
		BodyLimitBytes:           10 * 1024,
		CORSOrigins:              []string{"*"},
	}
}

// Load reads NATOURS_* variables over the defaults, validates the result and
// publishes it as Current.
func Load() (*Config, error) {
	k := koanf.New(".")
	err := k.Load(env.ProviderWithValue(EnvPrefix, ".", func(key, value string) (string, interface{}) {
		key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
		if key == "cors_origins" {
			return key, strings.Split(value, ",")
		}
		return key, value
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}

	cfg := Default()
	if err = k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err = validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	Current = cfg
	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

func (c *Config) JWTCookieExpiresIn() time.Duration {
	return time.Duration(c.JWTCookieExpiresInDays) * 24 * time.Hour
}
