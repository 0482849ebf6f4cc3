package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
)

type HTTPTimeoutsConfig struct {
	Read     time.Duration
	Idle     time.Duration
	Write    time.Duration
	Shutdown time.Duration // how long we give the shutdown process to gracefully terminate
}

type HTTPConfig struct {
	Port     int
	Timeouts HTTPTimeoutsConfig
}

type RateLimiterConfig struct {
	RPS   int
	Burst int
}

type LoggerConfig struct {
	Level slog.Level
}

type AppConfig struct {
	Name             string
	Environment      string // 'dev' | 'prod'
	VariantNamespace string
}

type DBConfig struct {
	Path           string
	MigrationsPath string
}

// ObjectStoreConfig holds the S3-compatible gateway connection. Every field
// except Region is required; there is no usable default for any of them.
type ObjectStoreConfig struct {
	Endpoint      string
	Region        string
	AccessKey     string
	SecretKey     string
	Bucket        string
	PublicBaseURL string
}

type TelemetryConfig struct {
	EnableTelemetry bool
	OtelEndpoint    string
}

type AuthConfig struct {
	SessionSecret string
	SessionTTL    time.Duration
}

type MediaConfig struct {
	MaxUploadBytes   int64
	ThumbnailWorkers int
	UploadPathPrefix string
}

type Config struct {
	App     AppConfig
	DB      DBConfig
	Object  ObjectStoreConfig
	HTTP    HTTPConfig
	Limiter RateLimiterConfig
	Logger  LoggerConfig
	Metrics TelemetryConfig
	Auth    AuthConfig
	Media   MediaConfig
}

func DefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:             "Kamaris",
			Environment:      "prod",
			VariantNamespace: "570e8400-c29b-45d4-a716-446655440700",
		},
		DB: DBConfig{
			Path:           "kamaris.db",
			MigrationsPath: "./migrations",
		},
		Object: ObjectStoreConfig{
			Region: "garage",
			Bucket: "media",
		},
		HTTP: HTTPConfig{
			Port: 3000,
			Timeouts: HTTPTimeoutsConfig{
				Read:     5 * time.Second,
				Write:    30 * time.Second, // uploads need headroom
				Idle:     10 * time.Minute,
				Shutdown: 10 * time.Second,
			},
		},
		Limiter: RateLimiterConfig{
			RPS:   20,
			Burst: 50,
		},
		Logger: LoggerConfig{
			Level: slog.LevelInfo,
		},
		Metrics: TelemetryConfig{
			OtelEndpoint: "localhost:4318",
		},
		Auth: AuthConfig{
			SessionSecret: "very-secret-key-change-me-in-production",
			SessionTTL:    12 * time.Hour,
		},
		Media: MediaConfig{
			MaxUploadBytes:   64 << 20,
			ThumbnailWorkers: 2,
			UploadPathPrefix: "",
		},
	}
}

func LoadWithDefaults() *Config {
	defaults := DefaultConfig()
	return &Config{
		App: AppConfig{
			Name:             getEnv("APP_NAME", defaults.App.Name),
			Environment:      getEnv("APP_ENV", defaults.App.Environment),
			VariantNamespace: getEnv("VARIANT_NAMESPACE", defaults.App.VariantNamespace),
		},
		DB: DBConfig{
			Path:           getEnv("DB_PATH", defaults.DB.Path),
			MigrationsPath: getEnv("DB_MIGRATIONS_PATH", defaults.DB.MigrationsPath),
		},
		Object: ObjectStoreConfig{
			Endpoint:      getEnv("OBJECT_STORE_ENDPOINT", ""),
			Region:        getEnv("OBJECT_STORE_REGION", defaults.Object.Region),
			AccessKey:     getEnv("OBJECT_STORE_ACCESS_KEY", ""),
			SecretKey:     getEnv("OBJECT_STORE_SECRET_KEY", ""),
			Bucket:        getEnv("OBJECT_STORE_BUCKET", defaults.Object.Bucket),
			PublicBaseURL: getEnv("OBJECT_STORE_PUBLIC_URL", ""),
		},
		HTTP: HTTPConfig{
			Port: getEnvAsInt("HTTP_PORT", defaults.HTTP.Port),
			Timeouts: HTTPTimeoutsConfig{
				Read:     getEnvAsDuration("HTTP_READ_TIMEOUT", defaults.HTTP.Timeouts.Read),
				Write:    getEnvAsDuration("HTTP_WRITE_TIMEOUT", defaults.HTTP.Timeouts.Write),
				Idle:     getEnvAsDuration("HTTP_IDLE_TIMEOUT", defaults.HTTP.Timeouts.Idle),
				Shutdown: getEnvAsDuration("HTTP_SHUTDOWN_DELAY", defaults.HTTP.Timeouts.Shutdown),
			},
		},
		Limiter: RateLimiterConfig{
			RPS:   getEnvAsInt("LIMITER_RPS", defaults.Limiter.RPS),
			Burst: getEnvAsInt("LIMITER_BURST", defaults.Limiter.Burst),
		},
		Logger: LoggerConfig{
			Level: getEnvAsLogLevel("LOGGER_LEVEL", defaults.Logger.Level),
		},
		Metrics: TelemetryConfig{
			EnableTelemetry: getEnvAsBool("ENABLE_TELEMETRY", false),
			OtelEndpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", defaults.Metrics.OtelEndpoint),
		},
		Auth: AuthConfig{
			SessionSecret: getEnv("SESSION_SECRET", defaults.Auth.SessionSecret),
			SessionTTL:    getEnvAsDuration("SESSION_TTL", defaults.Auth.SessionTTL),
		},
		Media: MediaConfig{
			MaxUploadBytes:   int64(getEnvAsInt("MEDIA_MAX_UPLOAD_BYTES", int(defaults.Media.MaxUploadBytes))),
			ThumbnailWorkers: getEnvAsInt("MEDIA_THUMBNAIL_WORKERS", defaults.Media.ThumbnailWorkers),
			UploadPathPrefix: getEnv("MEDIA_UPLOAD_PREFIX", defaults.Media.UploadPathPrefix),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	valueStr, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return fallback
	}
	return value
}

func getEnvAsInt(key string, fallback int) int {
	valueStr, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return fallback
	}
	return value
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return fallback
	}
	return value
}

func getEnvAsLogLevel(key string, fallback slog.Level) slog.Level {
	valueStr, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}

	switch strings.ToLower(valueStr) {
	case "debug":
		return slog.LevelDebug
	case "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return fallback
	}
}

// Validate enforces the one hard configuration contract: missing gateway
// connection values fail here, before anything opens a connection.
func (o ObjectStoreConfig) Validate() error {
	if o.Endpoint == "" {
		return fmt.Errorf("OBJECT_STORE_ENDPOINT must not be empty")
	}
	if o.AccessKey == "" {
		return fmt.Errorf("OBJECT_STORE_ACCESS_KEY must not be empty")
	}
	if o.SecretKey == "" {
		return fmt.Errorf("OBJECT_STORE_SECRET_KEY must not be empty")
	}
	if o.Bucket == "" {
		return fmt.Errorf("OBJECT_STORE_BUCKET must not be empty")
	}
	if o.PublicBaseURL == "" {
		return fmt.Errorf("OBJECT_STORE_PUBLIC_URL must not be empty")
	}
	return nil
}

func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("APP_NAME must not be empty")
	}
	if s := strings.ToLower(c.App.Environment); s != "dev" && s != "prod" {
		return fmt.Errorf(`APP_ENV must be "dev" or "prod"`)
	}
	if c.DB.Path == "" {
		return fmt.Errorf("DB_PATH must not be empty")
	}
	if c.DB.MigrationsPath == "" {
		return fmt.Errorf("DB_MIGRATIONS_PATH must not be empty")
	}
	if err := c.Object.Validate(); err != nil {
		return err
	}
	// stay away from well-known ports
	if p := c.HTTP.Port; p < 1024 || p > 65535 {
		return fmt.Errorf("HTTP_PORT must be a positive int between 1024 and 65535, got %d", p)
	}
	if c.HTTP.Timeouts.Read <= 0 {
		return fmt.Errorf("HTTP_READ_TIMEOUT must be positive (e.g., 5s), got %s", c.HTTP.Timeouts.Read)
	}
	if c.HTTP.Timeouts.Write <= 0 {
		return fmt.Errorf("HTTP_WRITE_TIMEOUT must be positive (e.g., 30s), got %s", c.HTTP.Timeouts.Write)
	}
	if c.HTTP.Timeouts.Idle <= 0 {
		return fmt.Errorf("HTTP_IDLE_TIMEOUT must be positive (e.g., 2m), got %s", c.HTTP.Timeouts.Idle)
	}
	if c.HTTP.Timeouts.Shutdown <= 0 {
		return fmt.Errorf("HTTP_SHUTDOWN_DELAY must be positive (e.g., 10s), got %s", c.HTTP.Timeouts.Shutdown)
	}
	if c.Limiter.RPS <= 0 {
		return fmt.Errorf("LIMITER_RPS must be positive, got %d", c.Limiter.RPS)
	}
	if c.Limiter.Burst <= 0 {
		return fmt.Errorf("LIMITER_BURST must be positive, got %d", c.Limiter.Burst)
	}
	if c.Media.MaxUploadBytes <= 0 {
		return fmt.Errorf("MEDIA_MAX_UPLOAD_BYTES must be positive, got %d", c.Media.MaxUploadBytes)
	}
	if c.Media.ThumbnailWorkers <= 0 {
		return fmt.Errorf("MEDIA_THUMBNAIL_WORKERS must be positive, got %d", c.Media.ThumbnailWorkers)
	}
	if c.App.Environment == "prod" {
		if c.Auth.SessionSecret == "" {
			return fmt.Errorf("SESSION_SECRET must not be empty in production")
		}
		if c.Auth.SessionSecret == "very-secret-key-change-me-in-production" {
			return fmt.Errorf("SESSION_SECRET must be changed from default value for production")
		}
	}
	if _, err := uuid.FromString(c.App.VariantNamespace); err != nil {
		return fmt.Errorf("VARIANT_NAMESPACE must be a valid UUID")
	}

	return nil
}
