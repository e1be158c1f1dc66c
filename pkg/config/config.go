package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	Environment string `env:"ENVIRONMENT" env-default:"development"`
	LogLevel    string `env:"LOG_LEVEL" env-default:"info"`

	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Auth      AuthConfig
	Cache     CacheConfig
	Storage   StorageConfig
	Upload    UploadConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
	Telemetry TelemetryConfig
}

type ServerConfig struct {
	Port            int           `env:"SERVER_PORT" env-default:"8080"`
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" env-default:"15s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" env-default:"60s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"15s"`
	MaxBodyBytes    int64         `env:"SERVER_MAX_BODY_BYTES" env-default:"1048576"`
}

// DatabaseConfig selects the repository backend. The memory driver keeps
// everything in process and is meant for development and tests.
type DatabaseConfig struct {
	Driver          string        `env:"DB_DRIVER" env-default:"postgres"`
	Host            string        `env:"DB_HOST" env-default:"localhost"`
	Port            int           `env:"DB_PORT" env-default:"5432"`
	User            string        `env:"DB_USER" env-default:"tenantcms"`
	Password        string        `env:"DB_PASSWORD" env-default:"dev"`
	Name            string        `env:"DB_NAME" env-default:"tenantcms"`
	SSLMode         string        `env:"DB_SSLMODE" env-default:"disable"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" env-default:"25"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" env-default:"5"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" env-default:"5m"`
	AutoMigrate     bool          `env:"DB_AUTO_MIGRATE" env-default:"true"`
}

type RedisConfig struct {
	URL string `env:"REDIS_URL" env-default:"redis://localhost:6379"`
}

type AuthConfig struct {
	JWTSecret         string        `env:"JWT_SECRET" env-default:"change-me-in-production"`
	Issuer            string        `env:"JWT_ISSUER" env-default:"tenantcms"`
	TokenTTL          time.Duration `env:"JWT_TTL" env-default:"24h"`
	AllowRegistration bool          `env:"AUTH_ALLOW_REGISTRATION" env-default:"false"`
}

type CacheConfig struct {
	Driver        string        `env:"CACHE_DRIVER" env-default:"memory"`
	TTL           time.Duration `env:"CACHE_TTL" env-default:"5m"`
	SweepInterval time.Duration `env:"CACHE_SWEEP_INTERVAL" env-default:"1m"`
	KeyPrefix     string        `env:"CACHE_KEY_PREFIX" env-default:"tenantcms:"`
}

type StorageConfig struct {
	Driver string `env:"STORAGE_DRIVER" env-default:"local"`
	Local  LocalStorageConfig
	S3     S3Config
}

type LocalStorageConfig struct {
	Root      string `env:"STORAGE_LOCAL_ROOT" env-default:"./uploads"`
	PublicURL string `env:"STORAGE_LOCAL_PUBLIC_URL" env-default:"/uploads"`
}

type S3Config struct {
	Endpoint        string        `env:"AWS_S3_ENDPOINT" env-default:""`
	Region          string        `env:"AWS_S3_REGION" env-default:"us-east-1"`
	Bucket          string        `env:"AWS_S3_BUCKET" env-default:"tenantcms-media"`
	AccessKeyID     string        `env:"AWS_ACCESS_KEY_ID" env-default:""`
	SecretAccessKey string        `env:"AWS_SECRET_ACCESS_KEY" env-default:""`
	UsePathStyle    bool          `env:"AWS_S3_USE_PATH_STYLE" env-default:"false"`
	PublicURL       string        `env:"AWS_S3_PUBLIC_URL" env-default:""`
	BreakerFailures int           `env:"AWS_S3_BREAKER_FAILURES" env-default:"5"`
	BreakerCooldown time.Duration `env:"AWS_S3_BREAKER_COOLDOWN" env-default:"30s"`
}

type UploadConfig struct {
	MaxBytes         int64 `env:"UPLOAD_MAX_BYTES" env-default:"104857600"`
	ImageMaxBytes    int64 `env:"UPLOAD_IMAGE_MAX_BYTES" env-default:"10485760"`
	DocumentMaxBytes int64 `env:"UPLOAD_DOCUMENT_MAX_BYTES" env-default:"26214400"`
	VideoMaxBytes    int64 `env:"UPLOAD_VIDEO_MAX_BYTES" env-default:"104857600"`
	AudioMaxBytes    int64 `env:"UPLOAD_AUDIO_MAX_BYTES" env-default:"52428800"`
}

type RateLimitConfig struct {
	Enabled        bool          `env:"RATE_LIMIT_ENABLED" env-default:"true"`
	Requests       int           `env:"RATE_LIMIT_REQUESTS" env-default:"100"`
	Window         time.Duration `env:"RATE_LIMIT_WINDOW" env-default:"1m"`
	StrictRequests int           `env:"RATE_LIMIT_STRICT_REQUESTS" env-default:"5"`
	StrictWindow   time.Duration `env:"RATE_LIMIT_STRICT_WINDOW" env-default:"1m"`
}

type CORSConfig struct {
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" env-default:"http://localhost:5173,http://localhost:3000"`
}

type TelemetryConfig struct {
	OTLPEndpoint string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" env-default:""`
	ServiceName  string  `env:"OTEL_SERVICE_NAME" env-default:"tenantcms"`
	Insecure     bool    `env:"OTEL_EXPORTER_OTLP_INSECURE" env-default:"true"`
	SampleRatio  float64 `env:"OTEL_TRACES_SAMPLE_RATIO" env-default:"1"`
}

// Load reads an optional .env file, then configuration from environment variables
func Load(envFiles ...string) (*Config, error) {
	// A missing .env file is not an error.
	_ = godotenv.Load(envFiles...)

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read configuration: %w", err)
	}
	cfg.CORS.AllowedOrigins = trimAll(cfg.CORS.AllowedOrigins)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// IsProduction reports whether the service runs with production hardening.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// Validate rejects values the service cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("SERVER_PORT %d out of range", c.Server.Port))
	}
	if c.Server.MaxBodyBytes <= 0 {
		errs = append(errs, errors.New("SERVER_MAX_BODY_BYTES must be positive"))
	}
	if !slices.Contains([]string{"postgres", "memory"}, c.Database.Driver) {
		errs = append(errs, fmt.Errorf("unknown DB_DRIVER %q", c.Database.Driver))
	}
	if !slices.Contains([]string{"memory", "redis"}, c.Cache.Driver) {
		errs = append(errs, fmt.Errorf("unknown CACHE_DRIVER %q", c.Cache.Driver))
	}
	if !slices.Contains([]string{"local", "s3", "memory"}, c.Storage.Driver) {
		errs = append(errs, fmt.Errorf("unknown STORAGE_DRIVER %q", c.Storage.Driver))
	}
	if c.Storage.Driver == "s3" && c.Storage.S3.Bucket == "" {
		errs = append(errs, errors.New("AWS_S3_BUCKET is required for the s3 storage driver"))
	}
	if c.Cache.TTL <= 0 {
		errs = append(errs, errors.New("CACHE_TTL must be positive"))
	}
	if c.Cache.SweepInterval <= 0 {
		errs = append(errs, errors.New("CACHE_SWEEP_INTERVAL must be positive"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("JWT_TTL must be positive"))
	}
	if c.Upload.MaxBytes <= 0 {
		errs = append(errs, errors.New("UPLOAD_MAX_BYTES must be positive"))
	}
	if c.RateLimit.Enabled && (c.RateLimit.Requests <= 0 || c.RateLimit.StrictRequests <= 0 ||
		c.RateLimit.Window <= 0 || c.RateLimit.StrictWindow <= 0) {
		errs = append(errs, errors.New("rate limit requests and windows must be positive"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// DSN builds a lib/pq connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
