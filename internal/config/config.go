// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes server timeouts,
// logging, mail delivery, rate limiting, idempotency and observability
// settings.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	netmail "net/mail"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// LogConfig defines log level, format and optional file rotation.
type LogConfig struct {
	Level      string `env:"LOG_LEVEL" envDefault:"info"` // debug|info|warn|error|fatal|panic
	Pretty     bool   `env:"LOG_PRETTY"`                  // console writer instead of JSON
	File       string `env:"LOG_FILE"`                    // optional rotating file, e.g. /var/log/ashine/api.log
	MaxSizeMB  int    `env:"LOG_MAX_SIZE_MB" envDefault:"50"`
	MaxBackups int    `env:"LOG_MAX_BACKUPS" envDefault:"5"`
	MaxAgeDays int    `env:"LOG_MAX_AGE_DAYS" envDefault:"28"`
	Compress   bool   `env:"LOG_COMPRESS" envDefault:"true"`
}

// SiteConfig describes the public website the API serves.
type SiteConfig struct {
	URL   string `env:"SITE_URL" envDefault:"https://example.com"`
	Brand string `env:"BRAND_NAME" envDefault:"AShineMobile"`
}

// MailConfig defines outbound email delivery.
type MailConfig struct {
	SendGridAPIKey  string        `env:"SENDGRID_API_KEY"` // empty: bookings answer 500 until set
	From            string        `env:"MAIL_FROM" envDefault:"Car Detailing Website <bookings@example.com>"`
	DispatchTimeout time.Duration `env:"MAIL_DISPATCH_TIMEOUT" envDefault:"10s"`
	RateRPS         float64       `env:"MAIL_RATE_RPS" envDefault:"2"`
	RateBurst       int           `env:"MAIL_RATE_BURST" envDefault:"4"`
}

// Configured reports whether an API credential is present.
func (m MailConfig) Configured() bool { return strings.TrimSpace(m.SendGridAPIKey) != "" }

// RedisConfig points at the shared rate-limit store.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
	Prefix   string `env:"REDIS_KEY_PREFIX" envDefault:"rl:"`
}

// RateLimitConfig defines the fixed-window quota on the booking endpoint.
type RateLimitConfig struct {
	Max    int           `env:"RATE_LIMIT_MAX" envDefault:"5"`
	Window time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"15m"`
	Sweep  time.Duration `env:"RATE_LIMIT_SWEEP" envDefault:"60s"`
	Store  string        `env:"RATE_LIMIT_STORE" envDefault:"memory"` // memory|redis
	Redis  RedisConfig
}

// SMSConfig defines the optional Twilio lead alert.
type SMSConfig struct {
	AccountSID string `env:"TWILIO_ACCOUNT_SID"`
	AuthToken  string `env:"TWILIO_AUTH_TOKEN"`
	From       string `env:"TWILIO_FROM_NUMBER"`
	To         string `env:"BUSINESS_PHONE"`
}

// Enabled reports whether every Twilio setting is present.
func (s SMSConfig) Enabled() bool {
	return s.AccountSID != "" && s.AuthToken != "" && s.From != "" && s.To != ""
}

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool          `env:"ENABLE_HSTS"`
	HSTSMaxAge time.Duration `env:"HSTS_MAX_AGE" envDefault:"4320h"`
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    `env:"OTEL_ENABLED"`
	Endpoint    string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4317"`
	Insecure    bool    `env:"OTEL_EXPORTER_OTLP_INSECURE" envDefault:"true"`
	ServiceName string  `env:"OTEL_SERVICE_NAME" envDefault:"ashine-booking"`
	SampleRatio float64 `env:"OTEL_TRACES_SAMPLER_ARG" envDefault:"1.0"` // [0..1]
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        `env:"PORT" envDefault:"8080"`
	ReadTimeout       time.Duration `env:"READ_TIMEOUT" envDefault:"15s"`
	ReadHeaderTimeout time.Duration `env:"READ_HEADER_TIMEOUT" envDefault:"10s"`
	WriteTimeout      time.Duration `env:"WRITE_TIMEOUT" envDefault:"30s"`
	IdleTimeout       time.Duration `env:"IDLE_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout   time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`
	MaxHeaderBytes    int           `env:"MAX_HEADER_BYTES" envDefault:"1048576"`
	MaxBodyBytes      int64         `env:"MAX_BODY_BYTES" envDefault:"65536"`
	GinMode           string        `env:"GIN_MODE" envDefault:"release"` // debug|release|test

	// Logging / Docs
	Log            LogConfig
	SwaggerEnabled bool   `env:"SWAGGER_ENABLED"`
	APIBasePath    string `env:"API_BASE_PATH" envDefault:"/api"`

	// App
	Site      SiteConfig
	Mail      MailConfig
	RateLimit RateLimitConfig
	SMS       SMSConfig

	// Idempotency
	DBPath                   string        `env:"DB_PATH" envDefault:"app.db"`
	IdempotencyTTL           time.Duration `env:"IDEMPOTENCY_TTL" envDefault:"24h"`
	IdempotencyPurgeSchedule string        `env:"IDEMPOTENCY_PURGE_SCHEDULE" envDefault:"@hourly"`

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Observability
	OTEL OTELConfig
}

// LoadDotEnv loads variables from the given .env files (default ".env")
// without overriding the real environment. Missing files are not an error.
func LoadDotEnv(paths ...string) error {
	if err := godotenv.Load(paths...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("config: load .env: %w", err)
	}
	return nil
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}

	// --- normalization ---
	cfg.GinMode = strings.ToLower(strings.TrimSpace(cfg.GinMode))
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}
	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	if cfg.Log.Level == "warning" {
		cfg.Log.Level = "warn"
	}
	cfg.APIBasePath = normalizeBasePath(cfg.APIBasePath)
	cfg.CORS.AllowedOrigins = compact(cfg.CORS.AllowedOrigins)
	cfg.RateLimit.Store = strings.ToLower(strings.TrimSpace(cfg.RateLimit.Store))
	cfg.Mail.From = strings.TrimSpace(cfg.Mail.From)

	// --- validation ---
	switch cfg.Log.Level {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if cfg.Log.File != "" && (cfg.Log.MaxSizeMB <= 0 || cfg.Log.MaxBackups < 0 || cfg.Log.MaxAgeDays < 0) {
		return cfg, errors.New("LOG_MAX_SIZE_MB must be > 0 and LOG_MAX_BACKUPS/LOG_MAX_AGE_DAYS >= 0")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 || cfg.ShutdownTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if cfg.MaxBodyBytes <= 0 {
		return cfg, errors.New("MAX_BODY_BYTES must be > 0")
	}
	if _, err := netmail.ParseAddress(cfg.Mail.From); err != nil {
		return cfg, errors.New("MAIL_FROM must be an email address, optionally with a display name")
	}
	if cfg.Mail.DispatchTimeout <= 0 {
		return cfg, errors.New("MAIL_DISPATCH_TIMEOUT must be > 0")
	}
	if cfg.Mail.RateRPS < 0 {
		return cfg, errors.New("MAIL_RATE_RPS must be >= 0")
	}
	if cfg.Mail.RateBurst < 1 {
		return cfg, errors.New("MAIL_RATE_BURST must be >= 1")
	}
	if cfg.RateLimit.Max < 1 {
		return cfg, errors.New("RATE_LIMIT_MAX must be >= 1")
	}
	if cfg.RateLimit.Window <= 0 || cfg.RateLimit.Sweep <= 0 {
		return cfg, errors.New("RATE_LIMIT_WINDOW and RATE_LIMIT_SWEEP must be > 0")
	}
	switch cfg.RateLimit.Store {
	case "memory":
	case "redis":
		if strings.TrimSpace(cfg.RateLimit.Redis.Addr) == "" {
			return cfg, errors.New("REDIS_ADDR must not be empty when RATE_LIMIT_STORE=redis")
		}
	default:
		return cfg, errors.New("RATE_LIMIT_STORE must be one of: memory, redis")
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		return cfg, errors.New("DB_PATH must not be empty")
	}
	if cfg.IdempotencyTTL <= 0 {
		return cfg, errors.New("IDEMPOTENCY_TTL must be > 0")
	}
	if strings.TrimSpace(cfg.IdempotencyPurgeSchedule) == "" {
		return cfg, errors.New("IDEMPOTENCY_PURGE_SCHEDULE must not be empty")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// compact trims entries and drops empty ones.
func compact(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, 0, len(in))
	for _, p := range in {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
