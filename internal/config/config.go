package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"hotelbooking/internal/pkg/validator"

	"github.com/joho/godotenv"
)

const (
	defaultHTTPAddr         = ":8080"
	defaultDatabaseURL      = "file:hotelbooking.db?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	defaultJWTSecret        = "change-me-jwt-secret"
	defaultJWTTTL           = "24h"
	defaultWebhookSecret    = "change-me-webhook-secret"
	defaultAdmissionTimeout = "5s"
	defaultPaymentTimeout   = "30m"
	defaultSweepInterval    = "1m"
	defaultCacheTTL         = "5m"
	defaultShutdownTimeout  = "15s"
	defaultMaxStayNights    = "30"
	defaultLogLevel         = "info"
	defaultLogFormat        = "text"
)

type Config struct {
	AppEnv      string `validate:"required"`
	HTTPAddr    string `validate:"required"`
	DatabaseURL string `validate:"required"`

	JWTSecret     string        `validate:"required"`
	JWTTTL        time.Duration `validate:"gt=0"`
	WebhookSecret string        `validate:"required"`

	AdmissionTimeout time.Duration `validate:"gt=0"`
	PaymentTimeout   time.Duration `validate:"gt=0"`
	SweepInterval    time.Duration `validate:"gt=0"`
	MaxStayNights    int           `validate:"gte=1,lte=365"`

	RedisURL       string
	CacheTTL       time.Duration `validate:"gt=0"`
	RabbitURL      string
	JaegerEndpoint string

	LogLevel  string `validate:"oneof=trace debug info warn warning error"`
	LogFormat string `validate:"oneof=text json"`
	LogFile   string

	CORSOrigins     []string
	ShutdownTimeout time.Duration `validate:"gt=0"`
}

// Load reads the environment, optionally seeded from a .env file in the
// working directory.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

func FromEnv() (*Config, error) {
	cfg := &Config{
		AppEnv:         strings.ToLower(strings.TrimSpace(getEnv("APP_ENV", "dev"))),
		HTTPAddr:       httpAddr(),
		DatabaseURL:    strings.TrimSpace(getEnv("DATABASE_URL", defaultDatabaseURL)),
		JWTSecret:      strings.TrimSpace(getEnv("JWT_SECRET", defaultJWTSecret)),
		WebhookSecret:  strings.TrimSpace(getEnv("PAYMENT_WEBHOOK_SECRET", defaultWebhookSecret)),
		RedisURL:       strings.TrimSpace(os.Getenv("REDIS_URL")),
		RabbitURL:      strings.TrimSpace(os.Getenv("RABBITMQ_URL")),
		JaegerEndpoint: strings.TrimSpace(os.Getenv("JAEGER_ENDPOINT")),
		LogLevel:       strings.ToLower(strings.TrimSpace(getEnv("LOG_LEVEL", defaultLogLevel))),
		LogFormat:      strings.ToLower(strings.TrimSpace(getEnv("LOG_FORMAT", defaultLogFormat))),
		LogFile:        strings.TrimSpace(os.Getenv("LOG_FILE")),
		CORSOrigins:    splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
	}

	durations := []struct {
		name, fallback string
		dst            *time.Duration
	}{
		{"JWT_TTL", defaultJWTTTL, &cfg.JWTTTL},
		{"ADMISSION_TIMEOUT", defaultAdmissionTimeout, &cfg.AdmissionTimeout},
		{"PAYMENT_TIMEOUT", defaultPaymentTimeout, &cfg.PaymentTimeout},
		{"SWEEP_INTERVAL", defaultSweepInterval, &cfg.SweepInterval},
		{"CACHE_TTL", defaultCacheTTL, &cfg.CacheTTL},
		{"SHUTDOWN_TIMEOUT", defaultShutdownTimeout, &cfg.ShutdownTimeout},
	}
	for _, d := range durations {
		v, err := parseDurationEnv(d.name, d.fallback)
		if err != nil {
			return nil, err
		}
		*d.dst = v
	}

	raw := strings.TrimSpace(getEnv("MAX_STAY_NIGHTS", defaultMaxStayNights))
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_STAY_NIGHTS value %q: %w", raw, err)
	}
	cfg.MaxStayNights = n

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return isProdLike(c.AppEnv)
}

func validateConfig(cfg *Config) error {
	if errs := validator.Validate(cfg); errs != nil {
		fields := make([]string, 0, len(errs))
		for field, tag := range errs {
			fields = append(fields, field+":"+tag)
		}
		sort.Strings(fields)
		return fmt.Errorf("invalid config: %s", strings.Join(fields, ", "))
	}

	if isProdLike(cfg.AppEnv) {
		if isEmptyOrDefault(cfg.JWTSecret, defaultJWTSecret) {
			return fmt.Errorf("in prod/release JWT_SECRET must be set and not default")
		}
		if isEmptyOrDefault(cfg.WebhookSecret, defaultWebhookSecret) {
			return fmt.Errorf("in prod/release PAYMENT_WEBHOOK_SECRET must be set and not default")
		}
		if !strings.HasPrefix(cfg.DatabaseURL, "postgres") {
			return fmt.Errorf("in prod/release DATABASE_URL must point at PostgreSQL")
		}
	}
	return nil
}

func httpAddr() string {
	if v := strings.TrimSpace(os.Getenv("HTTP_ADDR")); v != "" {
		return v
	}
	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		return ":" + port
	}
	return defaultHTTPAddr
}

func isProdLike(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "prod" || env == "production" || env == "release"
}

func isEmptyOrDefault(v, def string) bool {
	trimmed := strings.TrimSpace(v)
	return trimmed == "" || trimmed == def
}

func parseDurationEnv(name, fallback string) (time.Duration, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return d, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
