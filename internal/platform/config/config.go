package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the full service configuration. Empty collaborator settings
// select in-process fallbacks; see the main packages for the wiring.
type Config struct {
	Server      Server
	DatabaseURL string
	Redis       RedisConfig
	Stripe      StripeConfig
	SendGrid    SendGridConfig
	Storage     StorageConfig
	Kafka       KafkaConfig
	Contact     ContactConfig
	Reconcile   ReconcileConfig
	Tracing     TracingConfig
	LogLevel    string
	LogFormat   string
	ServiceName string
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr              string
	BaseURL           string
	SessionSigningKey string
	ShutdownTimeout   time.Duration
}

type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
}

type SendGridConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
}

type StorageConfig struct {
	Bucket       string
	EmulatorHost string
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

type ContactConfig struct {
	Inbox     string
	RateLimit int
	Window    time.Duration
}

type ReconcileConfig struct {
	Lookback    time.Duration
	Concurrency int
}

// TracingConfig selects the span exporter. Exporter "otlp" ships to
// Endpoint over HTTP, "stdout" prints spans, anything else disables tracing.
type TracingConfig struct {
	Exporter    string
	Endpoint    string
	SampleRatio float64
}

const devSigningKey = "dev-session-key-change-in-production"

// FromEnv builds a Config from environment variables so main stays lean.
// A .env file in the working directory is loaded first when present;
// variables already set in the environment win.
func FromEnv() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Config{
		Server: Server{
			Addr:              getEnv("SPARKFISH_ADDR", ":8080"),
			BaseURL:           strings.TrimRight(getEnv("BASE_URL", "https://sparkfish.app"), "/"),
			SessionSigningKey: getEnv("SESSION_SIGNING_KEY", devSigningKey),
			ShutdownTimeout:   10 * time.Second,
		},
		DatabaseURL: os.Getenv("DATABASE_URL"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Stripe: StripeConfig{
			SecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
			WebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		},
		SendGrid: SendGridConfig{
			APIKey:    os.Getenv("SENDGRID_API_KEY"),
			FromEmail: getEnv("SENDGRID_FROM_EMAIL", "hello@sparkfish.app"),
			FromName:  getEnv("SENDGRID_FROM_NAME", "Sparkfish"),
		},
		Storage: StorageConfig{
			Bucket:       os.Getenv("CERTIFICATE_BUCKET"),
			EmulatorHost: os.Getenv("STORAGE_EMULATOR_HOST"),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(os.Getenv("KAFKA_BROKERS")),
			Topic:   getEnv("EVENTS_TOPIC", "sparkfish.events"),
		},
		Contact: ContactConfig{
			Inbox: getEnv("CONTACT_INBOX", "hello@sparkfish.app"),
		},
		Tracing: TracingConfig{
			Exporter: strings.ToLower(os.Getenv("OTEL_TRACES_EXPORTER")),
			Endpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		},
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "json"),
		ServiceName: "sparkfish",
	}

	var err error
	if cfg.Contact.RateLimit, err = getInt("CONTACT_RATE_LIMIT", 3); err != nil {
		return Config{}, err
	}
	if cfg.Contact.Window, err = getDuration("CONTACT_RATE_WINDOW", time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.Reconcile.Lookback, err = getDuration("RECONCILE_LOOKBACK", 72*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.Reconcile.Concurrency, err = getInt("RECONCILE_CONCURRENCY", 4); err != nil {
		return Config{}, err
	}

	if cfg.Tracing.SampleRatio, err = getFloat("OTEL_SAMPLER_RATIO", 0.1); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings that would start a misbehaving service.
func (c Config) Validate() error {
	if c.Contact.RateLimit <= 0 {
		return fmt.Errorf("CONTACT_RATE_LIMIT must be positive, got %d", c.Contact.RateLimit)
	}
	if c.Contact.Window <= 0 {
		return fmt.Errorf("CONTACT_RATE_WINDOW must be positive, got %s", c.Contact.Window)
	}
	if c.Reconcile.Lookback <= 0 {
		return fmt.Errorf("RECONCILE_LOOKBACK must be positive, got %s", c.Reconcile.Lookback)
	}
	if c.Reconcile.Concurrency <= 0 {
		return fmt.Errorf("RECONCILE_CONCURRENCY must be positive, got %d", c.Reconcile.Concurrency)
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		return fmt.Errorf("OTEL_SAMPLER_RATIO must be between 0 and 1, got %g", c.Tracing.SampleRatio)
	}
	return nil
}

// UsingDevSigningKey reports whether the built-in session key is in use.
func (c Config) UsingDevSigningKey() bool {
	return c.Server.SessionSigningKey == devSigningKey
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getFloat(key string, fallback float64) (float64, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
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
