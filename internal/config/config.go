package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/nfrund/shellrt/internal/pubsub"
	"github.com/nfrund/shellrt/internal/timer"
)

// Config holds all configuration for the application.
type Config struct {
	LogFormat string `validate:"oneof=text json"`
	LogLevel  string `validate:"oneof=debug info warn error"`

	// Defaults for every subscription the runtime creates.
	SubscriptionCapacity int    `validate:"gte=0"`
	OverflowPolicy       string `validate:"oneof=drop_oldest drop_newest"`
	TimerCatchUp         string `validate:"oneof=coalesce queue"`

	// Snake game
	Players      int           `validate:"min=1,max=8"`
	GridWidth    int           `validate:"min=2"`
	GridHeight   int           `validate:"min=2"`
	TickInterval time.Duration `validate:"gt=0"`
	BotInterval  time.Duration `validate:"gt=0"`

	Tracing pubsub.TracingConfig
}

// New loads configuration from a .env file, if present, and the environment,
// then validates it.
func New() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, relying on environment variables")
	}
	return FromEnv()
}

// FromEnv reads and validates configuration from the environment only.
func FromEnv() (*Config, error) {
	tracing := pubsub.DefaultTracingConfig()
	r := &reader{}

	cfg := &Config{
		LogFormat: r.str("LOG_FORMAT", "text"),
		LogLevel:  r.str("LOG_LEVEL", "info"),

		SubscriptionCapacity: r.int("SHELLRT_SUBSCRIPTION_CAPACITY", 0),
		OverflowPolicy:       r.str("SHELLRT_OVERFLOW_POLICY", "drop_oldest"),
		TimerCatchUp:         r.str("SHELLRT_TIMER_CATCHUP", "coalesce"),

		Players:      r.int("SHELLRT_PLAYERS", 2),
		GridWidth:    r.int("SHELLRT_GRID_WIDTH", 20),
		GridHeight:   r.int("SHELLRT_GRID_HEIGHT", 10),
		TickInterval: r.duration("SHELLRT_TICK_INTERVAL", 200*time.Millisecond),
		BotInterval:  r.duration("SHELLRT_BOT_INTERVAL", 350*time.Millisecond),

		Tracing: pubsub.TracingConfig{
			Enabled:     r.bool("PUBSUB_TRACING_ENABLED", tracing.Enabled),
			ServiceName: r.str("PUBSUB_TRACING_SERVICE_NAME", tracing.ServiceName),
			ZipkinURL:   r.str("PUBSUB_TRACING_ZIPKIN_URL", tracing.ZipkinURL),
		},
	}

	if err := errors.Join(r.errs...); err != nil {
		return nil, err
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// SubscriptionDefaults converts the subscription settings for the runtime.
func (c *Config) SubscriptionDefaults() pubsub.SubscriptionOptions {
	// Validated in FromEnv.
	policy, _ := pubsub.ParseOverflowPolicy(c.OverflowPolicy)
	return pubsub.SubscriptionOptions{
		Capacity: c.SubscriptionCapacity,
		Overflow: policy,
	}
}

// CatchUpPolicy converts the timer setting for the runtime.
func (c *Config) CatchUpPolicy() timer.CatchUpPolicy {
	policy, _ := timer.ParseCatchUpPolicy(c.TimerCatchUp)
	return policy
}

// reader collects parse errors so every bad variable is reported at once.
type reader struct {
	errs []error
}

func (r *reader) str(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func (r *reader) int(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return n
}

func (r *reader) duration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return d
}

func (r *reader) bool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return b
}
