package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"
)

const (
	StoreRedis  = "redis"
	StoreMemory = "memory"

	ClockLocal = "local"
	ClockRedis = "redis"
)

type AppConfig struct {
	HTTPAddr string `yaml:"http_addr"`

	StoreBackend string `yaml:"store_backend"`
	RedisURL     string `yaml:"redis_url"`

	DatabaseDriver string `yaml:"database_driver"`
	DatabaseURL    string `yaml:"database_url"`

	ClockSource string `yaml:"clock_source"`

	GameTTL           time.Duration `yaml:"game_ttl"`
	DrawOfferTTL      time.Duration `yaml:"draw_offer_ttl"`
	AbandonAfter      time.Duration `yaml:"abandon_after"`
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`

	DefaultRating  int    `yaml:"default_rating"`
	MetricsEnabled bool   `yaml:"metrics_enabled"`
	MessagesDir    string `yaml:"messages_dir"`

	RatingsSeedFile string `yaml:"ratings_seed_file"`
}

func defaults() *AppConfig {
	return &AppConfig{
		HTTPAddr:          ":8080",
		StoreBackend:      StoreRedis,
		DatabaseDriver:    "postgres",
		ClockSource:       ClockLocal,
		GameTTL:           24 * time.Hour,
		HeartbeatInterval: time.Second,
		DefaultRating:     1500,
		MetricsEnabled:    true,
	}
}

// Load applies defaults, then the optional CONFIG_FILE, then environment overrides.
func Load() (*AppConfig, error) {
	cfg := defaults()

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) applyFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *AppConfig) applyEnv() error {
	if v := strings.TrimSpace(os.Getenv("HTTP_ADDR")); v != "" {
		c.HTTPAddr = v
	}
	if v := strings.TrimSpace(os.Getenv("STORE_BACKEND")); v != "" {
		c.StoreBackend = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv("REDIS_URL")); v != "" {
		c.RedisURL = v
	}
	if v := strings.TrimSpace(os.Getenv("DATABASE_DRIVER")); v != "" {
		c.DatabaseDriver = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv("DATABASE_URL")); v != "" {
		c.DatabaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("CLOCK_SOURCE")); v != "" {
		c.ClockSource = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv("MESSAGES_DIR")); v != "" {
		c.MessagesDir = v
	}
	if v := strings.TrimSpace(os.Getenv("RATINGS_SEED_FILE")); v != "" {
		c.RatingsSeedFile = v
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"GAME_TTL", &c.GameTTL},
		{"DRAW_OFFER_TTL", &c.DrawOfferTTL},
		{"ABANDON_AFTER", &c.AbandonAfter},
		{"HEARTBEAT_INTERVAL", &c.HeartbeatInterval},
	}
	for _, d := range durations {
		if v := strings.TrimSpace(os.Getenv(d.key)); v != "" {
			parsed, err := time.ParseDuration(v)
			if err != nil || parsed < 0 {
				return fmt.Errorf("%s: invalid duration %q", d.key, v)
			}
			*d.dst = parsed
		}
	}

	if v := strings.TrimSpace(os.Getenv("DEFAULT_RATING")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return fmt.Errorf("DEFAULT_RATING: invalid rating %q", v)
		}
		c.DefaultRating = n
	}
	if v := strings.TrimSpace(os.Getenv("METRICS_ENABLED")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("METRICS_ENABLED: invalid bool %q", v)
		}
		c.MetricsEnabled = b
	}
	return nil
}

// Validate checks cross-field requirements.
func (c *AppConfig) Validate() error {
	switch c.StoreBackend {
	case StoreRedis:
		if c.RedisURL == "" {
			return errors.New("REDIS_URL is required for the redis store")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("STORE_BACKEND must be redis or memory, got %q", c.StoreBackend)
	}
	switch c.ClockSource {
	case ClockLocal:
	case ClockRedis:
		if c.StoreBackend != StoreRedis {
			return errors.New("CLOCK_SOURCE=redis requires STORE_BACKEND=redis")
		}
	default:
		return fmt.Errorf("CLOCK_SOURCE must be local or redis, got %q", c.ClockSource)
	}
	if c.DatabaseURL != "" && c.DatabaseDriver != "postgres" && c.DatabaseDriver != "sqlite" {
		return fmt.Errorf("DATABASE_DRIVER must be postgres or sqlite, got %q", c.DatabaseDriver)
	}
	if c.DefaultRating <= 0 {
		return errors.New("DEFAULT_RATING must be positive")
	}
	if c.HeartbeatInterval <= 0 {
		return errors.New("HEARTBEAT_INTERVAL must be positive")
	}
	if c.HTTPAddr == "" {
		return errors.New("HTTP_ADDR is required")
	}
	return nil
}
