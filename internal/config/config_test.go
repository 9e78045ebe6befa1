package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"CONFIG_FILE", "HTTP_ADDR", "STORE_BACKEND", "REDIS_URL", "DATABASE_DRIVER", "DATABASE_URL",
		"CLOCK_SOURCE", "GAME_TTL", "DRAW_OFFER_TTL", "ABANDON_AFTER", "HEARTBEAT_INTERVAL",
		"DEFAULT_RATING", "METRICS_ENABLED", "MESSAGES_DIR", "RATINGS_SEED_FILE",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaultsWithMemoryStore(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE_BACKEND", "memory")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":8080" || cfg.DefaultRating != 1500 || cfg.GameTTL != 24*time.Hour {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.DrawOfferTTL != 0 || cfg.AbandonAfter != 0 {
		t.Fatalf("draw ttl and abandonment must default to disabled: %+v", cfg)
	}
}

func TestLoadRequiresRedisURL(t *testing.T) {
	clearEnv(t)
	if _, err := Load(); err == nil {
		t.Fatalf("expected error without REDIS_URL")
	}
}

func TestLoadFileThenEnvOverride(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "gamecore.yaml")
	body := "http_addr: \":9000\"\nstore_backend: redis\nredis_url: redis://127.0.0.1:6379/1\ndraw_offer_ttl: 2m\nabandon_after: 10m\ndefault_rating: 1200\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("DEFAULT_RATING", "1600")
	t.Setenv("CLOCK_SOURCE", "redis")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":9000" || cfg.RedisURL != "redis://127.0.0.1:6379/1" {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.DrawOfferTTL != 2*time.Minute || cfg.AbandonAfter != 10*time.Minute {
		t.Fatalf("durations not parsed: %+v", cfg)
	}
	if cfg.DefaultRating != 1600 || cfg.ClockSource != ClockRedis {
		t.Fatalf("env overrides not applied: %+v", cfg)
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("DRAW_OFFER_TTL", "soon")
	if _, err := Load(); err == nil {
		t.Fatalf("expected duration parse error")
	}
}

func TestLoadRejectsBadScalars(t *testing.T) {
	cases := []struct{ key, val string }{
		{"DEFAULT_RATING", "abc"},
		{"DEFAULT_RATING", "-5"},
		{"DEFAULT_RATING", "0"},
		{"METRICS_ENABLED", "maybe"},
	}
	for _, tc := range cases {
		clearEnv(t)
		t.Setenv("STORE_BACKEND", "memory")
		t.Setenv(tc.key, tc.val)
		if _, err := Load(); err == nil {
			t.Fatalf("%s=%q: expected error", tc.key, tc.val)
		}
	}
}

func TestLoadScalarsAndSeedFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("METRICS_ENABLED", "false")
	t.Setenv("RATINGS_SEED_FILE", "/etc/gamecore/ratings.yaml")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MetricsEnabled || cfg.RatingsSeedFile != "/etc/gamecore/ratings.yaml" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestValidateRejectsNonPositiveFileRating(t *testing.T) {
	cfg := defaults()
	cfg.StoreBackend = StoreMemory
	cfg.DefaultRating = 0
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for zero default rating")
	}
}

func TestValidateClockSourceNeedsRedis(t *testing.T) {
	cfg := defaults()
	cfg.StoreBackend = StoreMemory
	cfg.ClockSource = ClockRedis
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected redis clock to require redis store")
	}
}
