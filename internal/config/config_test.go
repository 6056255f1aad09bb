package config

import (
	"os"
	"testing"
	"time"
)

func TestEnvOr(t *testing.T) {
	// Unset key returns fallback
	os.Unsetenv("TEST_ENVOR_KEY")
	if got := envOr("TEST_ENVOR_KEY", "default"); got != "default" {
		t.Errorf("envOr unset key = %q, want %q", got, "default")
	}

	// Set key returns value
	os.Setenv("TEST_ENVOR_KEY", "custom")
	defer os.Unsetenv("TEST_ENVOR_KEY")
	if got := envOr("TEST_ENVOR_KEY", "default"); got != "custom" {
		t.Errorf("envOr set key = %q, want %q", got, "custom")
	}

	// Empty string returns fallback
	os.Setenv("TEST_ENVOR_KEY", "")
	if got := envOr("TEST_ENVOR_KEY", "fallback"); got != "fallback" {
		t.Errorf("envOr empty key = %q, want %q", got, "fallback")
	}
}

func TestEnvMillis(t *testing.T) {
	defer os.Unsetenv("TEST_MILLIS_KEY")

	os.Unsetenv("TEST_MILLIS_KEY")
	if got := envMillis("TEST_MILLIS_KEY", 60_000); got != time.Minute {
		t.Errorf("envMillis unset = %v, want 1m", got)
	}

	os.Setenv("TEST_MILLIS_KEY", "30000")
	if got := envMillis("TEST_MILLIS_KEY", 60_000); got != 30*time.Second {
		t.Errorf("envMillis 30000 = %v, want 30s", got)
	}

	os.Setenv("TEST_MILLIS_KEY", "abc")
	if got := envMillis("TEST_MILLIS_KEY", 60_000); got != time.Minute {
		t.Errorf("envMillis malformed = %v, want default 1m", got)
	}

	os.Setenv("TEST_MILLIS_KEY", "-5")
	if got := envMillis("TEST_MILLIS_KEY", 60_000); got != time.Minute {
		t.Errorf("envMillis negative = %v, want default 1m", got)
	}
}

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "DATABASE_URL", "TELEGRAM_BOT_TOKEN", "FRONTEND_ORIGIN", "REDIS_URL", "REDIS_PASSWORD", "POLL_INTERVAL_MS", "INFISICAL_CLIENT_ID", "INFISICAL_CLIENT_SECRET"} {
		os.Unsetenv(k)
	}

	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want %q", cfg.Port, "8080")
	}
	if cfg.FrontendOrigin != "*" {
		t.Errorf("FrontendOrigin = %q, want %q", cfg.FrontendOrigin, "*")
	}
	if cfg.PollInterval != time.Minute {
		t.Errorf("PollInterval = %v, want 1m", cfg.PollInterval)
	}
	if cfg.DatabaseURL != "" {
		t.Errorf("DatabaseURL = %q, want empty", cfg.DatabaseURL)
	}
}

func TestLoadFromEnv(t *testing.T) {
	os.Setenv("PORT", "9090")
	os.Setenv("DATABASE_URL", "postgres://test")
	os.Setenv("TELEGRAM_BOT_TOKEN", "test-token")
	os.Setenv("POLL_INTERVAL_MS", "15000")
	defer func() {
		os.Unsetenv("PORT")
		os.Unsetenv("DATABASE_URL")
		os.Unsetenv("TELEGRAM_BOT_TOKEN")
		os.Unsetenv("POLL_INTERVAL_MS")
	}()

	cfg := Load()

	if cfg.Port != "9090" {
		t.Errorf("Port = %q, want %q", cfg.Port, "9090")
	}
	if cfg.DatabaseURL != "postgres://test" {
		t.Errorf("DatabaseURL = %q, want %q", cfg.DatabaseURL, "postgres://test")
	}
	if cfg.TelegramToken != "test-token" {
		t.Errorf("TelegramToken = %q, want %q", cfg.TelegramToken, "test-token")
	}
	if cfg.PollInterval != 15*time.Second {
		t.Errorf("PollInterval = %v, want 15s", cfg.PollInterval)
	}
}
