package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestNewFromEnv(t *testing.T) {
	// Helper function to set environment variables for a test
	setEnv := func(key, value string) {
		t.Helper()
		t.Setenv(key, value)
	}

	t.Run("Defaults", func(t *testing.T) {
		setEnv("DIGIMESS_DATA_DIR", "/srv/menu")

		cfg, err := NewFromEnv()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if cfg.DataDir != "/srv/menu" {
			t.Errorf("Expected DataDir to be '/srv/menu', got '%s'", cfg.DataDir)
		}
		if cfg.DBPath != "data/digimess.db" {
			t.Errorf("Expected default DBPath, got '%s'", cfg.DBPath)
		}
		if cfg.Port != "8080" {
			t.Errorf("Expected default Port 8080, got '%s'", cfg.Port)
		}
		if cfg.JWTExpirationHours != 720 || cfg.RateLimitPerMinute != 120 || cfg.RateLimitBurst != 20 {
			t.Errorf("Unexpected numeric defaults: %+v", cfg)
		}
		if cfg.Logging.Level != "info" || cfg.Logging.Format != "text" || cfg.Logging.Output != "stdout" {
			t.Errorf("Unexpected logging defaults: %+v", cfg.Logging)
		}
		if !cfg.TelegramAllowed(42) {
			t.Error("Expected an empty allow-list to admit everyone")
		}
	})

	t.Run("Overrides", func(t *testing.T) {
		setEnv("DIGIMESS_DATA_DIR", "/srv/menu")
		setEnv("PORT", "9000")
		setEnv("JWT_SECRET", "s3cret")
		setEnv("RATE_LIMIT_BURST", "5")
		setEnv("TELEGRAM_ALLOWED_USER_IDS", "11, 22,,33")
		setEnv("ADMIN_TELEGRAM_ID", "11")
		setEnv("DIGIMESS_FAKE_NOW", "2025-08-15")
		setEnv("LOG_FORMAT", "json")

		cfg, err := NewFromEnv()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if cfg.Port != "9000" || cfg.JWTSecret != "s3cret" || cfg.RateLimitBurst != 5 {
			t.Errorf("Unexpected config: %+v", cfg)
		}
		if !reflect.DeepEqual(cfg.TelegramAllowedUserIDs, []int64{11, 22, 33}) {
			t.Errorf("Unexpected allow-list %v", cfg.TelegramAllowedUserIDs)
		}
		if cfg.AdminTelegramID != 11 || cfg.FakeNow != "2025-08-15" || cfg.Logging.Format != "json" {
			t.Errorf("Unexpected config: %+v", cfg)
		}
		if cfg.TelegramAllowed(44) {
			t.Error("Expected 44 to be rejected")
		}
		if err := cfg.RequireServer(); err != nil {
			t.Errorf("Expected server config to be complete, got %v", err)
		}
	})

	t.Run("MissingDataDir", func(t *testing.T) {
		os.Unsetenv("DIGIMESS_DATA_DIR")

		_, err := NewFromEnv()
		if err == nil {
			t.Fatal("Expected an error for missing DIGIMESS_DATA_DIR, got nil")
		}
		expectedError := "DIGIMESS_DATA_DIR environment variable not set"
		if err.Error() != expectedError {
			t.Errorf("Expected error '%s', got '%s'", expectedError, err.Error())
		}
	})

	t.Run("InvalidNumbers", func(t *testing.T) {
		setEnv("DIGIMESS_DATA_DIR", "/srv/menu")

		for _, key := range []string{"JWT_EXPIRATION_HOURS", "RATE_LIMIT_PER_MINUTE", "ADMIN_TELEGRAM_ID", "TELEGRAM_ALLOWED_USER_IDS"} {
			t.Run(key, func(t *testing.T) {
				t.Setenv(key, "abc")
				if _, err := NewFromEnv(); err == nil {
					t.Errorf("Expected an error for %s=abc", key)
				}
			})
		}
	})

	t.Run("MissingJWTSecret", func(t *testing.T) {
		setEnv("DIGIMESS_DATA_DIR", "/srv/menu")
		os.Unsetenv("JWT_SECRET")

		cfg, err := NewFromEnv()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if err := cfg.RequireServer(); err == nil {
			t.Error("Expected RequireServer to fail without JWT_SECRET")
		}
	})
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("DIGIMESS_DATA_DIR=/from/dotenv\nPORT=7000\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DIGIMESS_DATA_DIR", "")
	os.Unsetenv("DIGIMESS_DATA_DIR")
	t.Setenv("PORT", "9999")

	if err := LoadDotEnv(path, filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	cfg, err := NewFromEnv()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if cfg.DataDir != "/from/dotenv" {
		t.Errorf("Expected value from .env, got %q", cfg.DataDir)
	}
	if cfg.Port != "9999" {
		t.Errorf("Expected existing environment to win, got %q", cfg.Port)
	}
}
