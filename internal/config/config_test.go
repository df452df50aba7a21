package config

import (
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret-at-least-16-chars")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Port != 3333 {
		t.Errorf("Port = %d, want 3333", cfg.Port)
	}
	if cfg.DBPath != "data/copa.db" {
		t.Errorf("DBPath = %q, want %q", cfg.DBPath, "data/copa.db")
	}
	if cfg.AuthRateLimit != 20 {
		t.Errorf("AuthRateLimit = %d, want 20", cfg.AuthRateLimit)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "http://localhost:3000" {
		t.Errorf("AllowedOrigins = %v, want the local web client", cfg.AllowedOrigins)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret-at-least-16-chars")
	t.Setenv("PORT", "8080")
	t.Setenv("DB_PATH", "/tmp/copa-test.db")
	t.Setenv("ALLOWED_ORIGINS", "https://copa.example.com,https://staging.copa.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.DBPath != "/tmp/copa-test.db" {
		t.Errorf("DBPath = %q, want %q", cfg.DBPath, "/tmp/copa-test.db")
	}
	if len(cfg.AllowedOrigins) != 2 {
		t.Errorf("AllowedOrigins = %v, want 2 origins", cfg.AllowedOrigins)
	}
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	// t.Setenv with an empty value still registers the variable, so use
	// it to shadow any ambient secret and then verify Load fails.
	t.Setenv("JWT_SECRET", "")

	if _, err := Load(); err == nil {
		t.Error("Load() without JWT_SECRET should fail")
	}
}
