package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_RequiresBackendURL(t *testing.T) {
	os.Unsetenv("BACKEND_URL")
	_, err := Load()
	if err == nil {
		t.Fatal("expected error when BACKEND_URL is missing")
	}
}

func TestLoad_WithBackendURL(t *testing.T) {
	os.Setenv("BACKEND_URL", "http://api.internal:8000/")
	defer os.Unsetenv("BACKEND_URL")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.BackendURL != "http://api.internal:8000" {
		t.Errorf("expected trailing slash to be trimmed, got %s", cfg.BackendURL)
	}

	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Port)
	}

	if cfg.BackendTimeout != 15*time.Second {
		t.Errorf("expected default backend timeout 15s, got %s", cfg.BackendTimeout)
	}
}

func TestLoad_ProductionRequiresSigningKey(t *testing.T) {
	os.Setenv("BACKEND_URL", "http://api.internal:8000")
	os.Setenv("ENV", "production")
	os.Unsetenv("SESSION_SIGNING_KEY")
	defer func() {
		os.Unsetenv("BACKEND_URL")
		os.Unsetenv("ENV")
	}()

	if _, err := Load(); err == nil {
		t.Fatal("expected error when SESSION_SIGNING_KEY is missing in production")
	}

	os.Setenv("SESSION_SIGNING_KEY", "secret")
	defer os.Unsetenv("SESSION_SIGNING_KEY")
	if _, err := Load(); err != nil {
		t.Fatalf("unexpected error with signing key set: %v", err)
	}
}

func TestConfig_IsDev(t *testing.T) {
	c := &Config{Env: "development"}
	if !c.IsDev() {
		t.Error("expected IsDev() to return true for development")
	}

	c.Env = "production"
	if c.IsDev() {
		t.Error("expected IsDev() to return false for production")
	}
	if !c.IsProduction() {
		t.Error("expected IsProduction() to return true for production")
	}
}
