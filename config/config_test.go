package config

import (
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/fogna/football-stats/db"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET_KEY", "test-secret")
	t.Setenv("ADMIN_PASSWORD", "admin-pass")
	t.Setenv("VIEWER_PASSWORD", "viewer-pass")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DatabaseDriver != db.DriverSQLite {
		t.Fatalf("expected sqlite driver, got %q", cfg.DatabaseDriver)
	}
	if cfg.ServerPort != 8080 {
		t.Fatalf("expected default port 8080, got %d", cfg.ServerPort)
	}
	if cfg.SessionTTL != 12*time.Hour {
		t.Fatalf("expected 12h session ttl, got %s", cfg.SessionTTL)
	}
	if cfg.R2Enabled() {
		t.Fatal("expected R2 to be disabled without credentials")
	}
}

func TestLoadCORSOrigins(t *testing.T) {
	setRequired(t)
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected origins: %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{name: "missing secret", env: map[string]string{"JWT_SECRET_KEY": ""}, wantErr: "JWT_SECRET_KEY"},
		{name: "bad port", env: map[string]string{"SERVER_PORT": "70000"}, wantErr: "SERVER_PORT"},
		{name: "port not int", env: map[string]string{"SERVER_PORT": "abc"}, wantErr: "parse env:"},
		{name: "bad driver", env: map[string]string{"DATABASE_DRIVER": "mysql"}, wantErr: "DATABASE_DRIVER"},
		{name: "no admin password", env: map[string]string{"ADMIN_PASSWORD": ""}, wantErr: "ADMIN_PASSWORD"},
		{name: "no viewer password", env: map[string]string{"VIEWER_PASSWORD": ""}, wantErr: "VIEWER_PASSWORD"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestSlogLevel(t *testing.T) {
	cfg := &Config{LogLevel: "DEBUG"}
	if cfg.SlogLevel() != slog.LevelDebug {
		t.Fatalf("expected debug level, got %v", cfg.SlogLevel())
	}
	cfg.LogLevel = "nonsense"
	if cfg.SlogLevel() != slog.LevelInfo {
		t.Fatalf("expected info fallback, got %v", cfg.SlogLevel())
	}
}
