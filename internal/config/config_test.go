package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("RESPONDER", "scripted")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("expected port 9090, got %q", cfg.Port)
	}
	if cfg.SessionIdleTTL != time.Hour {
		t.Errorf("expected default idle TTL 1h, got %v", cfg.SessionIdleTTL)
	}
	if cfg.Responder.Kind != ResponderScripted {
		t.Errorf("expected scripted responder, got %q", cfg.Responder.Kind)
	}
}

func TestLoadParsesDurations(t *testing.T) {
	t.Setenv("SESSION_IDLE_TTL", "15m")
	t.Setenv("RATE_LIMIT_WINDOW", "not-a-duration")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.SessionIdleTTL != 15*time.Minute {
		t.Errorf("expected 15m, got %v", cfg.SessionIdleTTL)
	}
	if cfg.RateLimit.WindowDuration != time.Minute {
		t.Errorf("expected invalid value to fall back to 1m, got %v", cfg.RateLimit.WindowDuration)
	}
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			Port:               "8080",
			TranscriptTTL:      time.Hour,
			SessionIdleTTL:     time.Hour,
			SweepInterval:      time.Minute,
			MaxRequestBodySize: 1024,
			RateLimit:          RateLimitConfig{RequestsPerWindow: 1, WindowDuration: time.Second},
			Responder:          ResponderConfig{Kind: ResponderScripted},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"empty port", func(c *Config) { c.Port = "" }, "PORT"},
		{"zero ttl", func(c *Config) { c.SessionIdleTTL = 0 }, "SESSION_IDLE_TTL"},
		{"zero rate limit", func(c *Config) { c.RateLimit.RequestsPerWindow = 0 }, "RATE_LIMIT_REQUESTS"},
		{"openrouter without key", func(c *Config) { c.Responder.Kind = ResponderOpenRouter }, "OPENROUTER_API_KEY"},
		{"openrouter with key", func(c *Config) {
			c.Responder = ResponderConfig{Kind: ResponderOpenRouter, APIKey: "k", Timeout: time.Second}
		}, ""},
		{"unknown responder", func(c *Config) { c.Responder.Kind = "magic" }, "unknown RESPONDER"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestIsDevelopment(t *testing.T) {
	if !(&Config{}).IsDevelopment() {
		t.Error("expected empty frontend URL to be development")
	}
	if (&Config{FrontendURL: "https://mindbloom.app"}).IsDevelopment() {
		t.Error("expected public frontend URL to be production")
	}
}
