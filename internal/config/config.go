// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Responder kinds.
const (
	ResponderScripted   = "scripted"
	ResponderOpenRouter = "openrouter"
)

// Config holds all application configuration.
type Config struct {
	Port               string
	FrontendURL        string
	DBPath             string // empty disables transcripts
	TranscriptTTL      time.Duration
	SessionIdleTTL     time.Duration
	SweepInterval      time.Duration
	MaxRequestBodySize int64
	RateLimit          RateLimitConfig
	Responder          ResponderConfig
}

// RateLimitConfig controls the per-user chat rate limiter.
type RateLimitConfig struct {
	RequestsPerWindow int
	WindowDuration    time.Duration
}

// ResponderConfig selects the reply source and configures the remote model.
type ResponderConfig struct {
	Kind    string
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:               getEnv("PORT", "8080"),
		FrontendURL:        getEnv("FRONTEND_URL", ""),
		DBPath:             getEnv("DB_PATH", "./data/mindbloom.db"),
		TranscriptTTL:      getEnvDuration("TRANSCRIPT_TTL", 30*24*time.Hour),
		SessionIdleTTL:     getEnvDuration("SESSION_IDLE_TTL", 60*time.Minute),
		SweepInterval:      getEnvDuration("SESSION_SWEEP_INTERVAL", 5*time.Minute),
		MaxRequestBodySize: int64(getEnvInt("MAX_REQUEST_BODY_SIZE", 64<<10)),
		RateLimit: RateLimitConfig{
			RequestsPerWindow: getEnvInt("RATE_LIMIT_REQUESTS", 30),
			WindowDuration:    getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
		},
		Responder: ResponderConfig{
			Kind:    strings.ToLower(getEnv("RESPONDER", ResponderScripted)),
			APIKey:  getEnv("OPENROUTER_API_KEY", ""),
			Model:   getEnv("OPENROUTER_MODEL", "openai/gpt-4o-mini"),
			BaseURL: getEnv("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
			Timeout: getEnvDuration("OPENROUTER_TIMEOUT", 20*time.Second),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.SessionIdleTTL <= 0 {
		return fmt.Errorf("SESSION_IDLE_TTL must be > 0")
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("SESSION_SWEEP_INTERVAL must be > 0")
	}
	if c.TranscriptTTL <= 0 {
		return fmt.Errorf("TRANSCRIPT_TTL must be > 0")
	}
	if c.MaxRequestBodySize <= 0 {
		return fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0")
	}
	if c.RateLimit.RequestsPerWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be > 0")
	}
	if c.RateLimit.WindowDuration <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be > 0")
	}
	switch c.Responder.Kind {
	case ResponderScripted:
	case ResponderOpenRouter:
		if c.Responder.APIKey == "" {
			return fmt.Errorf("OPENROUTER_API_KEY is required when RESPONDER=openrouter")
		}
		if c.Responder.Timeout <= 0 {
			return fmt.Errorf("OPENROUTER_TIMEOUT must be > 0")
		}
	default:
		return fmt.Errorf("unknown RESPONDER %q", c.Responder.Kind)
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}

// TranscriptsEnabled reports whether turns are written to the database.
func (c *Config) TranscriptsEnabled() bool {
	return c.DBPath != ""
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}
