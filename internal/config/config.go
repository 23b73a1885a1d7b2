package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds process-level configuration. Runtime security settings live
// in domain.SecurityConfig and are managed through the API, not here.
type Config struct {
	Addr string
	Env  string

	DatabaseURL string

	LexiconPath string

	ReputationURL     string
	ReputationAPIKey  string
	ReputationTimeout time.Duration
}

// Load reads configuration from environment variables.
// In development, it loads from .env file if present.
func Load() *Config {
	// Load .env file if it exists (for development)
	_ = godotenv.Load()

	cfg := &Config{
		Addr:             getEnv("ADDR", ":8080"),
		Env:              getEnv("ENV", "development"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		LexiconPath:      os.Getenv("LEXICON_PATH"),
		ReputationURL:    os.Getenv("REPUTATION_URL"),
		ReputationAPIKey: os.Getenv("REPUTATION_API_KEY"),
	}

	cfg.ReputationTimeout = 10 * time.Second
	if raw := os.Getenv("REPUTATION_TIMEOUT"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			cfg.ReputationTimeout = d
		}
	}

	if cfg.Env == "production" && cfg.DatabaseURL == "" {
		panic("DATABASE_URL is required in production")
	}

	return cfg
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
