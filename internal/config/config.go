package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig carries the process configuration. The retry budget and fault
// rules are fixed demo behavior; only the knobs below come from the
// environment.
type AppConfig struct {
	Port string

	// LogLevel is "debug", "info", "warn" or "error".
	LogLevel string

	// CacheBackend selects the cache-aside store: "memory", "redis" or
	// "none".
	CacheBackend string
	RedisURL     string
	CacheTTL     time.Duration

	// Retry shape: attempts are fixed per fetch, delay between them is
	// BackoffBase * 2^(attempt-1).
	MaxAttempts int
	BackoffBase time.Duration

	// WarmInterval enables the periodic cache pre-warmer when > 0.
	WarmInterval time.Duration
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	cfg := &AppConfig{
		Port:         getenvDefault("PORT", "8080"),
		LogLevel:     getenvDefault("LOG_LEVEL", "info"),
		CacheBackend: getenvDefault("CACHE_BACKEND", "memory"),
		RedisURL:     os.Getenv("REDIS_URL"),
		MaxAttempts:  getenvInt("RETRY_MAX_ATTEMPTS", 3),
	}

	ttl, err := getenvDuration("CACHE_TTL", "30s")
	if err != nil {
		return nil, err
	}
	cfg.CacheTTL = ttl

	base, err := getenvDuration("RETRY_BACKOFF_BASE", "200ms")
	if err != nil {
		return nil, err
	}
	cfg.BackoffBase = base

	warm, err := getenvDuration("WARM_INTERVAL", "0s")
	if err != nil {
		return nil, err
	}
	cfg.WarmInterval = warm

	switch cfg.CacheBackend {
	case "memory", "redis", "none":
	default:
		return nil, fmt.Errorf("invalid CACHE_BACKEND %q: want memory, redis or none", cfg.CacheBackend)
	}
	if cfg.CacheBackend == "redis" && cfg.RedisURL == "" {
		return nil, fmt.Errorf("CACHE_BACKEND=redis requires REDIS_URL")
	}
	if cfg.MaxAttempts <= 0 {
		return nil, fmt.Errorf("RETRY_MAX_ATTEMPTS must be positive")
	}

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
