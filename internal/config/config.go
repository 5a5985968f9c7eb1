// Package config loads the service settings from the environment.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

type Config struct {
	Port        string
	DatabaseURL string
	SecretKey   string
	Algorithm   string
	TokenTTL    time.Duration
	BcryptCost  int
	LogLevel    string
	LogFormat   string
	RedisURL    string
	// RateLimit is the number of register/login attempts allowed per client
	// IP per minute.
	RateLimit int
	// TrustProxy makes the rate limiter key on CF-Connecting-IP or
	// X-Forwarded-For. Enable only behind a proxy that overwrites them.
	TrustProxy bool
}

var ErrMissingSecret = errors.New("TODO_SECRET_KEY is required")

// Load reads the configuration through getenv, normally os.Getenv.
func Load(getenv func(string) string) (*Config, error) {
	c := &Config{
		Port:        envOr(getenv, "TODO_PORT", "8080"),
		DatabaseURL: envOr(getenv, "TODO_DATABASE_URL", "todo.db"),
		SecretKey:   getenv("TODO_SECRET_KEY"),
		Algorithm:   strings.ToUpper(envOr(getenv, "TODO_JWT_ALGORITHM", "HS256")),
		LogLevel:    envOr(getenv, "TODO_LOG_LEVEL", "info"),
		LogFormat:   envOr(getenv, "TODO_LOG_FORMAT", "text"),
		RedisURL:    getenv("TODO_REDIS_URL"),
	}

	if c.SecretKey == "" {
		return nil, ErrMissingSecret
	}

	switch c.Algorithm {
	case "HS256", "HS384", "HS512":
	default:
		return nil, fmt.Errorf("TODO_JWT_ALGORITHM: unsupported algorithm %q", c.Algorithm)
	}

	ttl, err := time.ParseDuration(envOr(getenv, "TODO_TOKEN_TTL", "20m"))
	if err != nil {
		return nil, fmt.Errorf("TODO_TOKEN_TTL: %w", err)
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("TODO_TOKEN_TTL: must be positive, got %s", ttl)
	}
	c.TokenTTL = ttl

	cost, err := strconv.Atoi(envOr(getenv, "TODO_BCRYPT_COST", strconv.Itoa(bcrypt.DefaultCost)))
	if err != nil {
		return nil, fmt.Errorf("TODO_BCRYPT_COST: %w", err)
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("TODO_BCRYPT_COST: %d outside [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	c.BcryptCost = cost

	limit, err := strconv.Atoi(envOr(getenv, "TODO_RATE_LIMIT", "10"))
	if err != nil {
		return nil, fmt.Errorf("TODO_RATE_LIMIT: %w", err)
	}
	if limit <= 0 {
		return nil, fmt.Errorf("TODO_RATE_LIMIT: must be positive, got %d", limit)
	}
	c.RateLimit = limit

	trust, err := strconv.ParseBool(envOr(getenv, "TODO_TRUST_PROXY", "false"))
	if err != nil {
		return nil, fmt.Errorf("TODO_TRUST_PROXY: %w", err)
	}
	c.TrustProxy = trust

	return c, nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}

func envOr(getenv func(string) string, key, fallback string) string {
	if v := strings.TrimSpace(getenv(key)); v != "" {
		return v
	}
	return fallback
}
