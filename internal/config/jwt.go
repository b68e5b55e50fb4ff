package config

import (
	"errors"
	"fmt"
	"os"
	"time"
)

// Session token defaults.
const (
	DefaultJWTIssuer = "resume-matcher"
	// DefaultJWTTTL keeps a CLI login valid for a month of occasional use.
	DefaultJWTTTL = 30 * 24 * time.Hour
	// MinJWTSecretLen is the shortest HS256 secret accepted from JWT_SECRET.
	MinJWTSecretLen = 32
)

// JWTConfig holds configuration for session token signing and validation.
type JWTConfig struct {
	Secret string
	TTL    time.Duration
	Issuer string
	Leeway time.Duration // clock skew tolerated when checking exp and nbf
}

// NewJWTConfig reads JWT_SECRET (required, at least MinJWTSecretLen bytes),
// JWT_TTL (a Go duration, default 720h), JWT_ISSUER and JWT_LEEWAY.
func NewJWTConfig() (*JWTConfig, error) {
	cfg := &JWTConfig{
		Secret: os.Getenv("JWT_SECRET"),
		TTL:    DefaultJWTTTL,
		Issuer: os.Getenv("JWT_ISSUER"),
	}
	if cfg.Secret == "" {
		return nil, errors.New("JWT_SECRET is required but not set")
	}
	if len(cfg.Secret) < MinJWTSecretLen {
		return nil, fmt.Errorf("JWT_SECRET must be at least %d bytes", MinJWTSecretLen)
	}
	if cfg.Issuer == "" {
		cfg.Issuer = DefaultJWTIssuer
	}

	var err error
	if cfg.TTL, err = envDuration("JWT_TTL", DefaultJWTTTL); err != nil {
		return nil, err
	}
	if cfg.Leeway, err = envDuration("JWT_LEEWAY", 0); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would produce unusable tokens.
func (c *JWTConfig) Validate() error {
	switch {
	case c.Secret == "":
		return errors.New("JWT secret cannot be empty")
	case c.TTL < time.Minute:
		return fmt.Errorf("JWT_TTL must be at least 1m, got %s", c.TTL)
	case c.Leeway < 0:
		return fmt.Errorf("JWT_LEEWAY cannot be negative, got %s", c.Leeway)
	}
	return nil
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
