package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"golang.org/x/crypto/bcrypt"
)

const (
	MinBcryptCost     = 10
	MaxBcryptCost     = 14
	DefaultBcryptCost = 12

	// MaxPasswordBytes is bcrypt's input limit, pepper included.
	MaxPasswordBytes = 72
)

// ErrPasswordTooLong is returned when a password plus pepper exceeds
// MaxPasswordBytes.
var ErrPasswordTooLong = errors.New("password is too long")

// PasswordConfig controls how account passwords are hashed.
type PasswordConfig struct {
	BcryptCost int
	// Pepper is a server-wide secret appended to every password. Changing
	// it invalidates all stored hashes.
	Pepper string
}

// NewPasswordConfig reads BCRYPT_COST and PASSWORD_PEPPER.
func NewPasswordConfig() (*PasswordConfig, error) {
	cost, err := envInt("BCRYPT_COST", DefaultBcryptCost)
	if err != nil {
		return nil, err
	}
	c := &PasswordConfig{BcryptCost: cost, Pepper: os.Getenv("PASSWORD_PEPPER")}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *PasswordConfig) Validate() error {
	if c.BcryptCost < MinBcryptCost || c.BcryptCost > MaxBcryptCost {
		return fmt.Errorf("BCRYPT_COST %d out of range %d-%d", c.BcryptCost, MinBcryptCost, MaxBcryptCost)
	}
	if len(c.Pepper) >= MaxPasswordBytes {
		return fmt.Errorf("PASSWORD_PEPPER must be shorter than %d bytes", MaxPasswordBytes)
	}
	return nil
}

// HashPassword returns a bcrypt hash of pw.
func (c *PasswordConfig) HashPassword(pw string) (string, error) {
	input := c.peppered(pw)
	if len(input) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	hash, err := bcrypt.GenerateFromPassword(input, c.BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword reports whether pw matches storedHash.
func (c *PasswordConfig) VerifyPassword(pw, storedHash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(storedHash), c.peppered(pw)) == nil
}

// NeedsRehash reports whether storedHash was made with a different cost
// than the current configuration.
func (c *PasswordConfig) NeedsRehash(storedHash string) bool {
	cost, err := bcrypt.Cost([]byte(storedHash))
	return err != nil || cost != c.BcryptCost
}

func (c *PasswordConfig) peppered(pw string) []byte {
	return []byte(pw + c.Pepper)
}

func envInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
