package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPasswordConfig(t *testing.T) {
	tests := []struct {
		name     string
		cost     string
		pepper   string
		wantCost int
		wantErr  string
	}{
		{name: "defaults", wantCost: DefaultBcryptCost},
		{name: "min cost", cost: "10", wantCost: 10},
		{name: "max cost", cost: "14", wantCost: 14},
		{name: "with pepper", cost: "10", pepper: "pep", wantCost: 10},
		{name: "too low", cost: "9", wantErr: "out of range 10-14"},
		{name: "too high", cost: "15", wantErr: "out of range"},
		{name: "not a number", cost: "twelve", wantErr: "invalid BCRYPT_COST"},
		{name: "pepper too long", pepper: strings.Repeat("p", MaxPasswordBytes), wantErr: "PASSWORD_PEPPER"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("BCRYPT_COST", tt.cost)
			t.Setenv("PASSWORD_PEPPER", tt.pepper)

			cfg, err := NewPasswordConfig()
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCost, cfg.BcryptCost)
			assert.Equal(t, tt.pepper, cfg.Pepper)
		})
	}
}

func TestPasswordConfig_HashAndVerify(t *testing.T) {
	cfg := &PasswordConfig{BcryptCost: MinBcryptCost}

	hash, err := cfg.HashPassword("correct horse")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$2a$10$"))

	assert.True(t, cfg.VerifyPassword("correct horse", hash))
	assert.False(t, cfg.VerifyPassword("wrong horse", hash))
	assert.False(t, cfg.VerifyPassword("correct horse", "not-a-hash"))
}

func TestPasswordConfig_SaltUniqueness(t *testing.T) {
	cfg := &PasswordConfig{BcryptCost: MinBcryptCost}

	a, err := cfg.HashPassword("same")
	require.NoError(t, err)
	b, err := cfg.HashPassword("same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestPasswordConfig_Pepper(t *testing.T) {
	peppered := &PasswordConfig{BcryptCost: MinBcryptCost, Pepper: "pepper-1"}
	hash, err := peppered.HashPassword("secret123")
	require.NoError(t, err)

	assert.True(t, peppered.VerifyPassword("secret123", hash))

	plain := &PasswordConfig{BcryptCost: MinBcryptCost}
	assert.False(t, plain.VerifyPassword("secret123", hash), "hash must not verify without the pepper")

	rotated := &PasswordConfig{BcryptCost: MinBcryptCost, Pepper: "pepper-2"}
	assert.False(t, rotated.VerifyPassword("secret123", hash), "hash must not verify with a different pepper")
}

func TestPasswordConfig_Over72Bytes(t *testing.T) {
	cfg := &PasswordConfig{BcryptCost: MinBcryptCost}
	_, err := cfg.HashPassword(strings.Repeat("a", 73))
	assert.Error(t, err)
}

func TestPasswordConfig_TooLong(t *testing.T) {
	cfg := &PasswordConfig{BcryptCost: MinBcryptCost, Pepper: "pep"}
	_, err := cfg.HashPassword(strings.Repeat("a", MaxPasswordBytes-len(cfg.Pepper)))
	assert.NoError(t, err)

	_, err = cfg.HashPassword(strings.Repeat("a", MaxPasswordBytes))
	assert.ErrorIs(t, err, ErrPasswordTooLong)
}

func TestPasswordConfig_NeedsRehash(t *testing.T) {
	low := &PasswordConfig{BcryptCost: MinBcryptCost}
	hash, err := low.HashPassword("secret123")
	require.NoError(t, err)

	assert.False(t, low.NeedsRehash(hash))
	assert.True(t, (&PasswordConfig{BcryptCost: MinBcryptCost + 1}).NeedsRehash(hash))
	assert.True(t, low.NeedsRehash("garbage"))
}
