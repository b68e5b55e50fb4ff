package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = strings.Repeat("k", MinJWTSecretLen)

func TestNewJWTConfig_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("JWT_TTL", "")
	t.Setenv("JWT_ISSUER", "")
	t.Setenv("JWT_LEEWAY", "")

	cfg, err := NewJWTConfig()
	require.NoError(t, err)
	assert.Equal(t, &JWTConfig{Secret: testSecret, TTL: DefaultJWTTTL, Issuer: DefaultJWTIssuer}, cfg)
}

func TestNewJWTConfig_Env(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantTTL time.Duration
		wantErr string
	}{
		{name: "ttl", env: map[string]string{"JWT_TTL": "168h"}, wantTTL: 168 * time.Hour},
		{name: "short ttl", env: map[string]string{"JWT_TTL": "30s"}, wantErr: "at least 1m"},
		{name: "bad ttl", env: map[string]string{"JWT_TTL": "a week"}, wantErr: "invalid JWT_TTL"},
		{name: "negative leeway", env: map[string]string{"JWT_LEEWAY": "-1s"}, wantErr: "cannot be negative"},
		{name: "short secret", env: map[string]string{"JWT_SECRET": "short"}, wantErr: "at least 32 bytes"},
		{name: "missing secret", env: map[string]string{"JWT_SECRET": ""}, wantErr: "JWT_SECRET is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", testSecret)
			t.Setenv("JWT_TTL", "")
			t.Setenv("JWT_LEEWAY", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := NewJWTConfig()
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				assert.Nil(t, cfg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantTTL, cfg.TTL)
		})
	}
}

func TestNewJWTConfig_CustomIssuer(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("JWT_ISSUER", "resume-matcher-staging")

	cfg, err := NewJWTConfig()
	require.NoError(t, err)
	assert.Equal(t, "resume-matcher-staging", cfg.Issuer)
}
