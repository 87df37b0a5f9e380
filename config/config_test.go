package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("JWT_SECRET", "secret")

	cfg := LoadConfig()

	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, cfg.Auth.TokenTTL, cfg.Auth.CookieTTL)
	assert.Equal(t, 5*time.Minute, cfg.OTP.TTL)
	assert.False(t, cfg.OTP.BypassEnabled)
	require.NoError(t, cfg.Validate())
}

func TestCookieTTLOverride(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("AUTH_COOKIE_TTL", "72h")

	cfg := LoadConfig()
	assert.Equal(t, 72*time.Hour, cfg.Auth.CookieTTL)
}

func TestValidateRejectsBypassInProduction(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DEV_BYPASS_OTP", "true")

	cfg := LoadConfig()
	require.True(t, cfg.IsProduction())
	assert.Error(t, cfg.Validate())
}

func TestValidateRequiresSecret(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("JWT_SECRET", "")

	assert.Error(t, LoadConfig().Validate())
}

func TestCORSAllowedOrigins(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://studynotion.dev , http://localhost:5173,")

	cfg := LoadConfig()
	assert.Equal(t, []string{"https://studynotion.dev", "http://localhost:5173"}, cfg.CORSAllowedOrigins)
}
