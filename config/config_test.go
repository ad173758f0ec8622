package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dushop/dushop_backend/config"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "DB_NAME", "OTP_TTL", "OTP_MAX_ATTEMPTS", "OTP_CODE_LENGTH",
		"OTP_STORE", "OTP_REQUIRE_REGISTERED", "OTP_STRICT_ERRORS",
		"RATE_LIMIT_ENABLED", "CORS_ORIGIN", "SMTP_PORT",
	} {
		t.Setenv(key, "")
	}

	cfg := config.Load()

	assert.Equal(t, "5000", cfg.Port)
	assert.Equal(t, "dushop", cfg.DBName)
	assert.Equal(t, 5*time.Minute, cfg.OTPTTL)
	assert.Equal(t, 5, cfg.OTPMaxAttempts)
	assert.Equal(t, 6, cfg.OTPCodeLength)
	assert.Equal(t, "memory", cfg.OTPStore)
	assert.False(t, cfg.RequireRegistered)
	assert.False(t, cfg.StrictErrors)
	assert.True(t, cfg.RateLimitEnabled)
	assert.Equal(t, "http://localhost:5173", cfg.CORSOrigin)
	assert.Equal(t, 587, cfg.SMTPPort)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("OTP_TTL", "90s")
	t.Setenv("OTP_MAX_ATTEMPTS", "3")
	t.Setenv("OTP_CODE_LENGTH", "8")
	t.Setenv("OTP_STORE", "redis")
	t.Setenv("OTP_REQUIRE_REGISTERED", "true")
	t.Setenv("OTP_STRICT_ERRORS", "true")
	t.Setenv("RATE_LIMIT_ENABLED", "false")

	cfg := config.Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 90*time.Second, cfg.OTPTTL)
	assert.Equal(t, 3, cfg.OTPMaxAttempts)
	assert.Equal(t, 8, cfg.OTPCodeLength)
	assert.Equal(t, "redis", cfg.OTPStore)
	assert.True(t, cfg.RequireRegistered)
	assert.True(t, cfg.StrictErrors)
	assert.False(t, cfg.RateLimitEnabled)
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	t.Setenv("OTP_TTL", "not-a-duration")
	t.Setenv("OTP_MAX_ATTEMPTS", "many")
	t.Setenv("OTP_REQUIRE_REGISTERED", "kinda")

	cfg := config.Load()

	assert.Equal(t, 5*time.Minute, cfg.OTPTTL)
	assert.Equal(t, 5, cfg.OTPMaxAttempts)
	assert.False(t, cfg.RequireRegistered)
}
