package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/invoicedesk_test")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, "USD", cfg.App.Currency)
	assert.Equal(t, 24*time.Hour, cfg.JWT.Expiry)
	assert.Equal(t, "s3cret", cfg.JWT.Secret)
	assert.Equal(t, "invoices", cfg.Minio.Bucket)
	assert.Equal(t, "invoicedesk:events", cfg.Redis.EventsChannel)
	assert.Equal(t, time.Duration(0), cfg.Audit.Interval)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/invoicedesk_test")
	t.Setenv("APP_PORT", "9090")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("JWT_EXPIRY_HOURS", "2")
	t.Setenv("LEDGER_AUDIT_INTERVAL", "15m")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("MINIO_USE_SSL", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.App.Port)
	assert.Equal(t, 2*time.Hour, cfg.JWT.Expiry)
	assert.Equal(t, 15*time.Minute, cfg.Audit.Interval)
	assert.Equal(t, 2.5, cfg.RateLimit.RPS)
	assert.True(t, cfg.Minio.UseSSL)
	assert.Len(t, cfg.JWT.Secret, 32)
}

func TestLoad_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	assert.ErrorContains(t, err, "DATABASE_URL")
}
