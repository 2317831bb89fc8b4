package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Licores-api/pkg/config"
)

func TestLoad_ValoresPorDefecto(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "BL", cfg.Billing.Prefix)
	assert.Equal(t, 4, cfg.Billing.MinDigits)
	assert.Equal(t, 1000, cfg.Billing.MaxIterations)
	assert.Equal(t, 10, cfg.Billing.ForcedChunk)
	assert.True(t, cfg.Billing.EnforceStock)
	assert.Equal(t, 3, cfg.Ledger.MaxRetries)
	assert.Equal(t, 100*time.Millisecond, cfg.Ledger.Backoff)
	assert.Equal(t, 5*time.Second, cfg.DB.LockTimeout)
	assert.Empty(t, cfg.Redis.URL)
}

func TestLoad_DesdeEntorno(t *testing.T) {
	t.Setenv("BILL_PREFIX", "FX")
	t.Setenv("BILL_MIN_DIGITS", "6")
	t.Setenv("BILLING_ENFORCE_STOCK", "false")
	t.Setenv("LEDGER_MAX_RETRIES", "5")
	t.Setenv("LEDGER_RETRY_BACKOFF_MS", "250")
	t.Setenv("DB_LOCK_TIMEOUT", "2s")
	t.Setenv("REDIS_URL", "redis://localhost:6379/1")
	t.Setenv("HTTP_PORT", "9090")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "FX", cfg.Billing.Prefix)
	assert.Equal(t, 6, cfg.Billing.MinDigits)
	assert.False(t, cfg.Billing.EnforceStock)
	assert.Equal(t, 5, cfg.Ledger.MaxRetries)
	assert.Equal(t, 250*time.Millisecond, cfg.Ledger.Backoff)
	assert.Equal(t, 2*time.Second, cfg.DB.LockTimeout)
	assert.Equal(t, "redis://localhost:6379/1", cfg.Redis.URL)
	assert.Equal(t, "0.0.0.0:9090", cfg.HTTP.Addr())
}

func TestLoad_RechazaValoresInvalidos(t *testing.T) {
	t.Setenv("LEDGER_MAX_RETRIES", "0")
	_, err := config.Load()
	assert.Error(t, err)
}
