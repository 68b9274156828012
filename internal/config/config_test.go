package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("ORDER_EXPIRY", "")
	t.Setenv("ORDER_EXPIRY_CONSUMES_STOCK", "")
	t.Setenv("POS_TIMEZONE", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "America/Hermosillo", cfg.Pedidos.TimeZone)
	assert.Equal(t, time.Hour, cfg.Pedidos.Expiry)
	assert.True(t, cfg.Pedidos.ExpiryConsumesStock)
	assert.Equal(t, 10*time.Minute, cfg.Cache.TTL)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ORDER_EXPIRY", "90m")
	t.Setenv("ORDER_EXPIRY_CONSUMES_STOCK", "false")
	t.Setenv("CACHE_TTL", "30")
	t.Setenv("DB_MAX_OPEN_CONNS", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 90*time.Minute, cfg.Pedidos.Expiry)
	assert.False(t, cfg.Pedidos.ExpiryConsumesStock)
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
}

func TestLoadRejectsUnknownTimeZone(t *testing.T) {
	t.Setenv("POS_TIMEZONE", "Mars/Olympus")

	_, err := Load()
	assert.Error(t, err)
}
