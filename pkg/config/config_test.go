package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORAGE", "memory")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StorageMemory, cfg.Storage)
	assert.Equal(t, ":8443", cfg.HTTPAddr)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 25, cfg.DBMaxOpenConns)
	assert.Equal(t, "salesflow:pedidos", cfg.EventsStream)
	assert.False(t, cfg.TLS())
}

func TestLoadPostgresRequiresURL(t *testing.T) {
	t.Setenv("STORAGE", "postgres")
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	assert.ErrorContains(t, err, "DATABASE_URL")
}

func TestLoadReadsOverrides(t *testing.T) {
	t.Setenv("STORAGE", "postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/vendas?sslmode=disable")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("SHUTDOWN_TIMEOUT", "3s")
	t.Setenv("TLS_CERT", "certs/server.crt")
	t.Setenv("TLS_KEY", "certs/server.key")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 3*time.Second, cfg.ShutdownTimeout)
	assert.True(t, cfg.TLS())
}

func TestValidateRejects(t *testing.T) {
	base := Config{Storage: StorageMemory, OtelProbability: 1}

	c := base
	c.Storage = "csv"
	assert.Error(t, c.Validate())

	c = base
	c.TLSCert = "server.crt"
	assert.Error(t, c.Validate())

	c = base
	c.OtelProbability = 1.5
	assert.Error(t, c.Validate())
}
