package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"SERVER_PORT", "LOCK_TTL", "REDIS_URL", "AMQP_URL", "S3_BUCKET", "MERCADOPAGO_ACCESS_TOKEN", "METRICS_ENABLED"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, 5*time.Minute, cfg.LockTTL)
	assert.Equal(t, "@every 1m", cfg.LockSweepSchedule)
	assert.Empty(t, cfg.RedisURL)
	assert.False(t, cfg.StorageEnabled())
	assert.False(t, cfg.PaymentsEnabled())
	assert.True(t, cfg.MetricsEnabled)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("LOCK_TTL", "90s")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("METRICS_ENABLED", "false")
	t.Setenv("S3_BUCKET", "avatars")

	cfg := Load()

	assert.Equal(t, ":9090", cfg.Addr())
	assert.Equal(t, 90*time.Second, cfg.LockTTL)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.False(t, cfg.MetricsEnabled)
	assert.True(t, cfg.StorageEnabled())
}

func TestLoadIgnoresBrokenValues(t *testing.T) {
	t.Setenv("LOCK_TTL", "soon")
	t.Setenv("REDIS_DB", "x")
	t.Setenv("METRICS_ENABLED", "maybe")

	cfg := Load()

	assert.Equal(t, 5*time.Minute, cfg.LockTTL)
	assert.Equal(t, 0, cfg.RedisDB)
	assert.True(t, cfg.MetricsEnabled)
}
