package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("TASKGATE_SECRET", "unit-test-secret")
	t.Setenv("POSTGRES_DSN", "host=localhost user=taskgate dbname=taskgate")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 15*time.Minute, cfg.AccessTTL())
	assert.Equal(t, 24*time.Hour, cfg.RefreshTTL())
	assert.True(t, cfg.FailOpen())
	assert.Equal(t, 500*time.Millisecond, cfg.StoreTimeout())
	assert.Contains(t, cfg.Throttle.Scopes, "anon")
	assert.Contains(t, cfg.Throttle.Scopes, "uploads")
}

func TestLoadFile(t *testing.T) {
	setRequiredEnv(t)

	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"server": {"port": "9090", "environment": "production"},
		"auth": {"access_ttl_minutes": 30},
		"throttle": {"fail_open": false, "scopes": {"anon": {"window_seconds": 10, "max_count": 5}}},
		"redis": {"host": "redis.internal"}
	}`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 30*time.Minute, cfg.AccessTTL())
	assert.False(t, cfg.FailOpen())
	assert.Equal(t, "redis.internal:6379", cfg.Redis.Addr())
	assert.Equal(t, int64(5), cfg.Throttle.Scopes["anon"].MaxCount)
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("TASKGATE_SECRET", "")
	t.Setenv("POSTGRES_DSN", "host=localhost")

	_, err := Load("")
	assert.ErrorContains(t, err, "TASKGATE_SECRET")
}

func TestLoadRequiresDSN(t *testing.T) {
	t.Setenv("TASKGATE_SECRET", "secret")
	t.Setenv("POSTGRES_DSN", "")

	_, err := Load("")
	assert.ErrorContains(t, err, "POSTGRES_DSN")
}
