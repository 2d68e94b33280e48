package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"SERVER_HOST", "SERVER_PORT", "SERVER_SHUTDOWN_TIMEOUT",
	"OTEL_ENABLED", "OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_SERVICE_NAME", "OTEL_ENVIRONMENT",
	"LOG_LEVEL",
	"STORAGE_DRIVER", "DATABASE_URL", "DB_MAX_OPEN_CONNS", "DB_MAX_IDLE_CONNS", "DB_CONN_MAX_LIFETIME",
	"NOTIFIER_KIND", "NOTIFIER_WEBHOOK_URL", "NOTIFIER_TIMEOUT", "NOTIFIER_RATE_LIMIT", "NOTIFIER_BURST",
	"NOTIFIER_BREAKER_TIMEOUT", "NOTIFIER_BREAKER_FAILURES",
	"METRICS_DURATION_MS",
}

// clearEnv unsets every key for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
	t.Chdir(t.TempDir())
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr())
	assert.Equal(t, 15*time.Second, cfg.Server.ShutdownTimeout)
	assert.True(t, cfg.OTLP.Enabled)
	assert.Equal(t, "localhost:4317", cfg.OTLP.Endpoint)
	assert.Equal(t, "products-api", cfg.OTLP.ServiceName)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, StorageMemory, cfg.Storage.Driver)
	assert.Equal(t, 25, cfg.Storage.MaxOpenConns)
	assert.Equal(t, NotifierLog, cfg.Notifier.Kind)
	assert.Equal(t, 10*time.Second, cfg.Notifier.Timeout)
	assert.Equal(t, 5.0, cfg.Notifier.RequestsPerSecond)
	assert.Equal(t, 30*time.Second, cfg.Notifier.BreakerTimeout)
	assert.Equal(t, uint32(5), cfg.Notifier.BreakerFailures)
	assert.False(t, cfg.Metrics.DurationMilliseconds)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("OTEL_ENABLED", "false")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("STORAGE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost:5432/products")
	t.Setenv("NOTIFIER_KIND", "webhook")
	t.Setenv("NOTIFIER_WEBHOOK_URL", "http://hooks.local/products")
	t.Setenv("NOTIFIER_TIMEOUT", "2s")
	t.Setenv("NOTIFIER_BREAKER_TIMEOUT", "1m")
	t.Setenv("NOTIFIER_BREAKER_FAILURES", "3")
	t.Setenv("METRICS_DURATION_MS", "true")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.False(t, cfg.OTLP.Enabled)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, StoragePostgres, cfg.Storage.Driver)
	assert.Equal(t, NotifierWebhook, cfg.Notifier.Kind)
	assert.Equal(t, 2*time.Second, cfg.Notifier.Timeout)
	assert.Equal(t, time.Minute, cfg.Notifier.BreakerTimeout)
	assert.Equal(t, uint32(3), cfg.Notifier.BreakerFailures)
	assert.True(t, cfg.Metrics.DurationMilliseconds)
}

func TestLoadConfigDotEnvLocal(t *testing.T) {
	clearEnv(t)
	require.NoError(t, os.WriteFile(filepath.Join(".", ".env.local"), []byte("SERVER_PORT=7070\nLOG_LEVEL=warn\n"), 0o600))
	t.Setenv("LOG_LEVEL", "error")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.Server.Port)
	assert.Equal(t, "error", cfg.Log.Level, "real environment wins over .env.local")

	// godotenv sets variables in the process; drop it so later tests start clean.
	require.NoError(t, os.Unsetenv("SERVER_PORT"))
}

func TestLoadConfigValidation(t *testing.T) {
	testCases := []struct {
		name string
		env  map[string]string
	}{
		{name: "unknown storage driver", env: map[string]string{"STORAGE_DRIVER": "mongo"}},
		{name: "postgres without url", env: map[string]string{"STORAGE_DRIVER": "postgres"}},
		{name: "unknown notifier", env: map[string]string{"NOTIFIER_KIND": "kafka"}},
		{name: "webhook without url", env: map[string]string{"NOTIFIER_KIND": "webhook"}},
		{name: "malformed duration", env: map[string]string{"NOTIFIER_TIMEOUT": "soon"}},
		{name: "negative breaker failures", env: map[string]string{"NOTIFIER_BREAKER_FAILURES": "-1"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}

			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}
