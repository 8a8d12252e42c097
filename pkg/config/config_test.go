package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadEmptyPathUsesDefaults(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "development", c.Environment)
	assert.Equal(t, "http://localhost:8080", c.API.BaseURL)
	assert.True(t, c.Analysis.FallbackEnabled)
	assert.Equal(t, 4500*time.Millisecond, c.Analysis.LoadingDuration)
	assert.Equal(t, "file", c.Storage.Backend)
	assert.Equal(t, []string{"localhost:9092"}, c.Kafka.Brokers)
	assert.Equal(t, 8080, c.Server.Port)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
environment: test
api:
  base_url: http://api.example.test
analysis:
  fallback_enabled: false
storage:
  backend: memory
kafka:
  brokers: ["k1:9092", "k2:9092"]
`)
	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "test", c.Environment)
	assert.Equal(t, "http://api.example.test", c.API.BaseURL)
	assert.False(t, c.Analysis.FallbackEnabled)
	assert.Equal(t, "memory", c.Storage.Backend)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, c.Kafka.Brokers)
	// untouched sections keep their defaults
	assert.Equal(t, 8*time.Second, c.API.Timeout)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"storage backend": "storage:\n  backend: sqlite\n",
		"events backend":  "events:\n  backend: nats\n",
		"log level":       "logging:\n  level: verbose\n",
		"base url":        "api:\n  base_url: not a url\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			require.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("TRACKBETS_API_BASE", "http://override.test/")
	t.Setenv("TRACKBETS_FALLBACK", "false")
	t.Setenv("REDIS_ADDR", "cache.local:6380")
	t.Setenv("KAFKA_BROKERS", "a:1,b:2")
	t.Setenv("LOG_LEVEL", "DEBUG")

	c, err := LoadWithEnv("")
	require.NoError(t, err)

	assert.Equal(t, "http://override.test", c.API.BaseURL)
	assert.False(t, c.Analysis.FallbackEnabled)
	assert.Equal(t, "cache.local", c.Redis.Host)
	assert.Equal(t, 6380, c.Redis.Port)
	assert.Equal(t, []string{"a:1", "b:2"}, c.Kafka.Brokers)
	assert.Equal(t, "debug", c.Logging.Level)
}

func TestLoadingDurationClamp(t *testing.T) {
	c := Default()

	c.Analysis.LoadingDuration = time.Second
	assert.Equal(t, 3*time.Second, c.LoadingDuration())

	c.Analysis.LoadingDuration = 10 * time.Second
	assert.Equal(t, 5*time.Second, c.LoadingDuration())

	c.Analysis.LoadingDuration = 4 * time.Second
	assert.Equal(t, 4*time.Second, c.LoadingDuration())
}
