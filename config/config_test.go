package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, 0, cfg.Retries)
	assert.Equal(t, 2*time.Second, cfg.RetryDelay)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Log.Pretty)
}

func TestLoadBytesOverridesDefaults(t *testing.T) {
	doc := []byte("timeout: 10s\nretries: 3\nretrydelay: 250ms\nlog:\n  level: debug\n")

	cfg, err := LoadBytes(doc)
	require.NoError(t, err)

	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.Equal(t, 3, cfg.Retries)
	assert.Equal(t, 250*time.Millisecond, cfg.RetryDelay)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.yaml")
	require.NoError(t, os.WriteFile(path, []byte("retries: 2\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Retries)
	// Untouched keys keep their defaults.
	assert.Equal(t, 5*time.Second, cfg.Timeout)
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.yaml")
	require.NoError(t, os.WriteFile(path, []byte("timeout: 10s\nretries: 1\n"), 0o600))

	t.Setenv("HTTPCLIENT_TIMEOUT", "30s")
	t.Setenv("HTTPCLIENT_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, 1, cfg.Retries)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestValidateRejectsNegativeRetries(t *testing.T) {
	cfg := &Config{Timeout: time.Second, Retries: -1}
	assert.Error(t, Validate(cfg))
}

func TestValidateRejectsNegativeTimeout(t *testing.T) {
	cfg := &Config{Timeout: -time.Second}
	assert.Error(t, Validate(cfg))
}

func TestValidateRejectsUnknownLogLevel(t *testing.T) {
	cfg := &Config{Log: LogConfig{Level: "loud"}}
	assert.Error(t, Validate(cfg))
}

func TestLoadBytesRejectsInvalidValues(t *testing.T) {
	_, err := LoadBytes([]byte("retries: -2\n"))
	assert.Error(t, err)
}
