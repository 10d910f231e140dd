package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vince095/HeatmapSDK/internal/gesture"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{EnvBaseURL, EnvDBPath, EnvLogLevel, EnvLogFormat, EnvFlushInterval} {
		t.Setenv(k, "")
	}
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, gesture.DefaultConfig(), cfg.GestureConfig())
	assert.Equal(t, "heatmap.db", cfg.Store.Path)
	assert.False(t, cfg.Wire.IncludeHorizontalSwipeEnd)
	assert.Error(t, cfg.RequireBaseURL())
}

func TestLoad_EmptyPathUsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, "<defaults>", cfg.Source)
	assert.Equal(t, Default().Store, cfg.Store)
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)
	path := filepath.Join("testdata", "full.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, path, cfg.Source)
	assert.Equal(t, "https://ingest.example.com/api", cfg.API.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.API.Timeout)
	assert.Equal(t, "demo-app/2.1", cfg.API.UserAgent)
	assert.Equal(t, 10000, cfg.Store.MaxBacklog)
	assert.Equal(t, gesture.Config{
		MinDistance:    150,
		MinVelocity:    200,
		TouchSlop:      12,
		TapTimeout:     300 * time.Millisecond,
		VelocityWindow: 80 * time.Millisecond,
		MinScrollDelta: 2,
	}, cfg.GestureConfig())
	assert.Equal(t, FlushConfig{Interval: time.Minute, MaxBatchSize: 500}, cfg.Flush)
	assert.True(t, cfg.Wire.IncludeHorizontalSwipeEnd)
	assert.Equal(t, LoggingConfig{Level: "debug", Format: "json"}, cfg.Logging)
	assert.NoError(t, cfg.RequireBaseURL())
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "partial.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store:\n  path: other.db\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "other.db", cfg.Store.Path)
	assert.Equal(t, 30*time.Second, cfg.API.Timeout)
	assert.Equal(t, 120.0, cfg.Gesture.MinDistance)
}

func TestLoad_EmptyFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	_, err := Load(path)
	assert.NoError(t, err)
}

func TestLoad_UnknownKeyRejected(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join("testdata", "unknown_key.yaml"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "retries")
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvBaseURL, "http://localhost:8080")
	t.Setenv(EnvDBPath, "/tmp/env.db")
	t.Setenv(EnvLogLevel, "WARN")
	t.Setenv(EnvLogFormat, "json")
	t.Setenv(EnvFlushInterval, "15s")

	cfg, err := Load(filepath.Join("testdata", "full.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080", cfg.API.BaseURL)
	assert.Equal(t, "/tmp/env.db", cfg.Store.Path)
	assert.Equal(t, "WARN", cfg.Logging.Level)
	assert.Equal(t, 15*time.Second, cfg.Flush.Interval)
}

func TestLoad_BadEnvInterval(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvFlushInterval, "soon")

	_, err := Load("")
	assert.ErrorContains(t, err, EnvFlushInterval)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"bad scheme", func(c *Config) { c.API.BaseURL = "ftp://x" }, "unsupported scheme"},
		{"missing host", func(c *Config) { c.API.BaseURL = "http://" }, "missing host"},
		{"zero timeout", func(c *Config) { c.API.Timeout = 0 }, "api.timeout"},
		{"empty store path", func(c *Config) { c.Store.Path = " " }, "store.path"},
		{"negative backlog", func(c *Config) { c.Store.MaxBacklog = -1 }, "max_backlog"},
		{"negative interval", func(c *Config) { c.Flush.Interval = -time.Second }, "flush.interval"},
		{"negative batch", func(c *Config) { c.Flush.MaxBatchSize = -1 }, "max_batch_size"},
		{"negative threshold", func(c *Config) { c.Gesture.MinVelocity = -1 }, "thresholds"},
		{"negative duration", func(c *Config) { c.Gesture.TapTimeout = -1 }, "durations"},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }, "log level"},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }, "log format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.wantErr)
		})
	}
}

func TestNormalize(t *testing.T) {
	l, err := NormalizeLogLevel(" Warning ")
	require.NoError(t, err)
	assert.Equal(t, "warn", l)

	f, err := NormalizeFormat("Console")
	require.NoError(t, err)
	assert.Equal(t, "text", f)
}
