// Package config loads SDK and CLI settings from a YAML file and HEATMAP_*
// environment variables.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Vince095/HeatmapSDK/internal/gesture"
)

// Environment variables that override file values.
const (
	EnvBaseURL       = "HEATMAP_BASE_URL"
	EnvDBPath        = "HEATMAP_DB_PATH"
	EnvLogLevel      = "HEATMAP_LOG_LEVEL"
	EnvLogFormat     = "HEATMAP_LOG_FORMAT"
	EnvFlushInterval = "HEATMAP_FLUSH_INTERVAL"
)

// Config holds all settings.
type Config struct {
	API     APIConfig     `yaml:"api"`
	Store   StoreConfig   `yaml:"store"`
	Gesture GestureConfig `yaml:"gesture"`
	Flush   FlushConfig   `yaml:"flush"`
	Wire    WireConfig    `yaml:"wire"`
	Logging LoggingConfig `yaml:"logging"`

	// Source indicates where the configuration originated.
	Source string `yaml:"-"`
}

// APIConfig locates the ingest service.
type APIConfig struct {
	BaseURL   string        `yaml:"base_url"`
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
}

// StoreConfig controls the local queue database.
type StoreConfig struct {
	Path       string `yaml:"path"`
	MaxBacklog int    `yaml:"max_backlog"` // 0 = unbounded
}

// GestureConfig mirrors gesture.Config.
type GestureConfig struct {
	MinDistance    float64       `yaml:"min_distance"`
	MinVelocity    float64       `yaml:"min_velocity"`
	TouchSlop      float64       `yaml:"touch_slop"`
	TapTimeout     time.Duration `yaml:"tap_timeout"`
	VelocityWindow time.Duration `yaml:"velocity_window"`
	MinScrollDelta float64       `yaml:"min_scroll_delta"`
}

// FlushConfig controls upload scheduling.
type FlushConfig struct {
	Interval     time.Duration `yaml:"interval"`       // 0 = manual only
	MaxBatchSize int           `yaml:"max_batch_size"` // 0 = whole queue
}

// WireConfig controls the ingest payload shape.
type WireConfig struct {
	IncludeHorizontalSwipeEnd bool `yaml:"include_horizontal_swipe_end"`
}

// LoggingConfig defines log verbosity and formatting.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the baseline configuration.
func Default() Config {
	g := gesture.DefaultConfig()
	return Config{
		API: APIConfig{
			Timeout:   30 * time.Second,
			UserAgent: "heatmap-sdk-go/1",
		},
		Store: StoreConfig{
			Path: "heatmap.db",
		},
		Gesture: GestureConfig{
			MinDistance:    g.MinDistance,
			MinVelocity:    g.MinVelocity,
			TouchSlop:      g.TouchSlop,
			TapTimeout:     g.TapTimeout,
			VelocityWindow: g.VelocityWindow,
			MinScrollDelta: g.MinScrollDelta,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Source: "<defaults>",
	}
}

// Load reads path over Default, applies environment overrides and
// validates. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()

	if p := strings.TrimSpace(path); p != "" {
		data, err := os.ReadFile(p)
		if err != nil {
			return cfg, fmt.Errorf("read config file %q: %w", p, err)
		}
		if err := decode(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file %q: %w", p, err)
		}
		cfg.Source = p
	}

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// decode rejects unknown keys so typos surface as errors.
func decode(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.API.BaseURL = getenv(EnvBaseURL, c.API.BaseURL)
	c.Store.Path = getenv(EnvDBPath, c.Store.Path)
	c.Logging.Level = getenv(EnvLogLevel, c.Logging.Level)
	c.Logging.Format = getenv(EnvLogFormat, c.Logging.Format)

	if v := os.Getenv(EnvFlushInterval); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvFlushInterval, err)
		}
		c.Flush.Interval = d
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Validate checks values are present and sensible. The base URL may be empty
// for commands that never upload; RequireBaseURL checks it separately.
func (c Config) Validate() error {
	if c.API.BaseURL != "" {
		if err := validateURL(c.API.BaseURL); err != nil {
			return err
		}
	}
	if c.API.Timeout <= 0 {
		return errors.New("api.timeout must be positive")
	}
	if strings.TrimSpace(c.Store.Path) == "" {
		return errors.New("store.path must not be empty")
	}
	if c.Store.MaxBacklog < 0 {
		return errors.New("store.max_backlog must not be negative")
	}
	if c.Flush.Interval < 0 {
		return errors.New("flush.interval must not be negative")
	}
	if c.Flush.MaxBatchSize < 0 {
		return errors.New("flush.max_batch_size must not be negative")
	}
	if c.Gesture.MinDistance < 0 || c.Gesture.MinVelocity < 0 || c.Gesture.TouchSlop < 0 || c.Gesture.MinScrollDelta < 0 {
		return errors.New("gesture thresholds must not be negative")
	}
	if c.Gesture.TapTimeout < 0 || c.Gesture.VelocityWindow < 0 {
		return errors.New("gesture durations must not be negative")
	}
	if _, err := NormalizeLogLevel(c.Logging.Level); err != nil {
		return err
	}
	if _, err := NormalizeFormat(c.Logging.Format); err != nil {
		return err
	}
	return nil
}

// RequireBaseURL reports an error when no ingest service is configured.
func (c Config) RequireBaseURL() error {
	if strings.TrimSpace(c.API.BaseURL) == "" {
		return fmt.Errorf("api.base_url is not set (or %s)", EnvBaseURL)
	}
	return nil
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("api.base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("api.base_url: unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("api.base_url: missing host")
	}
	return nil
}

// GestureConfig converts to the classifier's configuration.
func (c Config) GestureConfig() gesture.Config {
	return gesture.Config{
		MinDistance:    c.Gesture.MinDistance,
		MinVelocity:    c.Gesture.MinVelocity,
		TouchSlop:      c.Gesture.TouchSlop,
		TapTimeout:     c.Gesture.TapTimeout,
		VelocityWindow: c.Gesture.VelocityWindow,
		MinScrollDelta: c.Gesture.MinScrollDelta,
	}
}

// NormalizeLogLevel lowercases level and checks it is supported.
func NormalizeLogLevel(level string) (string, error) {
	l := strings.ToLower(strings.TrimSpace(level))
	switch l {
	case "debug", "info", "warn", "error":
		return l, nil
	case "warning":
		return "warn", nil
	}
	return "", fmt.Errorf("unsupported log level %q", level)
}

// NormalizeFormat lowercases format and checks it is supported.
func NormalizeFormat(format string) (string, error) {
	f := strings.ToLower(strings.TrimSpace(format))
	switch f {
	case "json", "text":
		return f, nil
	case "console":
		return "text", nil
	}
	return "", fmt.Errorf("unsupported log format %q", format)
}
