package heatmap

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/Vince095/HeatmapSDK/internal/gesture"
	"github.com/Vince095/HeatmapSDK/internal/session"
)

type options struct {
	dbPath            string
	logger            *slog.Logger
	gesture           gesture.Config
	flushInterval     time.Duration
	maxBacklog        int
	maxBatchSize      int
	timeout           time.Duration
	httpClient        *http.Client
	userAgent         string
	includeHorizontal bool
	capturer          Capturer
	renderer          Renderer
	now               func() time.Time
	idGen             session.IDGenerator
}

// Option configures an SDK.
type Option func(*options)

// WithDatabasePath sets the SQLite queue file. Default: "heatmap.db".
func WithDatabasePath(path string) Option {
	return func(o *options) { o.dbPath = path }
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithGestureConfig sets the classifier thresholds.
func WithGestureConfig(cfg GestureConfig) Option {
	return func(o *options) { o.gesture = cfg }
}

// WithFlushInterval enables periodic flushing. Default: disabled.
func WithFlushInterval(d time.Duration) Option {
	return func(o *options) { o.flushInterval = d }
}

// WithMaxBacklog caps the number of queued events; the oldest are evicted.
// Default: unbounded.
func WithMaxBacklog(n int) Option {
	return func(o *options) { o.maxBacklog = n }
}

// WithMaxBatchSize caps the events per upload. Default: whole queue.
func WithMaxBatchSize(n int) Option {
	return func(o *options) { o.maxBatchSize = n }
}

// WithTimeout sets the HTTP timeout for each upload. Default: 30s.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithHTTPClient replaces the HTTP client used for uploads.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithUserAgent sets the User-Agent sent with uploads.
func WithUserAgent(ua string) Option {
	return func(o *options) { o.userAgent = ua }
}

// WithHorizontalSwipeEnd sends end coordinates and intensity for
// SWIPE_LEFT and SWIPE_RIGHT too. Default: false.
func WithHorizontalSwipeEnd(enabled bool) Option {
	return func(o *options) { o.includeHorizontal = enabled }
}

// WithCapturer enables CaptureHeatmapScreenshot.
func WithCapturer(c Capturer) Option {
	return func(o *options) { o.capturer = c }
}

// WithRenderer sets the overlay renderer for CaptureHeatmapScreenshot.
func WithRenderer(r Renderer) Option {
	return func(o *options) { o.renderer = r }
}

// WithClock sets the time source for event timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithSessionIDGenerator sets how the client session id is produced.
// Default: UUIDv7.
func WithSessionIDGenerator(g session.IDGenerator) Option {
	return func(o *options) { o.idGen = g }
}

// WithConfig applies every setting of cfg except the base URL, which is
// passed to New.
func WithConfig(cfg Config) Option {
	return func(o *options) {
		o.dbPath = cfg.Store.Path
		o.maxBacklog = cfg.Store.MaxBacklog
		o.gesture = cfg.GestureConfig()
		o.flushInterval = cfg.Flush.Interval
		o.maxBatchSize = cfg.Flush.MaxBatchSize
		o.timeout = cfg.API.Timeout
		o.userAgent = cfg.API.UserAgent
		o.includeHorizontal = cfg.Wire.IncludeHorizontalSwipeEnd
	}
}

func defaultOptions() options {
	return options{
		dbPath:  "heatmap.db",
		logger:  slog.Default(),
		gesture: gesture.DefaultConfig(),
		timeout: 30 * time.Second,
		now:     time.Now,
		idGen:   session.UUIDv7Generator{},
	}
}
