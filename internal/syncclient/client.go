// Package syncclient uploads event batches and screenshots to the ingest
// service.
//
// Uploads are single attempts: a failure leaves the batch queued and the
// next flush re-sends it under the same Idempotency-Key.
package syncclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/Vince095/HeatmapSDK/internal/event"
	"github.com/Vince095/HeatmapSDK/internal/session"
)

const (
	ingestPath     = "/ingest-events"
	screenshotPath = "/upload-screenshot"

	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "heatmap-sdk-go/1"
)

// Client posts to the ingest service.
//
// Thread-safety: Client is safe for concurrent use.
type Client struct {
	baseURL           string
	httpClient        *http.Client
	userAgent         string
	sessionID         string
	includeHorizontal bool
	now               func() time.Time
	logger            *slog.Logger
}

// Option configures Client behavior.
type Option func(*Client)

// WithTimeout sets the HTTP client timeout. Default: 30s.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithSessionID sets the X-Client-Session header sent with every request.
func WithSessionID(id string) Option {
	return func(c *Client) { c.sessionID = id }
}

// WithHorizontalSwipeEnd makes SWIPE_LEFT and SWIPE_RIGHT carry end
// coordinates and intensity like the vertical kinds. Default: false.
func WithHorizontalSwipeEnd(enabled bool) Option {
	return func(c *Client) { c.includeHorizontal = enabled }
}

// WithClock sets the time source used for screenshot file names.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a Client for the service rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		userAgent:  defaultUserAgent,
		now:        time.Now,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Upload POSTs b to the ingest-events endpoint. It returns nil only on a 2xx
// response; otherwise the error is an *UploadError. An empty batch is a no-op.
func (c *Client) Upload(ctx context.Context, b Batch) error {
	if len(b.Rows) == 0 {
		return nil
	}

	body, err := encodeBatch(b, c.includeHorizontal)
	if err != nil {
		return encodeError(fmt.Errorf("encode batch: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+ingestPath, bytes.NewReader(body))
	if err != nil {
		return encodeError(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", b.Key)

	if err := c.do(req); err != nil {
		return err
	}

	c.logger.Debug("batch uploaded",
		"events", len(b.Rows),
		"batch_key", b.Key,
		"anonymous", b.Identity.Anonymous(),
	)
	return nil
}

// UploadScreenshot POSTs a PNG for screenName as a multipart form. It fails
// with ErrNoIdentity, without any network call, when id is anonymous.
func (c *Client) UploadScreenshot(ctx context.Context, png []byte, screenName string, id session.Identity) error {
	if id.Anonymous() || id.Token == "" {
		return ErrNoIdentity
	}
	screenName = event.NormalizeScreenName(screenName)
	if screenName == "" {
		return encodeError(event.ErrEmptyScreen)
	}

	body, contentType, err := c.encodeScreenshot(png, screenName, id)
	if err != nil {
		return encodeError(fmt.Errorf("encode screenshot: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+screenshotPath, body)
	if err != nil {
		return encodeError(err)
	}
	req.Header.Set("Content-Type", contentType)

	if err := c.do(req); err != nil {
		return err
	}

	c.logger.Debug("screenshot uploaded", "screen", screenName, "bytes", len(png))
	return nil
}

func (c *Client) encodeScreenshot(png []byte, screenName string, id session.Identity) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := [][2]string{
		{"id", id.UserID},
		{"token", id.Token},
		{"screen_name", screenName},
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, "", err
		}
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="screenshot"; filename="screenshot_%d.png"`, c.now().UnixMilli()))
	h.Set("Content-Type", "image/png")
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(png); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

// do sends req and classifies the outcome.
func (c *Client) do(req *http.Request) error {
	req.Header.Set("User-Agent", c.userAgent)
	if c.sessionID != "" {
		req.Header.Set("X-Client-Session", c.sessionID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return transportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return transportError(fmt.Errorf("read error body: %w", err))
	}
	return statusError(resp.StatusCode, body)
}
