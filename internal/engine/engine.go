package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Vince095/HeatmapSDK/internal/event"
	"github.com/Vince095/HeatmapSDK/internal/heatmap"
	"github.com/Vince095/HeatmapSDK/internal/session"
	"github.com/Vince095/HeatmapSDK/internal/store"
	"github.com/Vince095/HeatmapSDK/internal/syncclient"
)

// DefaultUploadTimeout bounds a single upload when no option overrides it.
const DefaultUploadTimeout = 30 * time.Second

// Uploader delivers a batch. Implemented by *syncclient.Client.
type Uploader interface {
	Upload(ctx context.Context, b syncclient.Batch) error
}

// IdentitySource provides the identity attached to a flush snapshot.
// Implemented by *session.State.
type IdentitySource interface {
	Snapshot() session.Identity
}

// FlushResult summarizes one flush.
type FlushResult struct {
	// Events is the number of rows in the uploaded snapshot. Zero means the
	// queue was empty and nothing was sent.
	Events int
	// Deleted is the number of rows removed after the upload was confirmed.
	Deleted int64
	// BatchKey is the idempotency key of the snapshot.
	BatchKey string
}

type flushReply struct {
	result FlushResult
	err    error
}

type uploadOutcome struct {
	batch syncclient.Batch
	err   error
}

// Engine is the single writer of the event queue.
//
// Thread-safety model:
//   - Append, Flush, FlushWait, Heatmap, Pending, Stop: safe from any goroutine
//   - Run: must be called from exactly one goroutine
//
// All other fields below mailbox are owned by the Run goroutine.
type Engine struct {
	queue    *store.Queue
	uploader Uploader
	identity IdentitySource
	logger   *slog.Logger

	flushInterval time.Duration
	maxBacklog    int
	maxBatchSize  int
	uploadTimeout time.Duration

	mailbox *mailbox
	running atomic.Bool
	done    chan struct{}
	uploads sync.WaitGroup

	inFlight        bool
	inFlightWaiters []chan flushReply
	pending         bool
	pendingWaiters  []chan flushReply
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithFlushInterval enables a periodic flush. Zero disables it (default).
func WithFlushInterval(d time.Duration) Option {
	return func(e *Engine) { e.flushInterval = d }
}

// WithMaxBacklog caps the number of queued rows; the oldest rows are evicted
// after an append that exceeds it. Zero means unbounded (default).
func WithMaxBacklog(n int) Option {
	return func(e *Engine) { e.maxBacklog = n }
}

// WithMaxBatchSize caps the rows per upload; the rest wait for the next
// flush. Zero sends the whole queue (default).
func WithMaxBatchSize(n int) Option {
	return func(e *Engine) { e.maxBatchSize = n }
}

// WithUploadTimeout bounds each upload. Default: DefaultUploadTimeout.
func WithUploadTimeout(d time.Duration) Option {
	return func(e *Engine) { e.uploadTimeout = d }
}

// New creates an Engine over q. Run must be started before submitted
// commands are processed.
func New(q *store.Queue, up Uploader, id IdentitySource, opts ...Option) *Engine {
	e := &Engine{
		queue:         q,
		uploader:      up,
		identity:      id,
		logger:        slog.Default(),
		uploadTimeout: DefaultUploadTimeout,
		mailbox:       newMailbox(),
		done:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Append submits e for persistence and returns immediately. Appends are
// written in submission order. Returns ErrStopped after Stop.
func (e *Engine) Append(ev event.InteractionEvent) error {
	if !e.mailbox.Enqueue(command{Type: cmdAppend, Event: ev}) {
		return ErrStopped
	}
	return nil
}

// Flush requests a flush without waiting for its outcome.
func (e *Engine) Flush() {
	if !e.mailbox.Enqueue(command{Type: cmdFlush}) {
		e.logger.Debug("flush ignored: engine stopped")
	}
}

// FlushWait requests a flush and waits for the upload it joins to finish.
// A request made while an upload is in flight waits for the follow-up flush.
func (e *Engine) FlushWait(ctx context.Context) (FlushResult, error) {
	reply := make(chan flushReply, 1)
	r, err := request(ctx, e, command{Type: cmdFlush, FlushReply: reply}, reply)
	if err != nil {
		return FlushResult{}, err
	}
	return r.result, r.err
}

// Heatmap aggregates the queued rows recorded on screen.
func (e *Engine) Heatmap(ctx context.Context, screen string) (heatmap.Data, error) {
	reply := make(chan heatmapReply, 1)
	screen = event.NormalizeScreenName(screen)
	r, err := request(ctx, e, command{Type: cmdHeatmap, Screen: screen, HeatmapReply: reply}, reply)
	if err != nil {
		return heatmap.Data{}, err
	}
	return r.data, r.err
}

// Pending returns the number of queued rows once every previously submitted
// append has been written.
func (e *Engine) Pending(ctx context.Context) (int, error) {
	reply := make(chan countReply, 1)
	r, err := request(ctx, e, command{Type: cmdCount, CountReply: reply}, reply)
	if err != nil {
		return 0, err
	}
	return r.n, r.err
}

// request enqueues c and waits for its reply.
func request[T any](ctx context.Context, e *Engine, c command, reply <-chan T) (T, error) {
	var zero T
	if !e.mailbox.Enqueue(c) {
		return zero, ErrStopped
	}
	select {
	case r := <-reply:
		return r, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	case <-e.done:
		// Run replies before closing done, so a reply may be waiting.
		select {
		case r := <-reply:
			return r, nil
		default:
			return zero, ErrStopped
		}
	}
}

// Stop closes the mailbox. Run processes the commands already queued, then
// returns. Uploads still in flight are cancelled and their rows stay queued.
func (e *Engine) Stop() {
	e.mailbox.Close()
}

// Done is closed when Run has returned.
func (e *Engine) Done() <-chan struct{} {
	return e.done
}

// Run starts the single-writer loop. It blocks until ctx is cancelled or
// Stop is called, and in both cases drains the mailbox before returning.
//
// CRITICAL: Must be called from exactly ONE goroutine.
//
// Store failures are logged and the command is treated as failed; the loop
// never stops because of one.
func (e *Engine) Run(ctx context.Context) error {
	if !e.running.CompareAndSwap(false, true) {
		return errors.New("engine: Run called twice")
	}
	defer close(e.done)

	loopCtx, cancelUploads := context.WithCancel(ctx)
	defer func() {
		cancelUploads()
		e.uploads.Wait()
	}()

	e.logger.Info("engine starting",
		"flush_interval", e.flushInterval,
		"max_backlog", e.maxBacklog,
		"max_batch_size", e.maxBatchSize,
	)

	var tick <-chan time.Time
	if e.flushInterval > 0 {
		ticker := time.NewTicker(e.flushInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		if c, ok := e.mailbox.TryDequeue(); ok {
			e.process(loopCtx, c)
			continue
		}

		select {
		case <-ctx.Done():
			e.logger.Info("engine stopping: context cancelled")
			e.mailbox.Close()
			e.drain(loopCtx)
			e.shutdown()
			return ctx.Err()

		case <-tick:
			e.logger.Debug("periodic flush")
			e.requestFlush(loopCtx, nil)

		case <-e.mailbox.Wait():
			// The signal channel is closed by Close, so this fires
			// immediately once stopped.
			if e.mailbox.Closed() && e.mailbox.Len() == 0 {
				e.logger.Info("engine stopping: mailbox closed")
				e.shutdown()
				return nil
			}
		}
	}
}

// drain processes the commands that were queued before the mailbox closed.
func (e *Engine) drain(ctx context.Context) {
	for {
		c, ok := e.mailbox.TryDequeue()
		if !ok {
			return
		}
		e.process(ctx, c)
	}
}

// shutdown answers flush waiters whose upload will not be handled.
func (e *Engine) shutdown() {
	e.reply(e.inFlightWaiters, FlushResult{}, ErrStopped)
	e.reply(e.pendingWaiters, FlushResult{}, ErrStopped)
	e.inFlightWaiters, e.pendingWaiters = nil, nil
	e.pending = false
}

// process routes a command to its handler.
// CRITICAL: Called only from the Run goroutine.
func (e *Engine) process(ctx context.Context, c command) {
	// Store work during drain must not be cut short by the caller's cancel.
	sctx := context.WithoutCancel(ctx)

	switch c.Type {
	case cmdAppend:
		e.handleAppend(sctx, c.Event)

	case cmdFlush:
		if e.mailbox.Closed() {
			e.reply(waitersOf(c.FlushReply), FlushResult{}, ErrStopped)
			return
		}
		e.requestFlush(ctx, c.FlushReply)

	case cmdUploadDone:
		e.handleUploadDone(ctx, c.Upload)

	case cmdHeatmap:
		rows, err := e.queue.ReadScreen(sctx, c.Screen)
		if err != nil {
			e.logger.Error("heatmap read failed", "screen", c.Screen, "error", err)
			c.HeatmapReply <- heatmapReply{err: err}
			return
		}
		c.HeatmapReply <- heatmapReply{data: heatmap.Build(c.Screen, rows)}

	case cmdCount:
		n, err := e.queue.Count(sctx)
		c.CountReply <- countReply{n: n, err: err}

	default:
		e.logger.Error("unknown command", "type", int(c.Type))
	}
}

// handleAppend persists one event and enforces the backlog cap.
func (e *Engine) handleAppend(ctx context.Context, ev event.InteractionEvent) {
	id, err := e.queue.Append(ctx, ev)
	if err != nil {
		e.logger.Error("event append failed",
			"kind", ev.Kind,
			"screen", ev.ScreenName,
			"timestamp", ev.Timestamp,
			"error", err,
		)
		return
	}
	e.logger.Debug("event appended", "id", id, "kind", ev.Kind, "screen", ev.ScreenName)

	if e.maxBacklog <= 0 {
		return
	}
	evicted, err := e.queue.TrimOldest(ctx, e.maxBacklog)
	if err != nil {
		e.logger.Error("backlog trim failed", "error", err)
		return
	}
	if evicted > 0 {
		e.logger.Warn("backlog cap reached, oldest events evicted",
			"evicted", evicted,
			"max_backlog", e.maxBacklog,
		)
	}
}

func waitersOf(reply chan flushReply) []chan flushReply {
	if reply == nil {
		return nil
	}
	return []chan flushReply{reply}
}

func (e *Engine) reply(waiters []chan flushReply, r FlushResult, err error) {
	for _, w := range waiters {
		w <- flushReply{result: r, err: err}
	}
}
