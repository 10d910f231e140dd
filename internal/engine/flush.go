package engine

import (
	"context"
	"fmt"

	"github.com/Vince095/HeatmapSDK/internal/syncclient"
)

// requestFlush starts a flush, or coalesces the request into the pending
// flush when an upload is already in flight.
// CRITICAL: Called only from the Run goroutine.
func (e *Engine) requestFlush(ctx context.Context, reply chan flushReply) {
	if e.inFlight {
		e.pending = true
		e.pendingWaiters = append(e.pendingWaiters, waitersOf(reply)...)
		e.logger.Debug("flush coalesced: upload in flight")
		return
	}
	e.startFlush(ctx, waitersOf(reply))
}

// startFlush snapshots the queue and hands the batch to an upload goroutine.
// The result comes back as a cmdUploadDone command.
func (e *Engine) startFlush(ctx context.Context, waiters []chan flushReply) {
	rows, err := e.queue.ReadOldest(context.WithoutCancel(ctx), e.maxBatchSize)
	if err != nil {
		e.logger.Error("flush snapshot failed", "error", err)
		e.reply(waiters, FlushResult{}, fmt.Errorf("snapshot queue: %w", err))
		return
	}
	if len(rows) == 0 {
		e.logger.Debug("no events to flush")
		e.reply(waiters, FlushResult{}, nil)
		return
	}

	batch := syncclient.NewBatch(rows, e.identity.Snapshot())
	e.inFlight = true
	e.inFlightWaiters = waiters

	e.logger.Info("flushing events",
		"events", len(rows),
		"batch_key", batch.Key,
		"anonymous", batch.Identity.Anonymous(),
	)

	e.uploads.Add(1)
	go func() {
		defer e.uploads.Done()

		uctx, cancel := context.WithTimeout(ctx, e.uploadTimeout)
		defer cancel()
		err := e.uploader.Upload(uctx, batch)

		if !e.mailbox.Enqueue(command{Type: cmdUploadDone, Upload: uploadOutcome{batch: batch, err: err}}) {
			e.logger.Warn("upload result discarded: engine stopped",
				"batch_key", batch.Key,
				"events", len(batch.Rows),
				"error", err,
			)
		}
	}()
}

// handleUploadDone applies an upload result: delete exactly the snapshot ids
// on success, keep everything on failure. Then starts the pending flush, if
// any.
// CRITICAL: Called only from the Run goroutine.
func (e *Engine) handleUploadDone(ctx context.Context, out uploadOutcome) {
	waiters := e.inFlightWaiters
	e.inFlight = false
	e.inFlightWaiters = nil

	res := FlushResult{Events: len(out.batch.Rows), BatchKey: out.batch.Key}

	if out.err != nil {
		e.logger.Error("flush failed, events retained",
			"events", res.Events,
			"batch_key", res.BatchKey,
			"error", out.err,
		)
		e.reply(waiters, res, out.err)
	} else {
		deleted, err := e.queue.DeleteBatch(context.WithoutCancel(ctx), out.batch.IDs())
		if err != nil {
			e.logger.Error("delete after upload failed",
				"batch_key", res.BatchKey,
				"error", err,
			)
			e.reply(waiters, res, fmt.Errorf("delete uploaded batch: %w", err))
		} else {
			res.Deleted = deleted
			e.logger.Info("flush complete",
				"events", res.Events,
				"deleted", deleted,
				"batch_key", res.BatchKey,
			)
			e.reply(waiters, res, nil)
		}
	}

	if e.pending && !e.mailbox.Closed() {
		next := e.pendingWaiters
		e.pending = false
		e.pendingWaiters = nil
		e.startFlush(ctx, next)
	}
}
