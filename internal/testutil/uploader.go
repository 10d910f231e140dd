package testutil

import (
	"context"
	"sync"

	"github.com/Vince095/HeatmapSDK/internal/syncclient"
)

// Uploader is a scripted engine.Uploader that records every batch.
//
// Errors queued with FailNext are returned in order, one per upload; after
// they are used up uploads succeed. Hold blocks uploads until Release.
//
// Thread-safety: All methods are safe for concurrent use.
type Uploader struct {
	mu      sync.Mutex
	batches []syncclient.Batch
	errs    []error
	gate    chan struct{}
	started chan struct{}
}

// NewUploader creates an Uploader that accepts everything.
func NewUploader() *Uploader {
	return &Uploader{started: make(chan struct{}, 64)}
}

// Upload records b and returns the next scripted error, if any.
func (u *Uploader) Upload(ctx context.Context, b syncclient.Batch) error {
	u.mu.Lock()
	u.batches = append(u.batches, b)
	gate := u.gate
	var err error
	if len(u.errs) > 0 {
		err, u.errs = u.errs[0], u.errs[1:]
	}
	u.mu.Unlock()

	select {
	case u.started <- struct{}{}:
	default:
	}

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

// FailNext queues errors for the next uploads.
func (u *Uploader) FailNext(errs ...error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.errs = append(u.errs, errs...)
}

// Hold makes subsequent uploads block until Release.
func (u *Uploader) Hold() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.gate = make(chan struct{})
}

// Release unblocks held uploads.
func (u *Uploader) Release() {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.gate != nil {
		close(u.gate)
		u.gate = nil
	}
}

// Started receives once per upload, when it has been recorded.
func (u *Uploader) Started() <-chan struct{} {
	return u.started
}

// Batches returns the batches seen so far.
func (u *Uploader) Batches() []syncclient.Batch {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]syncclient.Batch{}, u.batches...)
}

// Calls returns the number of uploads attempted.
func (u *Uploader) Calls() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.batches)
}
