package engine

import (
	"sync"

	"github.com/Vince095/HeatmapSDK/internal/event"
	"github.com/Vince095/HeatmapSDK/internal/heatmap"
)

// commandType distinguishes mailbox commands.
type commandType int

const (
	// cmdAppend persists one event.
	cmdAppend commandType = iota + 1
	// cmdFlush requests a flush; reply is optional.
	cmdFlush
	// cmdUploadDone carries an upload result back to the loop.
	cmdUploadDone
	// cmdHeatmap aggregates the queued rows of one screen.
	cmdHeatmap
	// cmdCount reports the number of queued rows.
	cmdCount
)

func (t commandType) String() string {
	switch t {
	case cmdAppend:
		return "append"
	case cmdFlush:
		return "flush"
	case cmdUploadDone:
		return "upload_done"
	case cmdHeatmap:
		return "heatmap"
	case cmdCount:
		return "count"
	}
	return "unknown"
}

// command is one unit of work for the Run loop. Only the fields relevant to
// Type are set.
type command struct {
	Type commandType

	Event event.InteractionEvent // cmdAppend

	FlushReply chan flushReply // cmdFlush, may be nil

	Upload uploadOutcome // cmdUploadDone

	Screen       string            // cmdHeatmap
	HeatmapReply chan heatmapReply // cmdHeatmap

	CountReply chan countReply // cmdCount
}

type heatmapReply struct {
	data heatmap.Data
	err  error
}

type countReply struct {
	n   int
	err error
}

// mailbox is a thread-safe unbounded FIFO of commands.
//
// The mailbox is unbounded so that Recorder never blocks the input goroutine.
// It uses a buffered signal channel for context-aware waiting in the Run loop.
type mailbox struct {
	mu     sync.Mutex
	cmds   []command
	closed bool
	signal chan struct{} // Signals command availability (buffered, size 1)
}

func newMailbox() *mailbox {
	return &mailbox{
		cmds:   make([]command, 0, 64),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue adds a command to the back of the mailbox.
// Thread-safe: may be called from any goroutine.
// Returns false if the mailbox is closed.
func (m *mailbox) Enqueue(c command) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return false
	}

	m.cmds = append(m.cmds, c)

	// Non-blocking: a buffer of 1 coalesces multiple signals.
	select {
	case m.signal <- struct{}{}:
	default:
	}

	return true
}

// TryDequeue removes the front command without blocking.
// Returns (command{}, false) if the mailbox is empty.
func (m *mailbox) TryDequeue() (command, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.cmds) == 0 {
		return command{}, false
	}

	c := m.cmds[0]

	// Nil out the slot so reply channels and events can be collected.
	m.cmds[0] = command{}

	if len(m.cmds) == 1 {
		m.cmds = m.cmds[:0]
	} else {
		m.cmds = m.cmds[1:]
	}

	return c, true
}

// Wait returns a channel that signals when commands may be available.
// The channel is closed when the mailbox is closed.
func (m *mailbox) Wait() <-chan struct{} {
	return m.signal
}

// Len returns the number of queued commands.
func (m *mailbox) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.cmds)
}

// Closed reports whether Close has been called.
func (m *mailbox) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Close rejects further commands and wakes the waiter. Commands already
// queued remain available to TryDequeue.
func (m *mailbox) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}

	m.closed = true
	close(m.signal)
}
