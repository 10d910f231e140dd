// Package engine owns the durable event queue and coordinates flushes.
//
// ARCHITECTURE:
//
// Single-Writer Event Loop:
// Every queue access runs in one goroutine (Engine.Run). Other goroutines
// submit commands through a FIFO mailbox and, where they need an answer,
// wait on a reply channel. This gives appends, snapshots and deletes a total
// order without locking the store.
//
// Command Processing Flow:
//  1. Recorder submits append commands from the input goroutine
//  2. Flush requests (explicit, after identify, or periodic) are enqueued
//  3. A flush snapshots the queue and starts the upload on its own goroutine
//  4. The upload result is posted back as a command
//  5. On success exactly the snapshot ids are deleted; on failure nothing is
//
// Single-Flight:
// At most one upload is in flight. Flush requests that arrive meanwhile are
// coalesced into a single pending flush, started when the in-flight result
// has been handled. Its snapshot therefore excludes rows just deleted.
//
// Clock:
// Event timestamps come from Clock, which never returns the same millisecond
// twice, so (timestamp, id) order equals submission order.
package engine
