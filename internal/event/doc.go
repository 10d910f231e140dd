// Package event defines the interaction event model shared by every stage of
// the capture pipeline.
//
// This package contains type definitions and pure helpers only. All other
// internal packages import event; event imports nothing internal, so it stays
// the foundational layer with no circular dependencies.
//
// Key constraints:
//   - End coordinates are present iff the kind is SCROLL or SWIPE_*
//   - Screen names are non-empty and NFC-normalized
//   - Timestamps are epoch milliseconds stamped when the event is recorded
//   - JSON tags use snake_case
package event
