// Package harness runs scripted pointer sessions through the real capture,
// recording and flush pipeline and checks the outcome.
//
// # Script Format
//
// Scripts are YAML files:
//
//	name: tap_then_identify
//	description: "An anonymous tap is uploaded under the later identity"
//	steps:
//	  - attach: Home
//	  - samples:
//	      - {action: down, x: 100, y: 200, pressure: 0.5, at: 0}
//	      - {action: up, x: 100, y: 200, pressure: 0.5, at: 50}
//	  - record: {kind: SWIPE_LEFT, screen: Home, x: 500, y: 300, end_x: 100, end_y: 310, intensity: 0.8, at: 80}
//	  - fail_uploads: 1
//	  - identify: {user: u1, token: t1}
//	  - flush: true
//	assertions:
//	  - {type: pending, count: 0}
//	  - {type: upload_count, count: 2}
//	  - {type: trace_contains, event: gesture, kind: TOUCH, screen: Home}
//	  - {type: heatmap, screen: Home, points: 1, swipes: 1}
//
// Each step sets exactly one field. "at" is milliseconds after the fixed
// start time. Identify waits for the flush it triggers, so traces are
// deterministic.
//
// # Assertion Types
//
//   - pending: number of events left in the queue
//   - upload_count: number of upload attempts
//   - trace_count: number of trace events of a type
//   - trace_contains: a trace event with matching type, kind and screen
//   - heatmap: point and swipe counts for a screen
//
// # Determinism
//
// Every run uses a fresh in-memory queue, a fake clock starting at
// testutil.Epoch and a scripted uploader, so traces can be compared with
// golden files (see RunWithGolden).
package harness
