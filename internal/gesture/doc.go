// Package gesture turns raw pointer samples into semantic interaction
// gestures.
//
// A Classifier consumes the samples of one contact at a time (down, zero or
// more moves, up) and decides per sample, synchronously, whether a gesture was
// recognised:
//
//   - TOUCH: the contact never left the touch slop and was released within
//     the tap timeout.
//   - SCROLL: once the contact leaves the touch slop it is a drag; every move
//     of at least MinScrollDelta reports start -> current.
//   - SWIPE_*: a drag released while still moving, whose displacement and
//     release velocity along the dominant axis exceed MinDistance and
//     MinVelocity.
//
// Ambiguous drags that meet neither swipe threshold are dropped. A cancelled
// contact (including a second pointer going down) produces nothing further.
//
// Classifier is not safe for concurrent use; it belongs to the goroutine that
// delivers input.
package gesture
