package engine

import "errors"

// ErrStopped is returned for requests made after the engine stopped, and to
// flush waiters whose upload had not finished when it stopped.
var ErrStopped = errors.New("engine stopped")
