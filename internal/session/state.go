// Package session holds the process-wide user identity attached to recorded
// events and uploads.
package session

import (
	"errors"
	"sync/atomic"
)

// ErrEmptyUserID is returned by Identify when userID is empty. Use Clear to
// drop the identity.
var ErrEmptyUserID = errors.New("user id is empty")

// Identity is the (user id, auth token) pair. The zero value is anonymous.
type Identity struct {
	UserID string
	Token  string
}

// Anonymous reports whether no user has been identified.
func (id Identity) Anonymous() bool {
	return id.UserID == ""
}

// UserIDPtr returns the user id for persistence, or nil when anonymous.
func (id Identity) UserIDPtr() *string {
	if id.Anonymous() {
		return nil
	}
	u := id.UserID
	return &u
}

// State stores the current Identity. Identify and Clear replace the pair as a
// single value, so a reader never observes a new user id with an old token.
type State struct {
	current atomic.Pointer[Identity]
}

// New returns an anonymous State.
func New() *State {
	s := &State{}
	s.current.Store(&Identity{})
	return s
}

// Identify sets both fields of the identity. The current identity is left
// unchanged when userID is empty.
func (s *State) Identify(userID, token string) error {
	if userID == "" {
		return ErrEmptyUserID
	}
	s.current.Store(&Identity{UserID: userID, Token: token})
	return nil
}

// Clear resets to anonymous. Events already recorded keep their user id.
func (s *State) Clear() {
	s.current.Store(&Identity{})
}

// Snapshot returns a copy of the current identity.
func (s *State) Snapshot() Identity {
	if id := s.current.Load(); id != nil {
		return *id
	}
	return Identity{}
}
