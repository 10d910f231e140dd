package session

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestState_StartsAnonymous(t *testing.T) {
	s := New()

	id := s.Snapshot()
	assert.True(t, id.Anonymous())
	assert.Nil(t, id.UserIDPtr())
}

func TestState_IdentifyAndClear(t *testing.T) {
	s := New()

	s.Identify("u1", "t1")
	id := s.Snapshot()
	assert.Equal(t, Identity{UserID: "u1", Token: "t1"}, id)
	require.NotNil(t, id.UserIDPtr())
	assert.Equal(t, "u1", *id.UserIDPtr())

	s.Clear()
	assert.True(t, s.Snapshot().Anonymous())
}

func TestState_IdentifyRejectsEmptyUser(t *testing.T) {
	s := New()
	require.NoError(t, s.Identify("u1", "t1"))

	err := s.Identify("", "t2")

	assert.ErrorIs(t, err, ErrEmptyUserID)
	assert.Equal(t, Identity{UserID: "u1", Token: "t1"}, s.Snapshot(), "identity unchanged")
}

func TestState_ZeroValueIsAnonymous(t *testing.T) {
	var s State
	assert.True(t, s.Snapshot().Anonymous())
}

func TestState_SnapshotNeverTorn(t *testing.T) {
	s := New()
	pairs := []Identity{{UserID: "a", Token: "ta"}, {UserID: "b", Token: "tb"}}

	var wg sync.WaitGroup
	stop := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			p := pairs[i%2]
			s.Identify(p.UserID, p.Token)
		}
	}()

	for i := 0; i < 10000; i++ {
		id := s.Snapshot()
		if id.Anonymous() {
			continue
		}
		assert.Equal(t, "t"+id.UserID, id.Token, "identity must never mix fields")
	}
	close(stop)
	wg.Wait()
}
