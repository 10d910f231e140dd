package cli

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ingest struct {
	mu     sync.Mutex
	paths  []string
	bodies [][]byte
	status int
}

func newIngest(t *testing.T, status int) (*ingest, *httptest.Server) {
	t.Helper()
	in := &ingest{status: status}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		in.mu.Lock()
		in.paths = append(in.paths, r.URL.Path)
		in.bodies = append(in.bodies, body)
		code := in.status
		in.mu.Unlock()
		w.WriteHeader(code)
	}))
	t.Cleanup(srv.Close)
	return in, srv
}

func (in *ingest) requests() ([]string, [][]byte) {
	in.mu.Lock()
	defer in.mu.Unlock()
	return append([]string{}, in.paths...), append([][]byte{}, in.bodies...)
}

func TestFlushCommand_UploadsAndDrains(t *testing.T) {
	in, srv := newIngest(t, http.StatusOK)
	db := seedQueue(t, touch("Home", 100, 200, 1000), swipeUp("Home", 2000))

	out, _, err := execute(t, "flush", "--db", db, "--base-url", srv.URL, "--user", "u1", "--token", "t1", "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Status string       `json:"status"`
		Data   FlushSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 2, resp.Data.Uploaded)
	assert.Equal(t, 0, resp.Data.Remaining)
	assert.NotEmpty(t, resp.Data.SessionID)

	paths, bodies := in.requests()
	require.Len(t, paths, 1)
	assert.Equal(t, "/ingest-events", paths[0])

	var payload struct {
		ID     *string          `json:"id"`
		Token  *string          `json:"token"`
		Events []map[string]any `json:"events"`
	}
	require.NoError(t, json.Unmarshal(bodies[0], &payload))
	require.NotNil(t, payload.ID)
	assert.Equal(t, "u1", *payload.ID)
	assert.Len(t, payload.Events, 2)

	out, _, err = execute(t, "queue", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "0 event(s) pending")
}

func TestFlushCommand_FailureRetainsEvents(t *testing.T) {
	_, srv := newIngest(t, http.StatusServiceUnavailable)
	db := seedQueue(t, touch("Home", 1, 1, 1000))

	out, _, err := execute(t, "flush", "--db", db, "--base-url", srv.URL)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "error E_STATUS:")

	out, _, err = execute(t, "queue", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "1 event(s) pending")
}

func TestFlushCommand_EmptyQueue(t *testing.T) {
	in, srv := newIngest(t, http.StatusOK)
	db := seedQueue(t)

	out, _, err := execute(t, "flush", "--db", db, "--base-url", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "uploaded 0 event(s), 0 remaining")

	paths, _ := in.requests()
	assert.Empty(t, paths)
}

func TestFlushCommand_RequiresBaseURL(t *testing.T) {
	db := seedQueue(t)

	_, _, err := execute(t, "flush", "--db", db)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
