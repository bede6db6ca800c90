package lanzou

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abcdream-Lary/g-to-lan/internal/console"
)

// noopSleep skips inter-page delays in tests.
func noopSleep(_ context.Context, _ time.Duration) error {
	return nil
}

// newTestSession creates a Session pointed at a test server, with delays
// disabled and diagnostics discarded.
func newTestSession(t *testing.T, baseURL string) *Session {
	t.Helper()

	s, err := NewSession(Options{
		BaseURL:    baseURL,
		LoginURL:   baseURL + "/mlogin.php",
		DiskURL:    baseURL + "/mydisk.php",
		UserAgent:  "test-agent",
		UID:        "1001",
		Username:   "user@example.com",
		Password:   "hunter2",
		CookiePath: filepath.Join(t.TempDir(), "cookies.json"),
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		Console:    console.Discard(),
	})
	require.NoError(t, err)

	s.sleepFunc = noopSleep

	return s
}

// authedTestSession returns a test session already past authentication.
func authedTestSession(t *testing.T, baseURL string) *Session {
	t.Helper()

	s := newTestSession(t, baseURL)
	s.authenticated = true

	return s
}

func TestDoTask_SendsProtocolEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/doupload.php", r.URL.Path)
		// Account id travels in the query string, not the form body.
		assert.Equal(t, "1001", r.URL.Query().Get("uid"))
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		assert.Contains(t, r.Header.Get("Accept"), "application/json")

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "47", r.PostForm.Get("task"))
		assert.Equal(t, "-1", r.PostForm.Get("folder_id"))

		fmt.Fprint(w, `{"zt":1,"info":"ok","text":[]}`)
	}))
	defer srv.Close()

	s := authedTestSession(t, srv.URL)

	envelope, err := s.doTask(context.Background(), listFoldersTask(RootFolderID))
	require.NoError(t, err)
	assert.Equal(t, 1, envelope.Status)
}

func TestDoTask_StatusSentinelRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"zt":0,"info":"文件夹名重复","text":""}`)
	}))
	defer srv.Close()

	s := authedTestSession(t, srv.URL)

	_, err := s.doTask(context.Background(), createFolderTask(RootFolderID, "dup"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRemoteRejected)
	// The server-reported reason must surface in the message.
	assert.Contains(t, err.Error(), "文件夹名重复")
}

func TestDoTask_ListFoldersSkipsSentinelCheck(t *testing.T) {
	// The folder-listing task is served without a meaningful zt field.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"zt":0,"info":null,"text":[{"name":"a","fol_id":"7"}]}`)
	}))
	defer srv.Close()

	s := authedTestSession(t, srv.URL)

	envelope, err := s.doTask(context.Background(), listFoldersTask(RootFolderID))
	require.NoError(t, err)
	assert.NotEmpty(t, envelope.Text)
}

func TestDoTask_HTTPFailureIsTransport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	s := authedTestSession(t, srv.URL)

	_, err := s.doTask(context.Background(), listFilesTask("42", 1))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransport)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
}

func TestDoTask_UnparseableBodyIsProtocol(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "<html>login page</html>")
	}))
	defer srv.Close()

	s := authedTestSession(t, srv.URL)

	_, err := s.doTask(context.Background(), listFilesTask("42", 1))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProtocol)
}

func TestUnauthenticated_FailsFastWithoutNetwork(t *testing.T) {
	var hits int

	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		hits++
	}))
	defer srv.Close()

	s := newTestSession(t, srv.URL)
	ctx := context.Background()

	assert.Empty(t, s.ListFolders(ctx, RootFolderID))
	assert.Empty(t, s.ListFiles(ctx, "42"))
	assert.False(t, s.FileExists(ctx, "42", "x.zip"))

	_, err := s.CreateFolder(ctx, "x", RootFolderID)
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	_, err = s.EnsureFolder(ctx, "a/b")
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	assert.Zero(t, hits, "unauthenticated operations must not touch the network")
}

func TestAPIError_Message(t *testing.T) {
	withReason := &APIError{Op: "upload", Reason: "capacity exceeded", Err: ErrRemoteRejected}
	assert.Equal(t, "lanzou: upload: capacity exceeded", withReason.Error())

	withStatus := &APIError{Op: "login", Status: 502, Err: ErrTransport}
	assert.Equal(t, "lanzou: login: HTTP 502", withStatus.Error())

	bare := &APIError{Op: "list files", Err: ErrNotAuthenticated}
	assert.Equal(t, "lanzou: list files failed", bare.Error())
}
