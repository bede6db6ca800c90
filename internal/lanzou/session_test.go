package lanzou

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abcdream-Lary/g-to-lan/internal/cookiejar"
)

func TestLogin_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/mlogin.php", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "3", r.PostForm.Get("task"))
		assert.Equal(t, "user@example.com", r.PostForm.Get("uid"))
		assert.Equal(t, "hunter2", r.PostForm.Get("pwd"))
		// The web login form sends these placeholders even when empty.
		assert.Contains(t, r.PostForm, "formhash")

		http.SetCookie(w, &http.Cookie{Name: "phpdisk_info", Value: "tok123"})
		fmt.Fprint(w, `{"zt":1,"info":"login ok"}`)
	}))
	defer srv.Close()

	s := newTestSession(t, srv.URL)

	require.NoError(t, s.Login(context.Background()))
	assert.True(t, s.Authenticated())

	// Cookies were persisted for the next run.
	cookies, err := cookiejar.Load(s.cookiePath)
	require.NoError(t, err)
	require.Len(t, cookies, 1)
	assert.Equal(t, "phpdisk_info", cookies[0].Name)
	assert.Equal(t, "tok123", cookies[0].Value)
}

func TestLogin_MissingCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		t.Fatal("no request expected without credentials")
	}))
	defer srv.Close()

	s := newTestSession(t, srv.URL)
	s.username = ""

	err := s.Login(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAuth)
	assert.False(t, s.Authenticated())
}

func TestLogin_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"zt":0,"info":"密码不正确"}`)
	}))
	defer srv.Close()

	s := newTestSession(t, srv.URL)

	err := s.Login(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAuth)
	assert.Contains(t, err.Error(), "密码不正确")
	assert.False(t, s.Authenticated())
}

func TestLogin_RedirectFallbackProbe(t *testing.T) {
	// Some deployments answer the login POST with an HTML redirect page
	// instead of JSON; success is then decided by probing the disk page.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/mlogin.php":
			http.SetCookie(w, &http.Cookie{Name: "phpdisk_info", Value: "tok456"})
			fmt.Fprint(w, "<html>redirecting...</html>")
		case "/mydisk.php":
			fmt.Fprint(w, "<html>my files</html>") // no login prompt marker
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	s := newTestSession(t, srv.URL)

	require.NoError(t, s.Login(context.Background()))
	assert.True(t, s.Authenticated())
}

func TestLogin_UnparseableAndProbeFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/mlogin.php":
			fmt.Fprint(w, "<html>error</html>")
		case "/mydisk.php":
			fmt.Fprint(w, "<html>请登录</html>") // still prompting for login
		}
	}))
	defer srv.Close()

	s := newTestSession(t, srv.URL)

	err := s.Login(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProtocol)
}

func TestLogin_SkippedAfterRestore(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		t.Fatal("no request expected for an already-authenticated session")
	}))
	defer srv.Close()

	s := newTestSession(t, srv.URL)
	s.authenticated = true

	require.NoError(t, s.Login(context.Background()))
}

func TestRestoreSession_NoCookieFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		t.Fatal("no request expected without a cookie file")
	}))
	defer srv.Close()

	s := newTestSession(t, srv.URL)

	assert.False(t, s.RestoreSession(context.Background()))
	assert.False(t, s.Authenticated())
}

func TestRestoreSession_ValidCookies(t *testing.T) {
	var sawCookie bool

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/mydisk.php", r.URL.Path)

		if c, err := r.Cookie("phpdisk_info"); err == nil && c.Value == "saved" {
			sawCookie = true
		}

		fmt.Fprint(w, "<html>my files</html>")
	}))
	defer srv.Close()

	s := newTestSession(t, srv.URL)
	require.NoError(t, cookiejar.Save(s.cookiePath, []*http.Cookie{
		{Name: "phpdisk_info", Value: "saved"},
	}))

	assert.True(t, s.RestoreSession(context.Background()))
	assert.True(t, s.Authenticated())
	assert.True(t, sawCookie, "restored cookie must be sent with the probe")
}

func TestRestoreSession_StaleCookies(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "<html>请登录</html>")
	}))
	defer srv.Close()

	s := newTestSession(t, srv.URL)
	require.NoError(t, cookiejar.Save(s.cookiePath, []*http.Cookie{
		{Name: "phpdisk_info", Value: "expired"},
	}))

	assert.False(t, s.RestoreSession(context.Background()))
	assert.False(t, s.Authenticated())
}
