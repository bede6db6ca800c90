package lanzou

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/abcdream-Lary/g-to-lan/internal/cookiejar"
)

// loginPromptMarker appears in the disk page body when the session is not
// authenticated. Its absence is the validation signal for a restored or
// redirect-style login.
const loginPromptMarker = "登录"

// RestoreSession attempts to reuse a previously persisted cookie set.
// A missing or stale cookie file is never an error — it only means a
// credential login is needed. Returns true when the restored session
// validated against the disk page.
func (s *Session) RestoreSession(ctx context.Context) bool {
	cookies, err := cookiejar.Load(s.cookiePath)
	if err != nil {
		s.logger.Warn("loading persisted session failed",
			slog.String("path", s.cookiePath),
			slog.String("error", err.Error()),
		)
		s.console.Warnf("loading saved session failed: %v", err)

		return false
	}

	if cookies == nil {
		s.logger.Debug("no persisted session found", slog.String("path", s.cookiePath))
		return false
	}

	s.console.Infof("found a saved session, validating...")

	if err := s.installCookies(cookies); err != nil {
		s.logger.Warn("installing persisted cookies failed", slog.String("error", err.Error()))
		return false
	}

	if !s.probeLogin(ctx) {
		s.console.Warnf("saved session is no longer valid")
		return false
	}

	s.authenticated = true
	s.console.Successf("reusing saved session")

	return true
}

// Login authenticates with the configured credentials. Skipped when a
// restore already authenticated the session. On success the resulting
// cookie set is persisted for future runs.
//
// The login endpoint normally answers JSON with the status sentinel, but
// some deployments redirect on success instead — when the body is not
// parseable, the disk-page probe decides.
func (s *Session) Login(ctx context.Context) error {
	if s.authenticated {
		return nil
	}

	if s.username == "" || s.password == "" {
		s.console.Errorf("no credentials configured (set account.username and account.password)")
		return &APIError{Op: "login", Reason: "credentials missing from configuration", Err: ErrAuth}
	}

	s.console.Infof("logging in as %s...", s.username)

	form := url.Values{
		"task":         {taskLogin},
		"uid":          {s.username},
		"pwd":          {s.password},
		"setSessionId": {""},
		"setSig":       {""},
		"setScene":     {""},
		"setTocen":     {""},
		"formhash":     {""},
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, s.loginURL, strings.NewReader(form.Encode()),
	)
	if err != nil {
		return fmt.Errorf("lanzou: creating login request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	s.setBrowserHeaders(req)

	// Redirects disabled: a 302 is a meaningful answer here.
	resp, err := s.loginHTTP.Do(req)
	if err != nil {
		s.console.Errorf("login request failed: %v", err)
		return &APIError{Op: "login", Reason: err.Error(), Err: ErrTransport}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		s.console.Errorf("login request failed: HTTP %d", resp.StatusCode)

		return &APIError{Op: "login", Status: resp.StatusCode, Err: ErrTransport}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{Op: "login", Reason: err.Error(), Err: ErrTransport}
	}

	var envelope apiResponse
	if jsonErr := json.Unmarshal(body, &envelope); jsonErr != nil {
		// Not structured data — fall back to the same probe RestoreSession
		// uses, since success may have arrived as a redirect + cookies.
		if s.probeLogin(ctx) {
			s.finishLogin()
			return nil
		}

		s.console.Errorf("login failed: unparseable response")

		return &APIError{Op: "login", Reason: "unparseable login response", Err: ErrProtocol}
	}

	if envelope.Status != statusOK {
		reason := envelope.reason()
		if reason == "" {
			reason = "login rejected"
		}

		s.console.Errorf("login failed: %s", reason)

		return &APIError{Op: "login", Reason: reason, Err: ErrAuth}
	}

	s.finishLogin()

	return nil
}

// finishLogin marks the session authenticated and persists its cookies.
// Persistence failure is logged, not fatal — the run itself can proceed.
func (s *Session) finishLogin() {
	s.authenticated = true
	s.console.Successf("login succeeded")

	if err := cookiejar.Save(s.cookiePath, s.currentCookies()); err != nil {
		s.logger.Warn("persisting session cookies failed",
			slog.String("path", s.cookiePath),
			slog.String("error", err.Error()),
		)
	}
}

// probeLogin fetches the disk page and checks for the login-prompt marker.
// A body without the marker means the current cookie set is authenticated.
func (s *Session) probeLogin(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.diskURL, http.NoBody)
	if err != nil {
		return false
	}

	s.setBrowserHeaders(req)

	resp, err := s.http.Do(req)
	if err != nil {
		s.logger.Warn("session validation request failed", slog.String("error", err.Error()))
		return false
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		s.logger.Warn("reading session validation response failed", slog.String("error", err.Error()))
		return false
	}

	return !strings.Contains(string(body), loginPromptMarker)
}

// installCookies places restored cookies into the jar, scoped to the base
// URL's host.
func (s *Session) installCookies(cookies []*http.Cookie) error {
	u, err := url.Parse(s.baseURL)
	if err != nil {
		return fmt.Errorf("lanzou: parsing base URL: %w", err)
	}

	s.jar.SetCookies(u, cookies)

	return nil
}

// currentCookies returns the jar's cookies for the base URL, for
// persistence after a successful login.
func (s *Session) currentCookies() []*http.Cookie {
	u, err := url.Parse(s.baseURL)
	if err != nil {
		return nil
	}

	return s.jar.Cookies(u)
}
