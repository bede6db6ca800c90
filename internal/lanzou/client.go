package lanzou

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/abcdream-Lary/g-to-lan/internal/console"
)

// Numeric task selectors the remote multiplexes through one endpoint.
// Other values exist server-side but are unused here.
const (
	taskUpload       = "1"
	taskCreateFolder = "2"
	taskLogin        = "3"
	taskListFiles    = "5"
	taskListFolders  = "47"
)

// statusOK is the status sentinel: a "zt" field equal to 1 marks success.
const statusOK = 1

// endpointTask is the multiplexed directory/file endpoint, relative to the
// base URL. endpointUpload is the separate multipart upload endpoint.
const (
	endpointTask   = "/doupload.php"
	endpointUpload = "/html5up.php"
)

// Session owns the HTTP client (with its cookie jar), the endpoint set,
// the account identifier, and the authenticated flag. One Session is
// created per run; all remote operations are methods on it.
type Session struct {
	http      *http.Client
	loginHTTP *http.Client // shares the jar, but never follows redirects
	jar       http.CookieJar

	baseURL   string
	loginURL  string
	diskURL   string
	userAgent string

	uid      string
	username string
	password string

	cookiePath    string
	authenticated bool

	logger  *slog.Logger
	console *console.Printer

	// sleepFunc waits between listing pages. Tests override it to avoid
	// real delays.
	sleepFunc func(ctx context.Context, d time.Duration) error
}

// Options configures a Session. Zero-value endpoint fields are invalid;
// callers populate them from config defaults.
type Options struct {
	BaseURL   string
	LoginURL  string
	DiskURL   string
	UserAgent string

	UID      string
	Username string
	Password string

	// CookiePath is where session cookies are persisted and restored.
	CookiePath string

	// Timeout for HTTP requests. Defaults to 30s when zero.
	Timeout time.Duration

	Logger  *slog.Logger
	Console *console.Printer
}

// defaultTimeout bounds every HTTP request so a hung remote cannot stall
// a run indefinitely.
const defaultTimeout = 30 * time.Second

// NewSession creates an unauthenticated Session with a fresh in-memory
// cookie jar. Call RestoreSession and/or Login before any remote operation.
func NewSession(opts Options) (*Session, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("lanzou: creating cookie jar: %w", err)
	}

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	printer := opts.Console
	if printer == nil {
		printer = console.Discard()
	}

	httpClient := &http.Client{Jar: jar, Timeout: timeout}

	// The login endpoint redirects instead of answering JSON on some
	// deployments; redirects must be surfaced, not followed.
	loginClient := &http.Client{
		Jar:     jar,
		Timeout: timeout,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	return &Session{
		http:       httpClient,
		loginHTTP:  loginClient,
		jar:        jar,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		loginURL:   opts.LoginURL,
		diskURL:    opts.DiskURL,
		userAgent:  opts.UserAgent,
		uid:        opts.UID,
		username:   opts.Username,
		password:   opts.Password,
		cookiePath: opts.CookiePath,
		logger:     logger,
		console:    printer,
		sleepFunc:  sleepContext,
	}, nil
}

// Authenticated reports whether a login or session restore has succeeded.
func (s *Session) Authenticated() bool {
	return s.authenticated
}

// requireAuth fails fast before any network call on an unauthenticated
// session.
func (s *Session) requireAuth(op string) error {
	if !s.authenticated {
		return &APIError{Op: op, Err: ErrNotAuthenticated}
	}

	return nil
}

// taskRequest is one variant of the multiplexed endpoint: a task selector
// plus its form fields. Variants are built by the constructors below so
// protocol fields never leak into call sites.
type taskRequest struct {
	op          string
	form        url.Values
	checkStatus bool
}

func listFoldersTask(parentID string) taskRequest {
	return taskRequest{
		op: "list folders",
		form: url.Values{
			"task":      {taskListFolders},
			"folder_id": {parentID},
		},
		// The folder-listing task is the one response the remote does not
		// guard with the status sentinel.
		checkStatus: false,
	}
}

func listFilesTask(folderID string, page int) taskRequest {
	return taskRequest{
		op: "list files",
		form: url.Values{
			"task":      {taskListFiles},
			"folder_id": {folderID},
			"pg":        {strconv.Itoa(page)},
		},
		checkStatus: true,
	}
}

func createFolderTask(parentID, name string) taskRequest {
	return taskRequest{
		op: "create folder",
		form: url.Values{
			"task":               {taskCreateFolder},
			"parent_id":          {parentID},
			"folder_name":        {name},
			"folder_description": {""},
		},
		checkStatus: true,
	}
}

// apiResponse is the common response envelope. "text" is irregular (list,
// empty string, null, or scalar) and is normalized by the caller;
// "info" carries the free-text reason on failure.
type apiResponse struct {
	Status int             `json:"zt"`
	Info   json.RawMessage `json:"info"`
	Text   json.RawMessage `json:"text"`
}

// reason extracts the server-reported reason from the info field, which
// may be a string or an arbitrary JSON value.
func (r *apiResponse) reason() string {
	if len(r.Info) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(r.Info, &s); err == nil {
		return s
	}

	return string(r.Info)
}

// taskURL appends the account identifier to the multiplexed endpoint, as
// the remote expects it in the query string rather than the form body.
func (s *Session) taskURL() string {
	return s.baseURL + endpointTask + "?uid=" + url.QueryEscape(s.uid)
}

// uploadURL is the multipart upload endpoint with the account identifier.
func (s *Session) uploadURL() string {
	return s.baseURL + endpointUpload + "?uid=" + url.QueryEscape(s.uid)
}

// doTask posts one task request to the multiplexed endpoint and decodes
// the envelope. Transport failures, non-200 statuses, undecodable bodies,
// and rejected status sentinels are classified via APIError.
func (s *Session) doTask(ctx context.Context, tr taskRequest) (*apiResponse, error) {
	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, s.taskURL(), strings.NewReader(tr.form.Encode()),
	)
	if err != nil {
		return nil, fmt.Errorf("lanzou: creating %s request: %w", tr.op, err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	s.setBrowserHeaders(req)

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, &APIError{Op: tr.op, Reason: err.Error(), Err: ErrTransport}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain for connection reuse; the body of an error page is noise.
		_, _ = io.Copy(io.Discard, resp.Body)

		return nil, &APIError{Op: tr.op, Status: resp.StatusCode, Err: ErrTransport}
	}

	var envelope apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, &APIError{Op: tr.op, Reason: err.Error(), Err: ErrProtocol}
	}

	if tr.checkStatus && envelope.Status != statusOK {
		return nil, &APIError{Op: tr.op, Reason: envelope.reason(), Err: ErrRemoteRejected}
	}

	s.logger.Debug("task request complete",
		slog.String("op", tr.op),
		slog.Int("zt", envelope.Status),
	)

	return &envelope, nil
}

// setBrowserHeaders applies the browser-like header set the informal API
// expects; requests without them are served the web login page.
func (s *Session) setBrowserHeaders(req *http.Request) {
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "application/json, text/javascript, */*")
	req.Header.Set("Accept-Language", "zh-CN,zh;q=0.9")
	req.Header.Set("Origin", s.baseURL)
	req.Header.Set("Referer", s.baseURL+"/")
}

// sleepContext waits for d or until the context is canceled. Default
// sleepFunc for Session.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
