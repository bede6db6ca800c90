// Package release resolves the latest GitHub release for a repository URL
// into a version tag and the set of downloadable assets worth mirroring.
package release

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"regexp"
	"strings"
)

// apiBase is the GitHub REST API root. Overridable for tests.
const apiBase = "https://api.github.com"

// repoPattern extracts owner and repository from any github.com URL.
var repoPattern = regexp.MustCompile(`github\.com/([^/]+)/([^/]+)`)

// Mirrorable asset suffixes. Source archives are excluded by name below.
var assetSuffixes = []string{".apk", ".exe", ".zip"}

// ErrInvalidURL is returned when the task URL does not reference a
// github.com repository.
var ErrInvalidURL = errors.New("release: not a github.com repository URL")

// ErrNoAssets is returned when the latest release carries no mirrorable
// assets.
var ErrNoAssets = errors.New("release: no mirrorable assets in latest release")

// Asset is one downloadable release artifact.
type Asset struct {
	Name string
	URL  string
}

// Release is the resolved latest release of a repository.
type Release struct {
	Tag    string
	Assets []Asset
}

// First returns the first mirrorable asset. The update checker compares
// only this one against the remote folder, matching the mirror's primary
// artifact convention.
func (r *Release) First() Asset {
	if len(r.Assets) == 0 {
		return Asset{}
	}

	return r.Assets[0]
}

// Resolver fetches release metadata from the GitHub API. A GITHUB_TOKEN
// environment variable, when present, lifts the unauthenticated rate
// limit.
type Resolver struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// NewResolver creates a Resolver. httpClient may be nil for the default.
func NewResolver(httpClient *http.Client, logger *slog.Logger) *Resolver {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Resolver{baseURL: apiBase, http: httpClient, logger: logger}
}

// releaseResponse mirrors the fields used from the GitHub API payload.
type releaseResponse struct {
	TagName string `json:"tag_name"`
	Assets  []struct {
		Name               string `json:"name"`
		BrowserDownloadURL string `json:"browser_download_url"`
	} `json:"assets"`
}

// Resolve returns the latest release of the repository referenced by
// repoURL, with assets filtered to mirrorable artifacts.
func (r *Resolver) Resolve(ctx context.Context, repoURL string) (*Release, error) {
	owner, repo, err := parseRepoURL(repoURL)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/repos/%s/%s/releases/latest", r.baseURL, owner, repo)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("release: creating request: %w", err)
	}

	req.Header.Set("Accept", "application/vnd.github+json")

	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := r.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("release: fetching latest release: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)

		return nil, fmt.Errorf("release: fetching latest release for %s/%s: HTTP %d", owner, repo, resp.StatusCode)
	}

	var payload releaseResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("release: decoding release response: %w", err)
	}

	rel := &Release{Tag: payload.TagName}

	for _, a := range payload.Assets {
		if !mirrorable(a.Name) || a.BrowserDownloadURL == "" {
			continue
		}

		rel.Assets = append(rel.Assets, Asset{Name: a.Name, URL: a.BrowserDownloadURL})
	}

	if len(rel.Assets) == 0 {
		return nil, ErrNoAssets
	}

	r.logger.Debug("resolved latest release",
		slog.String("repo", owner+"/"+repo),
		slog.String("tag", rel.Tag),
		slog.Int("assets", len(rel.Assets)),
	)

	return rel, nil
}

// parseRepoURL extracts owner and repository from a github.com URL.
func parseRepoURL(repoURL string) (owner, repo string, err error) {
	m := repoPattern.FindStringSubmatch(repoURL)
	if m == nil {
		return "", "", fmt.Errorf("%w: %s", ErrInvalidURL, repoURL)
	}

	return m[1], m[2], nil
}

// mirrorable reports whether an asset name is worth mirroring: one of the
// binary artifact suffixes, excluding source archives.
func mirrorable(name string) bool {
	lower := strings.ToLower(name)

	if strings.Contains(lower, "source") || strings.Contains(lower, "src") {
		return false
	}

	for _, suffix := range assetSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}

	return false
}
