// Package cookiejar persists session cookies between runs. The on-disk
// format is a flat name→value JSON object, written atomically with
// owner-only permissions. This is a leaf package imported by both the
// lanzou session and the CLI.
package cookiejar

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
)

// FilePerms restricts cookie files to owner-only read/write.
const FilePerms = 0o600

// DirPerms is used when creating the cookie file's directory.
const DirPerms = 0o700

// Load reads persisted cookies from path. Returns (nil, nil) when the file
// does not exist — a missing cookie file is the normal first-run state,
// not an error.
func Load(path string) ([]*http.Cookie, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("cookiejar: reading %s: %w", path, err)
	}

	var pairs map[string]string
	if err := json.Unmarshal(data, &pairs); err != nil {
		return nil, fmt.Errorf("cookiejar: decoding %s: %w", path, err)
	}

	cookies := make([]*http.Cookie, 0, len(pairs))
	for name, value := range pairs {
		cookies = append(cookies, &http.Cookie{Name: name, Value: value})
	}

	return cookies, nil
}

// Save writes cookies to path atomically (write-to-temp + rename) with
// 0600 permissions. Cookie values are session credentials — never log them.
func Save(path string, cookies []*http.Cookie) error {
	pairs := make(map[string]string, len(cookies))
	for _, c := range cookies {
		pairs[c.Name] = c.Value
	}

	data, err := json.MarshalIndent(pairs, "", "  ")
	if err != nil {
		return fmt.Errorf("cookiejar: encoding: %w", err)
	}

	dir := filepath.Dir(path)
	if mkErr := os.MkdirAll(dir, DirPerms); mkErr != nil {
		return fmt.Errorf("cookiejar: creating directory %s: %w", dir, mkErr)
	}

	// Atomic write: temp file in the same directory, then rename.
	// Same directory guarantees same filesystem for rename(2).
	tmp, err := os.CreateTemp(dir, ".cookies-*.tmp")
	if err != nil {
		return fmt.Errorf("cookiejar: creating temp file: %w", err)
	}

	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpPath)
		}
	}()

	if err := os.Chmod(tmpPath, FilePerms); err != nil {
		tmp.Close()
		return fmt.Errorf("cookiejar: setting permissions: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("cookiejar: writing: %w", err)
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("cookiejar: syncing: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("cookiejar: closing: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("cookiejar: renaming: %w", err)
	}

	success = true

	return nil
}
