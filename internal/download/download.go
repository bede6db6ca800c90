// Package download fetches release assets to local files with progress
// reporting. Partial files are removed on failure so a crashed run never
// leaves a truncated artifact for the uploader to pick up.
package download

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/dustin/go-humanize"

	"github.com/abcdream-Lary/g-to-lan/internal/console"
	"github.com/abcdream-Lary/g-to-lan/internal/progress"
)

// Downloader streams remote files to disk.
type Downloader struct {
	http    *http.Client
	logger  *slog.Logger
	console *console.Printer
}

// New creates a Downloader. httpClient may be nil for the default client.
func New(httpClient *http.Client, logger *slog.Logger, printer *console.Printer) *Downloader {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	if logger == nil {
		logger = slog.Default()
	}

	if printer == nil {
		printer = console.Discard()
	}

	return &Downloader{http: httpClient, logger: logger, console: printer}
}

// Fetch downloads url to destPath, reporting progress as bytes arrive.
// The Content-Length header, when present, sizes the progress report.
func (d *Downloader) Fetch(ctx context.Context, url, destPath string) (err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("download: creating request: %w", err)
	}

	resp, err := d.http.Do(req)
	if err != nil {
		return fmt.Errorf("download: fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)

		return fmt.Errorf("download: fetching %s: HTTP %d", url, resp.StatusCode)
	}

	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("download: creating %s: %w", destPath, err)
	}

	// Remove the partial file on any failure path.
	defer func() {
		if err != nil {
			out.Close()
			_ = os.Remove(destPath)
		}
	}()

	total := resp.ContentLength
	if total < 0 {
		total = 0
	}

	counted := progress.NewReader(resp.Body, total, d.fetchProgress(destPath))

	n, err := io.Copy(out, counted)
	if err != nil {
		return fmt.Errorf("download: writing %s: %w", destPath, err)
	}

	if closeErr := out.Close(); closeErr != nil {
		err = fmt.Errorf("download: closing %s: %w", destPath, closeErr)
		_ = os.Remove(destPath)

		return err
	}

	d.logger.Info("download complete",
		slog.String("dest", destPath),
		slog.Int64("bytes", n),
	)
	d.console.Successf("downloaded %s", humanize.IBytes(uint64(n)))

	return nil
}

// fetchProgress renders coarse progress to the debug log: every 5% when
// the total is known, nothing when it is not.
func (d *Downloader) fetchProgress(dest string) progress.Func {
	var lastPct int64 = -1

	return func(current, total int64) {
		if total <= 0 {
			return
		}

		pct := current * 100 / total
		if pct/5 == lastPct/5 && pct != 100 {
			return
		}

		lastPct = pct
		d.logger.Debug("download progress",
			slog.String("dest", dest),
			slog.Int64("percent", pct),
			slog.String("received", humanize.IBytes(uint64(current))),
		)
	}
}
