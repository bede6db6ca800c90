// Package mirror drives the release-to-cloud flow: resolve the latest
// GitHub release, ensure the target folder exists remotely, download each
// asset, and upload anything not already present. Tasks run strictly
// sequentially; a failed task logs and the batch moves on.
package mirror

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/abcdream-Lary/g-to-lan/internal/console"
	"github.com/abcdream-Lary/g-to-lan/internal/lanzou"
	"github.com/abcdream-Lary/g-to-lan/internal/release"
	"github.com/abcdream-Lary/g-to-lan/internal/tasks"
)

// Drive is the remote-drive surface the orchestrator and checker use.
// *lanzou.Session implements it.
type Drive interface {
	EnsureFolder(ctx context.Context, path string) (string, error)
	ResolveFolderID(ctx context.Context, name, parentID string) string
	FileExists(ctx context.Context, folderID, name string) bool
	Upload(ctx context.Context, localPath, folderID string) error
	CheckSizeLimit(localPath string, maxMB int64) bool
}

// Resolver resolves the latest release for a repository URL.
// *release.Resolver implements it.
type Resolver interface {
	Resolve(ctx context.Context, repoURL string) (*release.Release, error)
}

// Fetcher downloads a URL to a local file. *download.Downloader
// implements it.
type Fetcher interface {
	Fetch(ctx context.Context, url, destPath string) error
}

// Runner executes mirror tasks against the remote drive.
type Runner struct {
	drive    Drive
	resolver Resolver
	fetcher  Fetcher
	logger   *slog.Logger
	console  *console.Printer
}

// NewRunner wires the orchestrator's collaborators.
func NewRunner(drive Drive, resolver Resolver, fetcher Fetcher, logger *slog.Logger, printer *console.Printer) *Runner {
	if logger == nil {
		logger = slog.Default()
	}

	if printer == nil {
		printer = console.Discard()
	}

	return &Runner{
		drive:    drive,
		resolver: resolver,
		fetcher:  fetcher,
		logger:   logger,
		console:  printer,
	}
}

// Run processes each task in order. Downloads land in a scoped temp
// directory removed when the run ends. Per-task failures are reported and
// skipped; Run itself only fails when the working directory cannot be
// created.
func (r *Runner) Run(ctx context.Context, list []tasks.Task) error {
	workDir, err := os.MkdirTemp("", "g-to-lan-*")
	if err != nil {
		return fmt.Errorf("mirror: creating working directory: %w", err)
	}
	defer os.RemoveAll(workDir)

	for _, task := range list {
		if !task.Valid() {
			r.console.Warnf("skipping invalid task entry (url and folder_name are required)")
			continue
		}

		r.console.Infof("=== %s -> %s ===", task.URL, task.FolderName)

		if err := r.runTask(ctx, task, workDir); err != nil {
			r.logger.Error("task failed",
				slog.String("url", task.URL),
				slog.String("folder", task.FolderName),
				slog.String("error", err.Error()),
			)
			r.console.Errorf("task failed: %v", err)

			continue
		}

		r.console.Successf("task complete: %s", task.FolderName)
	}

	return nil
}

// runTask mirrors one repository's latest release into its target folder.
func (r *Runner) runTask(ctx context.Context, task tasks.Task, workDir string) error {
	rel, err := r.resolver.Resolve(ctx, task.URL)
	if err != nil {
		return err
	}

	r.console.Infof("latest release: %s (%d assets)", rel.Tag, len(rel.Assets))

	folderID, err := r.drive.EnsureFolder(ctx, task.FolderName)
	if err != nil {
		return err
	}

	for i, asset := range rel.Assets {
		r.console.Infof("[%d/%d] %s", i+1, len(rel.Assets), asset.Name)

		if err := r.mirrorAsset(ctx, asset, folderID, workDir); err != nil {
			r.logger.Error("asset failed",
				slog.String("asset", asset.Name),
				slog.String("error", err.Error()),
			)
			r.console.Errorf("asset %s failed: %v", asset.Name, err)

			// Remaining assets still get their chance.
			continue
		}
	}

	return nil
}

// mirrorAsset downloads one asset and uploads it unless the size guard or
// the remote existence check rules it out.
func (r *Runner) mirrorAsset(ctx context.Context, asset release.Asset, folderID, workDir string) error {
	// Existence is checked before spending bandwidth on the download;
	// Upload re-checks before the transfer.
	if r.drive.FileExists(ctx, folderID, asset.Name) {
		r.console.Warnf("already mirrored, skipping: %s", asset.Name)
		return nil
	}

	destPath := filepath.Join(workDir, asset.Name)
	if err := r.fetcher.Fetch(ctx, asset.URL, destPath); err != nil {
		return err
	}

	if !r.drive.CheckSizeLimit(destPath, lanzou.DefaultSizeLimitMB) {
		// Diagnostic already printed by the guard.
		return nil
	}

	return r.drive.Upload(ctx, destPath, folderID)
}
