package mirror

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/abcdream-Lary/g-to-lan/internal/console"
	"github.com/abcdream-Lary/g-to-lan/internal/lanzou"
	"github.com/abcdream-Lary/g-to-lan/internal/tasks"
)

// Checker compares the latest release of each task against the remote
// drive without downloading anything. When at least one task is behind,
// it hands off to a full mirror run in a child process so the check stays
// cheap and the heavy path stays in one place.
type Checker struct {
	drive    Drive
	resolver Resolver
	logger   *slog.Logger
	console  *console.Printer

	// runMirror launches the full mirror pass. Overridable in tests.
	runMirror func(ctx context.Context) error
}

// NewChecker wires the checker's collaborators.
func NewChecker(drive Drive, resolver Resolver, logger *slog.Logger, printer *console.Printer) *Checker {
	if logger == nil {
		logger = slog.Default()
	}

	if printer == nil {
		printer = console.Discard()
	}

	c := &Checker{
		drive:    drive,
		resolver: resolver,
		logger:   logger,
		console:  printer,
	}
	c.runMirror = c.execSelf

	return c
}

// Check reports which tasks have a release asset missing from the remote
// drive and, when any do, launches the mirror run. A task whose release
// cannot be resolved is reported and treated as up to date, matching the
// listing policy of degrading instead of aborting the batch.
func (c *Checker) Check(ctx context.Context, list []tasks.Task) error {
	var stale []string

	for _, task := range list {
		if !task.Valid() {
			c.console.Warnf("skipping invalid task entry (url and folder_name are required)")
			continue
		}

		needs, err := c.needsUpdate(ctx, task)
		if err != nil {
			c.logger.Error("check failed",
				slog.String("url", task.URL),
				slog.String("error", err.Error()),
			)
			c.console.Errorf("%s: %v", task.FolderName, err)

			continue
		}

		if needs {
			c.console.Warnf("update available: %s", task.FolderName)
			stale = append(stale, task.FolderName)
		} else {
			c.console.Successf("up to date: %s", task.FolderName)
		}
	}

	if len(stale) == 0 {
		c.console.Infof("all tasks up to date")
		return nil
	}

	c.console.Infof("%d task(s) behind, starting mirror run", len(stale))

	if err := c.runMirror(ctx); err != nil {
		return fmt.Errorf("mirror: launching run: %w", err)
	}

	return nil
}

// needsUpdate reports whether the task's newest release asset is absent
// from its remote folder. A missing folder counts as absent.
func (c *Checker) needsUpdate(ctx context.Context, task tasks.Task) (bool, error) {
	rel, err := c.resolver.Resolve(ctx, task.URL)
	if err != nil {
		return false, err
	}

	asset := rel.First()
	if asset.Name == "" {
		return false, fmt.Errorf("mirror: release %s has no assets", rel.Tag)
	}

	folderID, ok := c.resolveFolderPath(ctx, task.FolderName)
	if !ok {
		c.logger.Debug("remote folder missing",
			slog.String("folder", task.FolderName),
		)

		return true, nil
	}

	return !c.drive.FileExists(ctx, folderID, asset.Name), nil
}

// resolveFolderPath walks a "/"-separated folder path from the root
// without creating anything. ok is false when any segment is missing.
func (c *Checker) resolveFolderPath(ctx context.Context, path string) (string, bool) {
	parentID := lanzou.RootFolderID

	for _, segment := range strings.Split(strings.Trim(path, "/"), "/") {
		if segment == "" {
			continue
		}

		id := c.drive.ResolveFolderID(ctx, segment, parentID)
		if id == "" {
			return "", false
		}

		parentID = id
	}

	return parentID, true
}

// execSelf re-invokes the current binary with the run subcommand,
// inheriting stdio so the mirror run's output lands in the same console.
func (c *Checker) execSelf(ctx context.Context) error {
	self, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locating executable: %w", err)
	}

	cmd := exec.CommandContext(ctx, self, "run")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin

	return cmd.Run()
}
