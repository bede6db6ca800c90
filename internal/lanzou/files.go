package lanzou

import (
	"context"
	"log/slog"
	"time"
)

// pageSize is the remote's fixed page size for file listings; a page with
// fewer records is the last one.
const pageSize = 50

// pageDelay is the deliberate pause between listing pages. The remote
// rate-limits bursts without documenting it.
const pageDelay = 500 * time.Millisecond

// ListFiles returns every file in folderID, accumulated across pages in
// request order. Failures degrade to an empty slice after a categorized
// diagnostic, same as ListFolders; a failure mid-pagination discards the
// partial result rather than returning a silently truncated listing.
func (s *Session) ListFiles(ctx context.Context, folderID string) []FileEntry {
	files, err := s.listFiles(ctx, folderID)
	if err != nil {
		s.logger.Error("listing files failed",
			slog.String("folder_id", folderID),
			slog.String("error", err.Error()),
		)
		s.console.Errorf("listing files failed: %v", err)

		return nil
	}

	return files
}

// listFiles pages through the list-files task until a short page or a
// non-list payload marks the end.
func (s *Session) listFiles(ctx context.Context, folderID string) ([]FileEntry, error) {
	if err := s.requireAuth("list files"); err != nil {
		return nil, err
	}

	var files []FileEntry

	for page := 1; ; page++ {
		envelope, err := s.doTask(ctx, listFilesTask(folderID, page))
		if err != nil {
			return nil, err
		}

		records, err := decodeRecords[rawFile](envelope.Text)
		if err != nil {
			return nil, &APIError{Op: "list files", Reason: err.Error(), Err: ErrProtocol}
		}

		for i := range records {
			files = append(files, records[i].toEntry())
		}

		s.logger.Debug("fetched file page",
			slog.String("folder_id", folderID),
			slog.Int("page", page),
			slog.Int("count", len(records)),
		)

		if len(records) < pageSize {
			break
		}

		if err := s.sleepFunc(ctx, pageDelay); err != nil {
			return nil, err
		}
	}

	return files, nil
}

// FileExists reports whether any file in folderID matches name by short
// or full name (case-sensitive). Inherits the degrade-to-absent policy of
// ListFiles: a listing failure reads as "not present".
func (s *Session) FileExists(ctx context.Context, folderID, name string) bool {
	for _, f := range s.ListFiles(ctx, folderID) {
		if f.Matches(name) {
			return true
		}
	}

	return false
}
