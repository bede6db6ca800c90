package lanzou

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
)

// ListFolders returns the child folders of parentID (RootFolderID for the
// top level). Any failure — transport, protocol, or missing auth — is
// logged with its category and degrades to an empty slice: callers treat
// failure the same as "no children". The conflation of error and absence
// is deliberate and matches the documented behavior of the service's other
// clients.
func (s *Session) ListFolders(ctx context.Context, parentID string) []FolderEntry {
	folders, err := s.listFolders(ctx, parentID)
	if err != nil {
		s.logger.Error("listing folders failed",
			slog.String("parent_id", parentID),
			slog.String("error", err.Error()),
		)
		s.console.Errorf("listing folders failed: %v", err)

		return nil
	}

	return folders
}

// listFolders issues the list-folders task and normalizes the irregular
// payload into FolderEntry records.
func (s *Session) listFolders(ctx context.Context, parentID string) ([]FolderEntry, error) {
	if err := s.requireAuth("list folders"); err != nil {
		return nil, err
	}

	envelope, err := s.doTask(ctx, listFoldersTask(parentID))
	if err != nil {
		return nil, err
	}

	records, err := decodeRecords[rawFolder](envelope.Text)
	if err != nil {
		return nil, &APIError{Op: "list folders", Reason: err.Error(), Err: ErrProtocol}
	}

	folders := make([]FolderEntry, 0, len(records))
	for i := range records {
		folders = append(folders, records[i].toEntry())
	}

	s.logger.Debug("listed folders",
		slog.String("parent_id", parentID),
		slog.Int("count", len(folders)),
	)

	return folders, nil
}

// ResolveFolderID scans the children of parentID for an exact name match
// and returns its remote identifier, or "" when absent. No caching: every
// call re-queries the remote tree.
func (s *Session) ResolveFolderID(ctx context.Context, name, parentID string) string {
	for _, folder := range s.ListFolders(ctx, parentID) {
		if folder.Name == name {
			return folder.ID
		}
	}

	return ""
}

// CreateFolder creates a single folder under parentID and returns the new
// remote identifier. The caller is responsible for checking existence
// first; the remote happily creates duplicate names.
func (s *Session) CreateFolder(ctx context.Context, name, parentID string) (string, error) {
	if err := s.requireAuth("create folder"); err != nil {
		s.console.Errorf("not logged in")
		return "", err
	}

	envelope, err := s.doTask(ctx, createFolderTask(parentID, name))
	if err != nil {
		s.console.Errorf("creating folder %q failed: %v", name, err)
		return "", err
	}

	id := decodeScalar(envelope.Text)
	if id == "" {
		s.console.Errorf("creating folder %q failed: no identifier in response", name)
		return "", &APIError{Op: "create folder", Reason: "no folder id in response", Err: ErrProtocol}
	}

	s.logger.Info("created folder",
		slog.String("name", name),
		slog.String("parent_id", parentID),
		slog.String("folder_id", id),
	)
	s.console.Successf("created folder %s (id %s)", name, id)

	return id, nil
}

// EnsureFolder resolves or creates the folder path and returns the deepest
// segment's identifier. Paths may contain "/" separators; each segment is
// resolved against the current parent and created only when absent, making
// the whole operation idempotent. The path walk is not transactional — a
// crash mid-path leaves a prefix that the next run resolves and descends.
func (s *Session) EnsureFolder(ctx context.Context, path string) (string, error) {
	if err := s.requireAuth("ensure folder"); err != nil {
		s.console.Errorf("not logged in")
		return "", err
	}

	parentID := RootFolderID

	for _, segment := range strings.Split(strings.Trim(path, "/"), "/") {
		if segment == "" {
			continue
		}

		if id := s.ResolveFolderID(ctx, segment, parentID); id != "" {
			s.console.Warnf("folder already exists: %s", segment)
			parentID = id

			continue
		}

		id, err := s.CreateFolder(ctx, segment, parentID)
		if err != nil {
			return "", err
		}

		parentID = id
	}

	return parentID, nil
}

// decodeScalar extracts a scalar string (or number rendered as string)
// from an irregular payload field. Returns "" for lists, objects, and
// empty values.
func decodeScalar(raw json.RawMessage) string {
	var s flexString
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}

	return string(s)
}
