package lanzou

import (
	"bytes"
	"encoding/json"
)

// RootFolderID addresses the top level of the remote drive.
const RootFolderID = "-1"

// FolderEntry is a remote directory node, normalized from the listing
// response. ID is the opaque remote identifier; Name is the lookup key
// used by higher layers. Sizes and timestamps are remote-reported display
// strings and are carried verbatim.
type FolderEntry struct {
	ID          string
	Name        string
	Size        string
	CreatedAt   string
	Description string
}

// FileEntry is a remote file node. Name is the short name; NameAll carries
// the full name including extension/suffix metadata. A file matches a
// lookup when either equals the probe name.
type FileEntry struct {
	ID         string
	Name       string
	NameAll    string
	Size       string
	UploadedAt string
	FolderID   string
}

// Matches reports whether name equals the entry's short or full name
// (case-sensitive exact match).
func (f FileEntry) Matches(name string) bool {
	return f.Name == name || f.NameAll == name
}

// DisplayName returns the full name when present, otherwise the short name.
func (f FileEntry) DisplayName() string {
	if f.NameAll != "" {
		return f.NameAll
	}

	return f.Name
}

// flexString decodes a JSON value that the remote serves inconsistently as
// either a string or a number. Identifiers in particular flip between the
// two across deployments.
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*s = ""
		return nil
	}

	if data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}

		*s = flexString(v)

		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}

	*s = flexString(n.String())

	return nil
}

// rawFolder mirrors one listing record as served. The identifier appears
// under either "fol_id" or "folderid" depending on deployment; toEntry
// normalizes to one.
type rawFolder struct {
	Name        flexString `json:"name"`
	FolID       flexString `json:"fol_id"`
	FolderID    flexString `json:"folderid"`
	Size        flexString `json:"size"`
	Time        flexString `json:"time"`
	Description flexString `json:"folder_des"`
}

func (r *rawFolder) toEntry() FolderEntry {
	id := string(r.FolID)
	if id == "" {
		id = string(r.FolderID)
	}

	return FolderEntry{
		ID:          id,
		Name:        string(r.Name),
		Size:        string(r.Size),
		CreatedAt:   string(r.Time),
		Description: string(r.Description),
	}
}

// rawFile mirrors one paged file record as served.
type rawFile struct {
	ID       flexString `json:"id"`
	Name     flexString `json:"name"`
	NameAll  flexString `json:"name_all"`
	Size     flexString `json:"size"`
	Time     flexString `json:"time"`
	FolderID flexString `json:"folder_id"`
}

func (r *rawFile) toEntry() FileEntry {
	return FileEntry{
		ID:         string(r.ID),
		Name:       string(r.Name),
		NameAll:    string(r.NameAll),
		Size:       string(r.Size),
		UploadedAt: string(r.Time),
		FolderID:   string(r.FolderID),
	}
}

// decodeRecords normalizes the irregular "text" payload into a record
// slice. The remote signals "no children" as an empty string, null, or an
// empty list — all of those decode to an empty slice, never an error.
// Only a present-but-malformed list is a protocol failure.
func decodeRecords[T any](raw json.RawMessage) ([]T, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || string(trimmed) == "null" || string(trimmed) == `""` {
		return nil, nil
	}

	if trimmed[0] != '[' {
		// Scalar payloads (e.g. a bare folder id from a create response)
		// carry no records.
		return nil, nil
	}

	var records []T
	if err := json.Unmarshal(trimmed, &records); err != nil {
		return nil, err
	}

	return records, nil
}
