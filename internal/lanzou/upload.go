package lanzou

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"github.com/abcdream-Lary/g-to-lan/internal/progress"
)

// Fixed protocol fields for the multipart upload endpoint. The slot id is
// a constant string the web uploader sends for its first file input.
const (
	uploadSlotID    = "WU_FILE_0"
	uploadFieldName = "upload_file"
	uploadVie       = "2"
	uploadVe        = "2"
)

// DefaultSizeLimitMB is the remote's per-file cap for free accounts.
const DefaultSizeLimitMB = 100

// CheckSizeLimit reports whether the local file fits under the maxMB cap.
// Pure local guard: no network call. Oversized files (and stat failures)
// log a diagnostic and return false so the caller skips the upload.
func (s *Session) CheckSizeLimit(localPath string, maxMB int64) bool {
	info, err := os.Stat(localPath)
	if err != nil {
		s.logger.Error("checking file size failed",
			slog.String("path", localPath),
			slog.String("error", err.Error()),
		)
		s.console.Errorf("checking file size failed: %v", err)

		return false
	}

	if info.Size() >= maxMB*1024*1024 {
		s.console.Errorf("file %s is %s, over the %d MB limit",
			filepath.Base(localPath), humanize.IBytes(uint64(info.Size())), maxMB)

		return false
	}

	return true
}

// Upload transfers the local file into folderID. Requires an authenticated
// session. Uploading a file whose short or full name already exists in the
// target folder is an idempotent no-op. Progress is reported as bytes are
// streamed into the request body.
func (s *Session) Upload(ctx context.Context, localPath, folderID string) error {
	if err := s.requireAuth("upload"); err != nil {
		s.console.Errorf("not logged in")
		return err
	}

	name := filepath.Base(localPath)

	info, err := os.Stat(localPath)
	if err != nil {
		return fmt.Errorf("lanzou: stat %s: %w", localPath, err)
	}

	s.console.Infof("uploading %s (%s)", name, humanize.IBytes(uint64(info.Size())))

	if s.FileExists(ctx, folderID, name) {
		s.console.Warnf("file already present, skipping upload: %s", name)
		s.logger.Info("upload skipped, file exists",
			slog.String("name", name),
			slog.String("folder_id", folderID),
		)

		return nil
	}

	file, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("lanzou: opening %s: %w", localPath, err)
	}
	defer file.Close()

	envelope, err := s.doUpload(ctx, name, folderID, file, info.Size())
	if err != nil {
		s.console.Errorf("upload failed: %v", err)
		return err
	}

	if envelope.Status != statusOK {
		reason := envelope.reason()
		if reason == "" {
			reason = "upload rejected"
		}

		s.console.Errorf("upload failed: %s", reason)

		return &APIError{Op: "upload", Reason: reason, Err: ErrRemoteRejected}
	}

	s.console.Successf("uploaded %s", name)
	s.logger.Info("upload complete",
		slog.String("name", name),
		slog.String("folder_id", folderID),
		slog.Int64("size", info.Size()),
	)

	return nil
}

// doUpload streams the multipart request body through a pipe so the file
// is never buffered in memory, and parses the JSON response envelope.
func (s *Session) doUpload(
	ctx context.Context, name, folderID string, file io.Reader, size int64,
) (*apiResponse, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	counted := progress.NewReader(file, size, s.uploadProgress(name))

	go func() {
		pw.CloseWithError(writeUploadBody(mw, name, folderID, counted))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.uploadURL(), pr)
	if err != nil {
		return nil, fmt.Errorf("lanzou: creating upload request: %w", err)
	}

	req.Header.Set("Content-Type", mw.FormDataContentType())
	s.setBrowserHeaders(req)

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, &APIError{Op: "upload", Reason: err.Error(), Err: ErrTransport}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)

		return nil, &APIError{Op: "upload", Status: resp.StatusCode, Err: ErrTransport}
	}

	var envelope apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, &APIError{Op: "upload", Reason: err.Error(), Err: ErrProtocol}
	}

	return &envelope, nil
}

// writeUploadBody writes the protocol fields and the file part in the
// order the web uploader sends them.
func writeUploadBody(mw *multipart.Writer, name, folderID string, file io.Reader) error {
	fields := []struct{ key, value string }{
		{"task", taskUpload},
		{"vie", uploadVie},
		{"ve", uploadVe},
		{"id", uploadSlotID},
		{"name", name},
		{"folder_id_bb_n", folderID},
	}

	for _, f := range fields {
		if err := mw.WriteField(f.key, f.value); err != nil {
			return fmt.Errorf("lanzou: writing field %s: %w", f.key, err)
		}
	}

	part, err := mw.CreateFormFile(uploadFieldName, name)
	if err != nil {
		return fmt.Errorf("lanzou: creating file part: %w", err)
	}

	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("lanzou: streaming file: %w", err)
	}

	return mw.Close()
}

// uploadProgress returns a progress callback that renders an in-place
// console line at coarse steps, so large uploads do not flood the output.
func (s *Session) uploadProgress(name string) progress.Func {
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
		s.logger.Debug("upload progress",
			slog.String("name", name),
			slog.Int64("percent", pct),
			slog.String("sent", humanize.IBytes(uint64(current))),
		)
	}
}
