// imports.go wraps the spreadsheet import endpoints, including the
// multipart upload with the client-side file checks the backend enforces.
package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// MaxUploadSize is the backend's upload ceiling (100 MB). Files over it
// are rejected client-side before any bytes go over the wire.
const MaxUploadSize = 100 * 1024 * 1024

// Import job statuses as reported by the backend. The client never
// computes transitions itself; it adopts whatever the backend says.
const (
	ImportPending    = "pending"
	ImportProcessing = "processing"
	ImportCompleted  = "completed"
	ImportFailed     = "failed"
	ImportPartial    = "partial"
)

// ImportJob is the backend's representation of one asynchronous import.
// Fields only change by re-fetching this representation.
type ImportJob struct {
	ID             string     `json:"id"`
	FileName       string     `json:"file_name"`
	FileSize       int64      `json:"file_size"`
	Status         string     `json:"import_status"`
	TotalRecords   int        `json:"total_records"`
	SuccessRecords int        `json:"success_records"`
	FailedRecords  int        `json:"failed_records"`
	ErrorMessage   string     `json:"error_message,omitempty"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// allowedImportExt holds the spreadsheet extensions the backend accepts.
var allowedImportExt = map[string]bool{
	".xlsx": true,
	".xls":  true,
}

// UploadExcel submits a spreadsheet for asynchronous import and returns
// the accepted job descriptor (status pending). Extension and size are
// validated before the request is built; violations classify as Malformed.
func (c *Client) UploadExcel(ctx context.Context, path string) (*ImportJob, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !allowedImportExt[ext] {
		return nil, &Error{
			Category: Malformed,
			Err:      fmt.Errorf("unsupported file type %q, allowed: .xlsx, .xls", ext),
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, &Error{Category: Malformed, Err: fmt.Errorf("opening upload: %w", err)}
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return nil, &Error{Category: Malformed, Err: fmt.Errorf("stat upload: %w", err)}
	}
	if info.Size() > MaxUploadSize {
		return nil, &Error{
			Category: Malformed,
			Err:      fmt.Errorf("file too large (%d bytes), maximum 100MB", info.Size()),
		}
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, &Error{Category: Malformed, Err: err}
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, &Error{Category: Malformed, Err: fmt.Errorf("reading upload: %w", err)}
	}
	if err := mw.Close(); err != nil {
		return nil, &Error{Category: Malformed, Err: err}
	}

	req, reqID, err := c.newRequest(ctx, http.MethodPost, "/api/v1/imports/excel", &body)
	if err != nil {
		return nil, &Error{Category: Malformed, Err: err}
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var job ImportJob
	if err := c.do(req, reqID, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// ListImports returns the import job history, newest first.
func (c *Client) ListImports(ctx context.Context) ([]ImportJob, error) {
	var jobs []ImportJob
	if err := c.get(ctx, "/api/v1/imports", nil, &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

// GetImport returns a single job descriptor.
func (c *Client) GetImport(ctx context.Context, id string) (*ImportJob, error) {
	var job ImportJob
	if err := c.get(ctx, fmt.Sprintf("/api/v1/imports/%s", id), nil, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// RetryImport asks the backend to restart a failed or partial job.
func (c *Client) RetryImport(ctx context.Context, id string) (*ImportJob, error) {
	var job ImportJob
	if err := c.postJSON(ctx, fmt.Sprintf("/api/v1/imports/%s/retry", id), nil, &job); err != nil {
		return nil, err
	}
	return &job, nil
}
