package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/petspace/petemotion/pkg/logger"
	"github.com/petspace/petemotion/pkg/metrics"
)

// FileUploader writes objects below a local directory. Public URLs are built
// from a base URL, which the HTTP server can serve the directory under.
type FileUploader struct {
	common
	dir     string
	baseURL string
}

// NewFileUploader creates an uploader rooted at dir.
func NewFileUploader(dir, publicBaseURL string, opts ...Option) *FileUploader {
	return &FileUploader{
		common:  newCommon(opts),
		dir:     dir,
		baseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

// Dir returns the root directory.
func (f *FileUploader) Dir() string { return f.dir }

// Upload writes data to dir/path. Existing objects are not overwritten.
func (f *FileUploader) Upload(ctx context.Context, path string, data []byte, _ string) (string, error) {
	start := time.Now()
	defer func() { metrics.RecordStorageLatency("upload", float64(time.Since(start).Milliseconds())) }()

	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %w", ErrUploadFailed, err)
	}

	root, err := filepath.Abs(f.dir)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUploadFailed, err)
	}
	target := filepath.Join(root, filepath.FromSlash(path))
	if rel, err := filepath.Rel(root, target); err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: path %q escapes storage dir", ErrUploadFailed, path)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		metrics.RecordStorageError("upload")
		return "", fmt.Errorf("%w: %w", ErrUploadFailed, err)
	}
	fh, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644) //nolint:gosec // path is confined to root above
	if err != nil {
		metrics.RecordStorageError("upload")
		return "", fmt.Errorf("%w: %w", ErrUploadFailed, err)
	}
	if _, err := fh.Write(data); err != nil {
		_ = fh.Close()
		metrics.RecordStorageError("upload")
		return "", fmt.Errorf("%w: %w", ErrUploadFailed, err)
	}
	if err := fh.Close(); err != nil {
		metrics.RecordStorageError("upload")
		return "", fmt.Errorf("%w: %w", ErrUploadFailed, err)
	}

	f.logger.Debug(ctx, "object written", logger.String("path", target))
	return f.baseURL + "/" + path, nil
}
