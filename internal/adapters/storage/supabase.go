package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/petspace/petemotion/pkg/logger"
	"github.com/petspace/petemotion/pkg/metrics"
)

const maxErrorBody = 512

// SupabaseUploader writes objects through the Supabase Storage REST API.
type SupabaseUploader struct {
	common
	baseURL    string
	serviceKey string
	bucket     string
}

// NewSupabaseUploader creates an uploader for bucket on the project at baseURL,
// authenticated with a service role key.
func NewSupabaseUploader(baseURL, serviceKey, bucket string, opts ...Option) *SupabaseUploader {
	return &SupabaseUploader{
		common:     newCommon(opts),
		baseURL:    strings.TrimRight(baseURL, "/"),
		serviceKey: serviceKey,
		bucket:     bucket,
	}
}

// Upload creates the object without overwriting and returns its public URL.
func (s *SupabaseUploader) Upload(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	start := time.Now()
	defer func() { metrics.RecordStorageLatency("upload", float64(time.Since(start).Milliseconds())) }()

	u := fmt.Sprintf("%s/storage/v1/object/%s/%s", s.baseURL, s.bucket, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: build request: %w", ErrUploadFailed, err)
	}
	req.Header.Set("Authorization", "Bearer "+s.serviceKey)
	req.Header.Set("apikey", s.serviceKey)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Cache-Control", "max-age="+strconv.Itoa(CacheControlSeconds))
	req.Header.Set("x-upsert", "false")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		metrics.RecordStorageError("upload")
		return "", fmt.Errorf("%w: %w", ErrUploadFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.RecordStorageError("upload")
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", fmt.Errorf("%w: status %d: %s", ErrUploadFailed, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	public := fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.baseURL, s.bucket, path)
	s.logger.Debug(ctx, "object uploaded", logger.String("path", path), logger.Int("bytes", len(data)))
	return public, nil
}
