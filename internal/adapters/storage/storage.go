// Package storage uploads analyzed photos and returns their public URLs.
package storage

import (
	"context"
	"fmt"
	"net/url"
	"time"
)

const (
	// ContentTypeJPEG is the content type stored objects are tagged with.
	ContentTypeJPEG = "image/jpeg"
	// CacheControlSeconds is the max-age sent with uploads.
	CacheControlSeconds = 3600
)

// Uploader stores an object and returns the URL clients can fetch it from.
type Uploader interface {
	Upload(ctx context.Context, path string, data []byte, contentType string) (string, error)
}

// ObjectPath returns the object key for a user's photo taken at now:
// emotions/<userId>/<unixMillis>.jpg.
func ObjectPath(userID string, now time.Time) string {
	return fmt.Sprintf("emotions/%s/%d.jpg", url.PathEscape(userID), now.UnixMilli())
}
