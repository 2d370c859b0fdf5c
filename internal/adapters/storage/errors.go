package storage

import "errors"

// ErrUploadFailed reports that an object could not be stored.
var ErrUploadFailed = errors.New("failed to upload image")
