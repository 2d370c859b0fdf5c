package repository

import "errors"

// Sentinel kinds for history errors.
var (
	ErrNotFound     = errors.New("analysis not found")
	ErrInsertFailed = errors.New("failed to save analysis result")
)
