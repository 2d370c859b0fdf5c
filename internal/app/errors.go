package service

import "errors"

// Sentinel kinds returned by Service. Messages are shown to API clients.
var (
	ErrMissingFields = errors.New("Missing required fields: imageBase64, userId") //nolint:staticcheck // ST1005: client-facing message
	ErrInvalidImage  = errors.New("invalid image")
	ErrUpload        = errors.New("Failed to upload image")         //nolint:staticcheck // ST1005: client-facing message
	ErrSave          = errors.New("Failed to save analysis result") //nolint:staticcheck // ST1005: client-facing message
	ErrNotFound      = errors.New("analysis not found")
)
