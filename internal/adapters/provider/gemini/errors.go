package gemini

import "errors"

// Sentinel error kinds for this package.
var (
	ErrRequestFailed = errors.New("gemini request failed")
	ErrEmptyReply    = errors.New("gemini reply is empty")
)
