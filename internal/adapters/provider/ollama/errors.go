package ollama

import "errors"

// Sentinel error kinds for this package.
var (
	ErrInvalidURL    = errors.New("invalid ollama url")
	ErrRequestFailed = errors.New("ollama request failed")
	ErrEmptyReply    = errors.New("ollama reply is empty")
)
