package openai

import "errors"

// Sentinel error kinds for this package.
var (
	ErrRequestFailed = errors.New("openai request failed")
	ErrEmptyReply    = errors.New("openai reply is empty")
)
