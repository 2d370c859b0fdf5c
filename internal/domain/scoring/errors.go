package scoring

import "errors"

// Sentinel error kinds for this package.
var (
	// ErrInvalidImage reports an empty or undecodable image payload.
	ErrInvalidImage = errors.New("invalid image")
	// ErrInvalidScores reports a provider result that is not a normalized distribution.
	ErrInvalidScores = errors.New("provider returned invalid scores")
)
