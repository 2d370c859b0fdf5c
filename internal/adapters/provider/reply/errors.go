package reply

import "errors"

// Sentinel error kinds for this package.
var (
	ErrNoJSON    = errors.New("no JSON object in reply")
	ErrMalformed = errors.New("malformed JSON object in reply")
)
