package emotion

import "errors"

// ErrNoSignal reports that a source produced no usable emotion signal.
// Callers treat it like any other provider failure and move on.
var ErrNoSignal = errors.New("no emotion signal")
