package dedupe

import "errors"

// ErrStoreUnavailable reports that the backing store could not be reached.
var ErrStoreUnavailable = errors.New("idempotency store unavailable")
