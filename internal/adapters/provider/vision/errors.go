package vision

import "errors"

// ErrRequestFailed reports a transport, status or payload failure of images:annotate.
var ErrRequestFailed = errors.New("vision request failed")
