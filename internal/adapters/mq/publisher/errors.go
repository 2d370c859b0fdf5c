package publisher

import "errors"

// ErrPublishFailed reports that the broker rejected or could not receive an event.
var ErrPublishFailed = errors.New("failed to publish event")
