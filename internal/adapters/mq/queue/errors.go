package queue

import "errors"

// ErrQueueFull reports that an event was dropped because the queue was full or closed.
var ErrQueueFull = errors.New("event queue full")
