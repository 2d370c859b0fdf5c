package image

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for this package.
var (
	ErrInvalidImage  = errors.New("invalid image")
	ErrImageTooLarge = fmt.Errorf("%w: too large", ErrInvalidImage)
)
