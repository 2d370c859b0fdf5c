package image

// DefaultMaxPixels bounds width*height of an accepted image.
const DefaultMaxPixels = 40_000_000

// DecodeOption configures Decode.
type DecodeOption func(*decodeOptions)

type decodeOptions struct {
	maxPixels int
}

// WithMaxPixels sets the largest accepted width*height. Values <= 0 keep the default.
func WithMaxPixels(n int) DecodeOption {
	return func(o *decodeOptions) {
		if n > 0 {
			o.maxPixels = n
		}
	}
}

func newDecodeOptions(opts []DecodeOption) decodeOptions {
	o := decodeOptions{maxPixels: DefaultMaxPixels}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
