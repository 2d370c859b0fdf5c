package api

import "github.com/petspace/petemotion/pkg/logger"

const defaultMaxBodyBytes = 16 << 20

type options struct {
	corsOrigin   string
	maxBodyBytes int64
	imagesDir    string
	logger       logger.Logger
}

func newOptions(opts []Option) options {
	o := options{
		corsOrigin:   "*",
		maxBodyBytes: defaultMaxBodyBytes,
		logger:       logger.NamedOrNop("api"),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Option applies a configuration option to the Server.
type Option func(*options)

// WithCORSOrigin sets Access-Control-Allow-Origin.
func WithCORSOrigin(origin string) Option {
	return func(o *options) {
		if origin != "" {
			o.corsOrigin = origin
		}
	}
}

// WithMaxImageBytes sizes the request body limit for images of up to n decoded bytes.
func WithMaxImageBytes(n int) Option {
	return func(o *options) {
		if n > 0 {
			// base64 grows data by 4/3; leave room for the other fields.
			o.maxBodyBytes = int64(n)/3*4 + 4 + 64<<10
		}
	}
}

// WithImagesDir serves locally stored photos under /images/.
func WithImagesDir(dir string) Option {
	return func(o *options) {
		o.imagesDir = dir
	}
}

// WithLogger sets a custom logger for handlers.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}
