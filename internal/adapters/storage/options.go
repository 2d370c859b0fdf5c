package storage

import (
	"net/http"
	"time"

	"github.com/petspace/petemotion/pkg/logger"
)

const defaultHTTPTimeout = 30 * time.Second

// common holds settings shared by all uploaders.
type common struct {
	httpClient *http.Client
	logger     logger.Logger
}

func newCommon(opts []Option) common {
	c := common{
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		logger:     logger.NamedOrNop("storage"),
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Option applies a configuration option to an uploader.
type Option func(*common)

// WithHTTPClient sets the HTTP client used by network uploaders.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *common) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(c *common) {
		if l != nil {
			c.logger = l
		}
	}
}
