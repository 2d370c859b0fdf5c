package vision

import (
	"net/http"

	"github.com/petspace/petemotion/internal/domain/scoring"
	"github.com/petspace/petemotion/pkg/logger"
)

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithEndpoint overrides the API base URL.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) {
		if endpoint != "" {
			c.endpoint = endpoint
		}
	}
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithRandomSource injects the source for the sleepiness placeholder.
func WithRandomSource(r scoring.RandomSource) Option {
	return func(c *Client) {
		if r != nil {
			c.rnd = r
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}
