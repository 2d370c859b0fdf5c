package ollama

import (
	"net/http"

	"github.com/petspace/petemotion/pkg/logger"
)

// Option applies a configuration option to the Client.
type Option func(*settings)

// WithModel selects the vision model.
func WithModel(model string) Option {
	return func(s *settings) {
		if model != "" {
			s.model = model
		}
	}
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(s *settings) {
		if hc != nil {
			s.httpClient = hc
		}
	}
}

// WithSampling sets temperature, top_k and top_p. Non-positive values keep the defaults.
func WithSampling(temperature, topK, topP float64) Option {
	return func(s *settings) {
		if temperature > 0 {
			s.options["temperature"] = temperature
		}
		if topK > 0 {
			s.options["top_k"] = int(topK)
		}
		if topP > 0 {
			s.options["top_p"] = topP
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}
