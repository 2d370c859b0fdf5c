package gemini

import (
	"net/http"

	"google.golang.org/genai"

	"github.com/petspace/petemotion/pkg/logger"
)

// Option applies a configuration option to the Client.
type Option func(*settings)

// WithModel selects the model name.
func WithModel(model string) Option {
	return func(s *settings) {
		if model != "" {
			s.model = model
		}
	}
}

// WithBaseURL overrides the API base URL.
func WithBaseURL(baseURL string) Option {
	return func(s *settings) { s.baseURL = baseURL }
}

// WithHTTPClient sets the HTTP client used by the SDK.
func WithHTTPClient(hc *http.Client) Option {
	return func(s *settings) { s.httpClient = hc }
}

// WithSampling sets temperature, top-k and top-p. Non-positive values keep the defaults.
func WithSampling(temperature, topK, topP float64) Option {
	return func(s *settings) {
		if temperature > 0 {
			s.temperature = float32(temperature)
		}
		if topK > 0 {
			s.topK = float32(topK)
		}
		if topP > 0 {
			s.topP = float32(topP)
		}
	}
}

// WithMaxOutputTokens caps the reply length.
func WithMaxOutputTokens(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.maxOutputTokens = int32(n) //nolint:gosec // bounded by config
		}
	}
}

// WithSafetyThreshold sets the block threshold applied to every harm category,
// e.g. BLOCK_MEDIUM_AND_ABOVE.
func WithSafetyThreshold(threshold string) Option {
	return func(s *settings) {
		if threshold != "" {
			s.threshold = genai.HarmBlockThreshold(threshold)
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
