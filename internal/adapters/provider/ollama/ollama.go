// Package ollama scores pet emotions with a local vision model served by Ollama.
package ollama

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"

	"github.com/petspace/petemotion/internal/adapters/provider/reply"
	"github.com/petspace/petemotion/internal/config"
	"github.com/petspace/petemotion/internal/domain/emotion"
	"github.com/petspace/petemotion/internal/domain/scoring"
	"github.com/petspace/petemotion/pkg/logger"
)

const (
	// Name identifies this provider.
	Name = "ollama"

	defaultModel = "llava"
)

// Client implements scoring.Provider with the Ollama chat API.
type Client struct {
	client  *api.Client
	model   string
	options map[string]any
	logger  logger.Logger
}

type settings struct {
	httpClient *http.Client
	model      string
	options    map[string]any
	logger     logger.Logger
}

// New creates a client for the Ollama server at rawURL. Any path on the URL is ignored.
func New(rawURL string, opts ...Option) (*Client, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}

	s := settings{
		httpClient: http.DefaultClient,
		model:      defaultModel,
		options:    map[string]any{"temperature": 0.4, "top_k": 32, "top_p": 1.0},
		logger:     logger.NamedOrNop(Name),
	}
	for _, opt := range opts {
		opt(&s)
	}

	base := &url.URL{Scheme: parsed.Scheme, Host: parsed.Host}
	return &Client{
		client:  api.NewClient(base, s.httpClient),
		model:   s.model,
		options: s.options,
		logger:  s.logger,
	}, nil
}

// Name implements scoring.Provider.
func (c *Client) Name() string { return Name }

// Credential implements scoring.Provider.
func (c *Client) Credential() string { return config.CredOllama }

// Score sends the prompt and raw image bytes in a single non-streamed chat turn.
func (c *Client) Score(ctx context.Context, img scoring.Image) (emotion.Scores, error) {
	stream := false
	req := &api.ChatRequest{
		Model: c.model,
		Messages: []api.Message{{
			Role:    "user",
			Content: reply.Prompt,
			Images:  []api.ImageData{api.ImageData(img.Data)},
		}},
		Stream:  &stream,
		Options: c.options,
	}

	var content strings.Builder
	err := c.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		content.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return emotion.Scores{}, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	text := strings.TrimSpace(content.String())
	if text == "" {
		return emotion.Scores{}, ErrEmptyReply
	}
	c.logger.Debug(ctx, "ollama reply", logger.Int("chars", len(text)), logger.String("model", c.model))
	return reply.ParseScores(text)
}
