// Package openai scores pet emotions with an OpenAI-compatible vision chat
// completion. The reply is parsed like any other generative provider.
package openai

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/petspace/petemotion/internal/adapters/provider/reply"
	"github.com/petspace/petemotion/internal/config"
	"github.com/petspace/petemotion/internal/domain/emotion"
	"github.com/petspace/petemotion/internal/domain/scoring"
	"github.com/petspace/petemotion/pkg/logger"
)

const (
	// Name identifies this provider.
	Name = "openai"

	defaultModel       = "gpt-4o-mini"
	defaultTemperature = 0.4
	defaultMaxTokens   = 512
)

// Client implements scoring.Provider with go-openai.
type Client struct {
	client      *goopenai.Client
	model       string
	temperature float32
	maxTokens   int
	logger      logger.Logger
}

type settings struct {
	baseURL     string
	httpClient  goopenai.HTTPDoer
	model       string
	temperature float32
	maxTokens   int
	logger      logger.Logger
}

// New creates a client authenticated with an API key.
func New(apiKey string, opts ...Option) *Client {
	s := settings{
		model:       defaultModel,
		temperature: defaultTemperature,
		maxTokens:   defaultMaxTokens,
		logger:      logger.NamedOrNop(Name),
	}
	for _, opt := range opts {
		opt(&s)
	}

	cfg := goopenai.DefaultConfig(apiKey)
	if s.baseURL != "" {
		cfg.BaseURL = s.baseURL
	}
	if s.httpClient != nil {
		cfg.HTTPClient = s.httpClient
	}
	return &Client{
		client:      goopenai.NewClientWithConfig(cfg),
		model:       s.model,
		temperature: s.temperature,
		maxTokens:   s.maxTokens,
		logger:      s.logger,
	}
}

// Name implements scoring.Provider.
func (c *Client) Name() string { return Name }

// Credential implements scoring.Provider.
func (c *Client) Credential() string { return config.CredOpenAI }

// Score asks the model for the five scores with the image attached as a data URL.
func (c *Client) Score(ctx context.Context, img scoring.Image) (emotion.Scores, error) {
	mime := img.MIMEType
	if mime == "" {
		mime = "image/jpeg"
	}
	dataURL := fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(img.Data))

	resp, err := c.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
		Messages: []goopenai.ChatCompletionMessage{{
			Role: goopenai.ChatMessageRoleUser,
			MultiContent: []goopenai.ChatMessagePart{
				{Type: goopenai.ChatMessagePartTypeText, Text: reply.Prompt},
				{Type: goopenai.ChatMessagePartTypeImageURL, ImageURL: &goopenai.ChatMessageImageURL{
					URL:    dataURL,
					Detail: goopenai.ImageURLDetailLow,
				}},
			},
		}},
	})
	if err != nil {
		return emotion.Scores{}, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	if len(resp.Choices) == 0 {
		return emotion.Scores{}, fmt.Errorf("%w: no choices", ErrEmptyReply)
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return emotion.Scores{}, fmt.Errorf("%w: no text", ErrEmptyReply)
	}
	c.logger.Debug(ctx, "openai reply", logger.Int("chars", len(text)), logger.String("model", resp.Model))
	return reply.ParseScores(text)
}
