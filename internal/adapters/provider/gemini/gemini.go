// Package gemini scores pet emotions with a Gemini generateContent call and
// parses the scores out of the free-text reply.
package gemini

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/petspace/petemotion/internal/adapters/provider/reply"
	"github.com/petspace/petemotion/internal/config"
	"github.com/petspace/petemotion/internal/domain/emotion"
	"github.com/petspace/petemotion/internal/domain/scoring"
	"github.com/petspace/petemotion/pkg/logger"
)

const (
	// Name identifies this provider.
	Name = "gemini"

	defaultModel           = "gemini-1.5-flash"
	defaultTemperature     = 0.4
	defaultTopK            = 32
	defaultTopP            = 1
	defaultMaxOutputTokens = 4096
)

var safetyCategories = []genai.HarmCategory{
	genai.HarmCategoryHarassment,
	genai.HarmCategoryHateSpeech,
	genai.HarmCategorySexuallyExplicit,
	genai.HarmCategoryDangerousContent,
}

// Client implements scoring.Provider against the Gemini API.
type Client struct {
	client *genai.Client
	model  string
	gen    *genai.GenerateContentConfig
	logger logger.Logger
}

type settings struct {
	model           string
	baseURL         string
	httpClient      *http.Client
	temperature     float32
	topK            float32
	topP            float32
	maxOutputTokens int32
	threshold       genai.HarmBlockThreshold
	logger          logger.Logger
}

// New creates a Gemini client authenticated with an API key.
func New(ctx context.Context, apiKey string, opts ...Option) (*Client, error) {
	s := settings{
		model:           defaultModel,
		temperature:     defaultTemperature,
		topK:            defaultTopK,
		topP:            defaultTopP,
		maxOutputTokens: defaultMaxOutputTokens,
		threshold:       genai.HarmBlockThresholdBlockMediumAndAbove,
		logger:          logger.NamedOrNop(Name),
	}
	for _, opt := range opts {
		opt(&s)
	}

	cc := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: s.httpClient,
	}
	if s.baseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: s.baseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	safety := make([]*genai.SafetySetting, 0, len(safetyCategories))
	for _, cat := range safetyCategories {
		safety = append(safety, &genai.SafetySetting{Category: cat, Threshold: s.threshold})
	}

	return &Client{
		client: client,
		model:  s.model,
		gen: &genai.GenerateContentConfig{
			Temperature:     genai.Ptr(s.temperature),
			TopK:            genai.Ptr(s.topK),
			TopP:            genai.Ptr(s.topP),
			MaxOutputTokens: s.maxOutputTokens,
			SafetySettings:  safety,
		},
		logger: s.logger,
	}, nil
}

// Name implements scoring.Provider.
func (c *Client) Name() string { return Name }

// Credential implements scoring.Provider.
func (c *Client) Credential() string { return config.CredGemini }

// Score sends the prompt and image to the model and parses the reply.
func (c *Client) Score(ctx context.Context, img scoring.Image) (emotion.Scores, error) {
	mime := img.MIMEType
	if mime == "" {
		mime = "image/jpeg"
	}
	contents := []*genai.Content{genai.NewContentFromParts([]*genai.Part{
		{Text: reply.Prompt},
		{InlineData: &genai.Blob{MIMEType: mime, Data: img.Data}},
	}, genai.RoleUser)}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, c.gen)
	if err != nil {
		return emotion.Scores{}, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	if len(resp.Candidates) == 0 {
		return emotion.Scores{}, fmt.Errorf("%w: no candidates", ErrEmptyReply)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return emotion.Scores{}, fmt.Errorf("%w: no text", ErrEmptyReply)
	}
	c.logger.Debug(ctx, "gemini reply", logger.Int("chars", len(text)))

	return reply.ParseScores(text)
}
