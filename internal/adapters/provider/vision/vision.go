// Package vision scores pet emotions with the Google Cloud Vision
// images:annotate REST endpoint (face detection and object localization).
package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/petspace/petemotion/internal/config"
	"github.com/petspace/petemotion/internal/domain/emotion"
	"github.com/petspace/petemotion/internal/domain/scoring"
	"github.com/petspace/petemotion/pkg/logger"
)

const (
	// Name identifies this provider.
	Name = "vision"

	defaultEndpoint = "https://vision.googleapis.com"
	annotatePath    = "/v1/images:annotate"
	maxResults      = 10
	sleepinessScale = 0.3
	animalBoost     = 0.2
	maxErrorBody    = 512
)

var animalObjects = map[string]bool{"Dog": true, "Cat": true, "Animal": true}

// Client implements scoring.Provider against the Vision API.
type Client struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
	rnd        scoring.RandomSource
	logger     logger.Logger
}

// New creates a Vision client authenticated with an API key.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		endpoint:   defaultEndpoint,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		rnd:        scoring.NewLockedRandom(time.Now().UnixNano()),
		logger:     logger.NamedOrNop(Name),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name implements scoring.Provider.
func (c *Client) Name() string { return Name }

// Credential implements scoring.Provider.
func (c *Client) Credential() string { return config.CredVision }

// Score sends the image to images:annotate and maps the first face to scores.
// An image without a detectable face yields emotion.ErrNoSignal.
func (c *Client) Score(ctx context.Context, img scoring.Image) (emotion.Scores, error) {
	res, err := c.annotate(ctx, img.Data)
	if err != nil {
		return emotion.Scores{}, err
	}
	c.logger.Debug(ctx, "annotate response",
		logger.Int("faces", len(res.FaceAnnotations)),
		logger.Int("objects", len(res.LocalizedObjectAnnotations)),
	)
	raw, err := RawScores(res.FaceAnnotations, res.LocalizedObjectAnnotations, c.rnd)
	if err != nil {
		return emotion.Scores{}, err
	}
	return emotion.Normalize(raw)
}

func (c *Client) annotate(ctx context.Context, data []byte) (*ImageResponse, error) {
	body, err := json.Marshal(AnnotateRequest{Requests: []ImageRequest{{
		Image: ImageContent{Content: base64.StdEncoding.EncodeToString(data)},
		Features: []Feature{
			{Type: "FACE_DETECTION", MaxResults: maxResults},
			{Type: "OBJECT_LOCALIZATION", MaxResults: maxResults},
		},
	}}})
	if err != nil {
		return nil, fmt.Errorf("encode annotate request: %w", err)
	}

	u := strings.TrimRight(c.endpoint, "/") + annotatePath + "?key=" + url.QueryEscape(c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build annotate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("annotate request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("%w: status %d: %s", ErrRequestFailed, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var out AnnotateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode: %w", ErrRequestFailed, err)
	}
	if len(out.Responses) == 0 {
		return nil, fmt.Errorf("%w: empty responses", ErrRequestFailed)
	}
	first := out.Responses[0]
	if first.Error != nil {
		return nil, fmt.Errorf("%w: code %d: %s", ErrRequestFailed, first.Error.Code, first.Error.Message)
	}
	return &first, nil
}

// LikelihoodScore maps a Vision likelihood label to a score.
func LikelihoodScore(likelihood string) float64 {
	switch likelihood {
	case "VERY_LIKELY":
		return 0.9
	case "LIKELY":
		return 0.7
	case "POSSIBLE":
		return 0.5
	case "UNLIKELY":
		return 0.3
	default:
		return 0.1
	}
}

// RawScores maps the first face to an unnormalized vector: joy, sorrow, anger
// and surprise become happiness, sadness, anxiety and curiosity. Vision has no
// sleepiness signal, so it is a draw from rnd scaled into [0, 0.3). A Dog, Cat
// or Animal object raises curiosity by 0.2, capped at 1.
func RawScores(faces []FaceAnnotation, objects []ObjectAnnotation, rnd scoring.RandomSource) (emotion.Scores, error) {
	// No face falls through to the next provider. The Supabase function this
	// replaces went straight to the random fallback here.
	if len(faces) == 0 {
		return emotion.Scores{}, emotion.ErrNoSignal
	}
	face := faces[0]
	s := emotion.Scores{
		Happiness:  LikelihoodScore(face.JoyLikelihood),
		Sadness:    LikelihoodScore(face.SorrowLikelihood),
		Anxiety:    LikelihoodScore(face.AngerLikelihood),
		Sleepiness: rnd.Float64() * sleepinessScale,
		Curiosity:  LikelihoodScore(face.SurpriseLikelihood),
	}
	for _, o := range objects {
		if animalObjects[o.Name] {
			s.Curiosity = min(s.Curiosity+animalBoost, 1.0)
			break
		}
	}
	return s, nil
}
