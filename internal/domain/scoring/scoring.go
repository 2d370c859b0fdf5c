// Package scoring selects an emotion source for an image. Providers are tried
// in priority order and the first success wins; when none is configured or
// all of them fail, a Fallback produces a normalized vector so a caller always
// receives a result.
package scoring

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/petspace/petemotion/internal/domain/emotion"
	"github.com/petspace/petemotion/pkg/logger"
	"github.com/petspace/petemotion/pkg/metrics"
)

// FallbackName is reported as the provider of a fallback-generated result.
const FallbackName = "fallback"

const defaultProviderTimeout = 20 * time.Second

// Image is the payload handed to providers.
type Image struct {
	Data     []byte
	MIMEType string
}

// Credentials reports which provider credentials are configured, keyed by credential name.
type Credentials map[string]bool

// Result is the outcome of one analysis.
type Result struct {
	Scores   emotion.Scores
	Provider string
}

// Provider turns an image into a normalized emotion vector.
type Provider interface {
	// Name identifies the provider in logs, metrics and results.
	Name() string
	// Credential names the entry in Credentials that must be present for the provider to run.
	Credential() string
	// Score classifies img, honoring ctx for cancellation.
	Score(ctx context.Context, img Image) (emotion.Scores, error)
}

// Chain tries providers in order and falls back to a generated vector.
type Chain struct {
	providers []Provider
	fallback  *Fallback
	timeout   time.Duration
	logger    logger.Logger
}

// NewChain creates a chain over providers in priority order. A nil fallback
// gets a default one.
func NewChain(providers []Provider, fallback *Fallback, opts ...ChainOption) *Chain {
	if fallback == nil {
		fallback = NewFallback()
	}
	c := &Chain{
		providers: append([]Provider(nil), providers...),
		fallback:  fallback,
		timeout:   defaultProviderTimeout,
		logger:    logger.NamedOrNop("chain"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Providers returns the provider names in priority order.
func (c *Chain) Providers() []string {
	names := make([]string, 0, len(c.providers))
	for _, p := range c.providers {
		names = append(names, p.Name())
	}
	return names
}

// Analyze returns the first provider result or the fallback vector. The only
// error is ErrInvalidImage for an empty payload; provider failures are logged
// and skipped.
func (c *Chain) Analyze(ctx context.Context, img Image, creds Credentials) (Result, error) {
	if len(img.Data) == 0 {
		return Result{}, ErrInvalidImage
	}

	for _, p := range c.providers {
		if ctx.Err() != nil {
			c.logger.Warn(ctx, "request cancelled, skipping remaining providers", logger.Error(ctx.Err()))
			break
		}
		if !creds[p.Credential()] {
			c.logger.Debug(ctx, "provider not configured", logger.String("provider", p.Name()))
			metrics.RecordProviderAttempt(p.Name(), metrics.OutcomeSkipped, 0)
			continue
		}

		scores, err := c.attempt(ctx, p, img)
		if err != nil {
			continue
		}
		metrics.RecordAnalysis(p.Name())
		return Result{Scores: scores, Provider: p.Name()}, nil
	}

	metrics.RecordFallback()
	metrics.RecordAnalysis(FallbackName)
	c.logger.Info(ctx, "using fallback scores")
	return Result{Scores: c.fallback.Generate(ctx), Provider: FallbackName}, nil
}

func (c *Chain) attempt(ctx context.Context, p Provider, img Image) (emotion.Scores, error) {
	actx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	scores, err := p.Score(actx, img)
	elapsed := time.Since(start)
	latency := float64(elapsed.Milliseconds())

	if err == nil && !scores.Valid() {
		err = fmt.Errorf("%w: %+v", ErrInvalidScores, scores)
	}
	if err != nil {
		outcome := metrics.OutcomeFailed
		switch {
		case errors.Is(err, emotion.ErrNoSignal):
			outcome = metrics.OutcomeNoSignal
		case errors.Is(err, context.DeadlineExceeded):
			outcome = metrics.OutcomeTimeout
		}
		metrics.RecordProviderAttempt(p.Name(), outcome, latency)
		metrics.RecordErrorByComponent(p.Name(), outcome)
		c.logger.Warn(ctx, "provider failed, trying next",
			logger.String("provider", p.Name()),
			logger.String("outcome", outcome),
			logger.Duration("elapsed", elapsed),
			logger.Error(err),
		)
		return emotion.Scores{}, err
	}

	metrics.RecordProviderAttempt(p.Name(), metrics.OutcomeSucceeded, latency)
	c.logger.Debug(ctx, "provider succeeded",
		logger.String("provider", p.Name()),
		logger.Duration("elapsed", elapsed),
	)
	return scores, nil
}
