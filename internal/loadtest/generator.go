package loadtest

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"math/rand"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"github.com/petspace/petemotion/pkg/logger"
)

const (
	defaultImageSize = 64
	petsPerUser      = 4
)

var memos = []string{"", "after the walk", "before dinner", "vet visit", "new toy"}

// generateJobs builds cfg.Requests analyze requests, each with its own image,
// user and idempotency key. Object paths are per user and millisecond, so
// sharing a user across concurrent requests would collide in storage.
func generateJobs(ctx context.Context, cfg *Config, stats *Stats) ([]job, error) {
	logger.Get().Info(ctx, "generating requests", logger.Int("requests", cfg.Requests))

	size := cfg.ImageSize
	if size <= 0 {
		size = defaultImageSize
	}
	rng := rand.New(rand.NewSource(cfg.Seed)) //nolint:gosec // colors only

	jobs := make([]job, cfg.Requests)
	for i := range jobs {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("context cancelled during generation: %w", err)
		}
		img, err := generateImage(rng, size)
		if err != nil {
			return nil, fmt.Errorf("failed to generate image %d: %w", i, err)
		}
		jobs[i] = job{
			Request: AnalyzeRequest{
				ImageBase64: img,
				UserID:      uuid.NewString(),
				PetID:       fmt.Sprintf("pet-%d", i%petsPerUser),
				Memo:        memos[i%len(memos)],
			},
			IdempotencyKey: uuid.NewString(),
		}
	}

	stats.RequestsGenerated = len(jobs)
	logger.Get().Info(ctx, "generated requests", logger.Int("count", len(jobs)))
	return jobs, nil
}

// generateImage returns a base64 PNG split into two random color bands.
func generateImage(rng *rand.Rand, size int) (string, error) {
	top := color.NRGBA{R: uint8(rng.Intn(256)), G: uint8(rng.Intn(256)), B: uint8(rng.Intn(256)), A: 255}
	bottom := color.NRGBA{R: uint8(rng.Intn(256)), G: uint8(rng.Intn(256)), B: uint8(rng.Intn(256)), A: 255}

	img := imaging.New(size, size, top)
	band := imaging.New(size, size/2, bottom)
	img = imaging.Paste(img, band, image.Pt(0, size/2))

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
