package loadtest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/petspace/petemotion/internal/domain/model"
	"github.com/petspace/petemotion/pkg/logger"
)

// verifyResults checks every returned distribution and compares each
// successful analysis with what /history/{id} has stored.
func verifyResults(ctx context.Context, cfg *Config, results []Result, stats *Stats) error {
	log := logger.Get()
	log.Info(ctx, "verifying results")

	client := newHTTPClient(cfg.Timeout)
	stats.Providers = make(map[string]int)

	var checked, mismatches atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(cfg.Workers, 1))

	for i := range results {
		a := results[i].Analysis
		if a == nil {
			continue
		}
		stats.Providers[a.Provider]++
		if !a.EmotionAnalysis.Valid() {
			stats.InvalidScores++
			log.Warn(ctx, "invalid distribution", logger.Int("index", i), logger.Any("scores", a.EmotionAnalysis))
		}

		g.Go(func() error {
			stored, err := fetchHistory(gctx, client, cfg.BaseURL, a.ID)
			checked.Add(1)
			if err != nil {
				mismatches.Add(1)
				results[i].Error = err.Error()
				return nil
			}
			results[i].Stored = stored
			if stored.EmotionAnalysis != a.EmotionAnalysis || stored.ImageURL != a.ImageURL || stored.Provider != a.Provider {
				mismatches.Add(1)
				if cfg.Verbose {
					log.Warn(gctx, "stored analysis differs from response", logger.String("id", a.ID))
				}
			}
			return nil
		})
	}
	_ = g.Wait()

	stats.HistoryChecked = int(checked.Load())
	stats.HistoryMismatches = int(mismatches.Load())

	switch {
	case stats.InvalidScores > 0:
		return fmt.Errorf("%w: %d responses are not valid distributions", ErrVerification, stats.InvalidScores)
	case stats.HistoryMismatches > 0:
		return fmt.Errorf("%w: %d stored analyses differ", ErrVerification, stats.HistoryMismatches)
	case stats.ReplayMismatches > 0:
		return fmt.Errorf("%w: %d replays returned a different analysis", ErrVerification, stats.ReplayMismatches)
	}
	log.Info(ctx, "verification completed", logger.Int("checked", stats.HistoryChecked))
	return nil
}

func fetchHistory(ctx context.Context, client *httpClient, baseURL, id string) (*model.AnalysisRecord, error) {
	status, body, err := client.Get(ctx, baseURL+"/history/"+id)
	if err != nil {
		return nil, fmt.Errorf("history %s: %w", id, err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("history %s: status %d", id, status)
	}
	var rec model.AnalysisRecord
	if err := json.Unmarshal(body, &rec); err != nil {
		return nil, fmt.Errorf("history %s: %w", id, err)
	}
	return &rec, nil
}
