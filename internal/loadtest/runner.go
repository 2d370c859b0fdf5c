package loadtest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/petspace/petemotion/pkg/logger"
)

const (
	directoryPermission  = 0o750
	filePermission       = 0o600
	percentageMultiplier = 100
)

// Run executes a complete load run and returns the collected statistics.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	stats := &Stats{StartTime: time.Now()}

	logger.Get().Info(ctx, "starting analyze-emotion load run",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("requests", cfg.Requests),
		logger.Int("workers", cfg.Workers),
		logger.Duration("timeout", cfg.Timeout),
		logger.Int("replayEvery", cfg.ReplayEvery))

	if err := checkServiceHealth(ctx, cfg); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	jobs, err := generateJobs(ctx, cfg, stats)
	if err != nil {
		return stats, fmt.Errorf("request generation failed: %w", err)
	}

	results := submitJobs(ctx, cfg, jobs, stats)
	verifyErr := verifyResults(ctx, cfg, results, stats)

	if cfg.OutputFile != "" {
		if err := saveResults(ctx, cfg.OutputFile, results); err != nil {
			logger.Get().Warn(ctx, "failed to save results", logger.Error(err))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)

	if verifyErr != nil {
		return stats, verifyErr
	}
	logger.Get().Info(ctx, "load run completed successfully")
	return stats, nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, cfg *Config) error {
	status, _, err := newHTTPClient(cfg.Timeout).Get(ctx, cfg.BaseURL+"/healthz")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnhealthy, err)
	}
	// /healthz serves Prometheus text; any 200 counts.
	if status != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnhealthy, status)
	}
	return nil
}

// saveResults writes the per-request results as a JSON array.
func saveResults(ctx context.Context, filename string, results []Result) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	if err := os.WriteFile(filename, data, filePermission); err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}
	logger.Get().Info(ctx, "results saved", logger.String("filename", filename))
	return nil
}

func displayFinalStats(ctx context.Context, stats *Stats) {
	var successRate, perSecond float64
	if stats.RequestsSubmitted > 0 {
		successRate = float64(stats.RequestsSucceeded) / float64(stats.RequestsSubmitted) * percentageMultiplier
	}
	if stats.Duration > 0 {
		perSecond = float64(stats.RequestsSubmitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(ctx, "final statistics",
		logger.Int("generated", stats.RequestsGenerated),
		logger.Int("submitted", stats.RequestsSubmitted),
		logger.Int("succeeded", stats.RequestsSucceeded),
		logger.Int("failed", stats.RequestsFailed),
		logger.Int("replays", stats.Replays),
		logger.Int("historyChecked", stats.HistoryChecked),
		logger.Int("historyMismatches", stats.HistoryMismatches),
		logger.Int("invalidScores", stats.InvalidScores),
		logger.Any("providers", stats.Providers),
		logger.Duration("duration", stats.Duration),
		logger.Float64("successRate", successRate),
		logger.Float64("requestsPerSecond", perSecond))
}
