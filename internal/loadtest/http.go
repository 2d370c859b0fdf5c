package loadtest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/petspace/petemotion/pkg/logger"
)

const (
	idempotencyHeader = "Idempotency-Key"
	reportInterval    = time.Second
)

// httpClient wraps http.Client with a timeout.
type httpClient struct {
	client *http.Client
}

func newHTTPClient(timeout time.Duration) *httpClient {
	return &httpClient{client: &http.Client{Timeout: timeout}}
}

// Get performs a GET request and returns the status and body.
func (c *httpClient) Get(ctx context.Context, url string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(req)
}

// Post performs a POST request with a JSON body.
func (c *httpClient) Post(ctx context.Context, url string, body any, headers map[string]string) (int, []byte, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return c.do(req)
}

func (c *httpClient) do(req *http.Request) (int, []byte, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read body: %w", err)
	}
	return resp.StatusCode, body, nil
}

// submitJobs posts every job with cfg.Workers in flight and replays every
// cfg.ReplayEvery-th job with the same idempotency key.
func submitJobs(ctx context.Context, cfg *Config, jobs []job, stats *Stats) []Result {
	log := logger.Get()
	log.Info(ctx, "submitting requests", logger.Int("requests", len(jobs)), logger.Int("workers", cfg.Workers))

	client := newHTTPClient(cfg.Timeout)
	url := cfg.BaseURL + "/analyze-emotion"
	results := make([]Result, len(jobs))

	var (
		submitted, succeeded, failed atomic.Int64
		replays, mismatches          atomic.Int64
		mu                           sync.Mutex
		lastReport                   time.Time
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(cfg.Workers, 1))
	for i := range jobs {
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			j := jobs[i]
			headers := map[string]string{idempotencyHeader: j.IdempotencyKey}
			results[i] = submitOne(gctx, client, url, i, j, headers)
			submitted.Add(1)
			if results[i].Analysis == nil {
				failed.Add(1)
			} else {
				succeeded.Add(1)
			}

			if cfg.ReplayEvery > 0 && i%cfg.ReplayEvery == 0 && results[i].Analysis != nil {
				replay := submitOne(gctx, client, url, i, j, headers)
				replays.Add(1)
				if replay.Analysis == nil || replay.Analysis.ID != results[i].Analysis.ID {
					mismatches.Add(1)
					if cfg.Verbose {
						log.Warn(gctx, "replay returned a different analysis", logger.Int("index", i))
					}
				}
			}

			mu.Lock()
			if time.Since(lastReport) >= reportInterval {
				lastReport = time.Now()
				log.Info(gctx, "progress",
					logger.Any("submitted", submitted.Load()),
					logger.Int("total", len(jobs)),
					logger.Any("succeeded", succeeded.Load()),
					logger.Any("failed", failed.Load()))
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	stats.RequestsSubmitted = int(submitted.Load())
	stats.RequestsSucceeded = int(succeeded.Load())
	stats.RequestsFailed = int(failed.Load())
	stats.Replays = int(replays.Load())
	stats.ReplayMismatches = int(mismatches.Load())

	log.Info(ctx, "submission completed",
		logger.Int("succeeded", stats.RequestsSucceeded),
		logger.Int("failed", stats.RequestsFailed),
		logger.Int("replays", stats.Replays),
		logger.Int("replayMismatches", stats.ReplayMismatches))
	return results
}

func submitOne(ctx context.Context, client *httpClient, url string, index int, j job, headers map[string]string) Result {
	res := Result{Index: index}
	status, body, err := client.Post(ctx, url, j.Request, headers)
	res.Status = status
	if err != nil {
		res.Error = err.Error()
		return res
	}

	var ar analyzeResponse
	if err := json.Unmarshal(body, &ar); err != nil {
		res.Error = fmt.Sprintf("invalid response body: %v", err)
		return res
	}
	if status != http.StatusOK || !ar.Success {
		res.Error = fmt.Sprintf("%s: %s", ar.Code, ar.Error)
		return res
	}
	res.Analysis = &ar.Data
	return res
}
