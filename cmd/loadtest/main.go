package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/petspace/petemotion/internal/loadtest"
)

const (
	defaultRequests    = 200
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTimeout     = 30 * time.Second
	defaultImageSize   = 64
	defaultReplayEvery = 10
	defaultRunTimeout  = 10 * time.Minute
)

func main() {
	var (
		baseURL  = flag.String("url", "http://localhost:9080", "Base URL of the service")
		requests = flag.Int("requests", defaultRequests, "Number of analyses to submit")
		workers  = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout  = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		size     = flag.Int("size", defaultImageSize, "Edge length of generated images")
		replay   = flag.Int("replay", defaultReplayEvery, "Resend every Nth request with its idempotency key (0 disables)")
		seed     = flag.Int64("seed", 1, "Seed for image colors")
		output   = flag.String("output", "", "Write per-request results to this JSON file")
		logFile  = flag.String("log", "", "Also write logs to this file")
		verbose  = flag.Bool("verbose", false, "Enable verbose logging")
		help     = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		loadtest.ShowHelp()
		return
	}

	if err := loadtest.SetupLogging(*logFile, *verbose); err != nil {
		_, _ = os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	cfg := &loadtest.Config{
		BaseURL:     *baseURL,
		Requests:    *requests,
		Workers:     *workers,
		Timeout:     *timeout,
		ImageSize:   *size,
		ReplayEvery: *replay,
		Seed:        *seed,
		OutputFile:  *output,
		Verbose:     *verbose,
	}

	if _, err := loadtest.Run(ctx, cfg); err != nil {
		_, _ = os.Stderr.WriteString("Load run failed: " + err.Error() + "\n")
		cancel()
		os.Exit(1) //nolint:gocritic // cancel is called explicitly above
	}
}
