package loadtest

import (
	"fmt"
	"io"
	"os"

	"github.com/petspace/petemotion/pkg/logger"
)

const logFilePermission = 0o600

// SetupLogging initializes the global logger on stdout and, when logFile is
// set, on that file as well.
func SetupLogging(logFile string, verbose bool) error {
	var out io.Writer = os.Stdout
	if logFile != "" {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		out = io.MultiWriter(os.Stdout, file)
	}
	if err := logger.InitWithOptions(logger.Options{Format: logger.FormatText, Output: out}); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		return logger.SetLevelString("debug")
	}
	return nil
}

// ShowHelp prints usage information for the load tool.
func ShowHelp() {
	_, _ = os.Stdout.WriteString(`petemotion load tool
====================

Posts generated pet images to /analyze-emotion, replays some of them with the
same Idempotency-Key and checks every answer against /history/{id}.

Usage:
  go run ./cmd/loadtest [options]

Options:
  -url string        Base URL of the service (default "http://localhost:9080")
  -requests int      Number of analyses to submit (default 200)
  -workers int       Number of concurrent workers (default CPU cores * 2)
  -timeout duration  HTTP request timeout (default 30s)
  -size int          Edge length of generated images (default 64)
  -replay int        Resend every Nth request with its idempotency key (default 10, 0 disables)
  -seed int          Seed for image colors (default 1)
  -output string     Write per-request results to this JSON file
  -log string        Also write logs to this file
  -verbose           Enable verbose logging
  -help              Show this help message

Examples:
  go run ./cmd/loadtest -requests 1000 -workers 16
  go run ./cmd/loadtest -url http://localhost:8080 -output results.json
`)
}
