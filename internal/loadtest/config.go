package loadtest

import (
	"time"

	"github.com/petspace/petemotion/internal/domain/emotion"
	"github.com/petspace/petemotion/internal/domain/model"
)

// Config holds configuration for a load run.
type Config struct {
	BaseURL     string        // Base URL of the service
	Requests    int           // Number of analyses to submit
	Workers     int           // Number of concurrent workers
	Timeout     time.Duration // HTTP request timeout
	ImageSize   int           // Edge length of generated images in pixels
	ReplayEvery int           // Every Nth request is resent with the same idempotency key; 0 disables
	Seed        int64         // Seed for image colors
	OutputFile  string        // Output file for results
	Verbose     bool          // Enable verbose logging
}

// AnalyzeRequest is the body posted to /analyze-emotion.
type AnalyzeRequest struct {
	ImageBase64 string `json:"imageBase64"`
	UserID      string `json:"userId"`
	PetID       string `json:"petId,omitempty"`
	Memo        string `json:"memo,omitempty"`
}

// Analysis is the data block of a successful analyze response.
type Analysis struct {
	ID              string         `json:"id"`
	EmotionAnalysis emotion.Scores `json:"emotion_analysis"`
	ImageURL        string         `json:"image_url"`
	CreatedAt       time.Time      `json:"created_at"`
	Provider        string         `json:"provider"`
}

type analyzeResponse struct {
	Success bool     `json:"success"`
	Data    Analysis `json:"data"`
	Error   string   `json:"error"`
	Code    string   `json:"code"`
}

// job is one generated request plus the idempotency key it is sent with.
type job struct {
	Request        AnalyzeRequest
	IdempotencyKey string
}

// Result is the outcome of one submitted job.
type Result struct {
	Index    int                   `json:"index"`
	Status   int                   `json:"status"`
	Analysis *Analysis             `json:"analysis,omitempty"`
	Stored   *model.AnalysisRecord `json:"stored,omitempty"`
	Error    string                `json:"error,omitempty"`
}

// Stats holds run statistics.
type Stats struct {
	RequestsGenerated int
	RequestsSubmitted int
	RequestsSucceeded int
	RequestsFailed    int
	Replays           int
	ReplayMismatches  int
	HistoryChecked    int
	HistoryMismatches int
	InvalidScores     int
	Providers         map[string]int
	StartTime         time.Time
	EndTime           time.Time
	Duration          time.Duration
}
