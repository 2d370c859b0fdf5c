// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	service "github.com/petspace/petemotion/internal/app"
	"github.com/petspace/petemotion/internal/domain/emotion"
	"github.com/petspace/petemotion/internal/domain/model"
	"github.com/petspace/petemotion/pkg/logger"
)

// Dependencies required by HTTP handlers.
type Dependencies interface {
	Analyze(ctx context.Context, req service.Request) (model.AnalysisRecord, error)
	Get(ctx context.Context, id string) (model.AnalysisRecord, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	analyzeHandler *AnalyzeHandler
	historyHandler *HistoryHandler

	corsOrigin string
	imagesDir  string
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	o := newOptions(opts)
	return &Server{
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(statsProvider),
		analyzeHandler: NewAnalyzeHandler(deps, o.maxBodyBytes, o.logger),
		historyHandler: NewHistoryHandler(deps, o.logger),
		corsOrigin:     o.corsOrigin,
		imagesDir:      o.imagesDir,
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	cors := func(next http.HandlerFunc) http.HandlerFunc { return CORSMiddleware(next, s.corsOrigin) }

	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/analyze-emotion", MetricsMiddleware(cors(s.analyzeHandler.HandleAnalyze), "analyze"))
	mux.HandleFunc("/functions/v1/analyze-emotion", MetricsMiddleware(cors(s.analyzeHandler.HandleAnalyze), "analyze"))
	mux.HandleFunc("/history/", MetricsMiddleware(cors(s.historyHandler.HandleGetHistory), "history"))

	if s.imagesDir != "" {
		files := http.StripPrefix("/images/", http.FileServer(http.Dir(s.imagesDir)))
		mux.Handle("/images/", files)
	}
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type analysisData struct {
	ID              string         `json:"id"`
	EmotionAnalysis emotion.Scores `json:"emotion_analysis"`
	ImageURL        string         `json:"image_url"`
	CreatedAt       time.Time      `json:"created_at"`
	Provider        string         `json:"provider"`
}

type successResponse struct {
	Success bool         `json:"success"`
	Data    analysisData `json:"data"`
}

func newSuccessResponse(rec model.AnalysisRecord) successResponse { //nolint:gocritic // hugeParam: records are values
	return successResponse{
		Success: true,
		Data: analysisData{
			ID:              rec.ID,
			EmotionAnalysis: rec.EmotionAnalysis,
			ImageURL:        rec.ImageURL,
			CreatedAt:       rec.CreatedAt,
			Provider:        rec.Provider,
		},
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError sends the client-facing message; details stay in the log.
func writeError(ctx context.Context, w http.ResponseWriter, l logger.Logger, status int, code, msg string, err error) {
	if err != nil {
		if status >= http.StatusInternalServerError {
			l.Error(ctx, msg, logger.String("code", code), logger.Error(err))
		} else {
			l.Debug(ctx, msg, logger.String("code", code), logger.Error(err))
		}
	}
	writeJSON(w, status, errorResponse{Error: msg, Code: code})
}
