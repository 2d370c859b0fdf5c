package api

import (
	"encoding/json"
	"errors"
	"net/http"

	service "github.com/petspace/petemotion/internal/app"
	"github.com/petspace/petemotion/pkg/logger"
)

// IdempotencyHeader lets a client retry an analysis without repeating it.
const IdempotencyHeader = "Idempotency-Key"

// analyzeRequest mirrors the OpenAPI schema for POST /analyze-emotion.
type analyzeRequest struct {
	ImageBase64 string `json:"imageBase64"`
	UserID      string `json:"userId"`
	PetID       string `json:"petId,omitempty"`
	Memo        string `json:"memo,omitempty"`
}

// AnalyzeHandler handles emotion analysis requests.
type AnalyzeHandler struct {
	deps         Dependencies
	maxBodyBytes int64
	logger       logger.Logger
}

// NewAnalyzeHandler creates a new analyze handler.
func NewAnalyzeHandler(deps Dependencies, maxBodyBytes int64, l logger.Logger) *AnalyzeHandler {
	return &AnalyzeHandler{deps: deps, maxBodyBytes: maxBodyBytes, logger: l}
}

// HandleAnalyze handles POST /analyze-emotion requests.
func (h *AnalyzeHandler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	const op = "api.analyze_emotion"
	ctx := r.Context()

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST, OPTIONS")
		writeError(ctx, w, h.logger, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed", nil)
		return
	}

	var req analyzeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxBodyBytes)).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(ctx, w, h.logger, http.StatusRequestEntityTooLarge, "payload_too_large",
				"Request body too large", WrapKind(op, ErrPayloadTooLarge, err))
			return
		}
		writeError(ctx, w, h.logger, http.StatusBadRequest, "bad_request", "Invalid JSON body", WrapKind(op, ErrBadRequest, err))
		return
	}

	rec, err := h.deps.Analyze(ctx, service.Request{
		ImageBase64:    req.ImageBase64,
		UserID:         req.UserID,
		PetID:          req.PetID,
		Memo:           req.Memo,
		IdempotencyKey: r.Header.Get(IdempotencyHeader),
	})
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, newSuccessResponse(rec))
	case errors.Is(err, service.ErrMissingFields):
		writeError(ctx, w, h.logger, http.StatusBadRequest, "missing_fields", service.ErrMissingFields.Error(), WrapKind(op, ErrBadRequest, err))
	case errors.Is(err, service.ErrInvalidImage):
		writeError(ctx, w, h.logger, http.StatusBadRequest, "invalid_image", "Invalid image", WrapKind(op, ErrBadRequest, err))
	case errors.Is(err, service.ErrUpload):
		writeError(ctx, w, h.logger, http.StatusInternalServerError, "upload_failed", service.ErrUpload.Error(), WrapKind(op, ErrInternal, err))
	case errors.Is(err, service.ErrSave):
		writeError(ctx, w, h.logger, http.StatusInternalServerError, "save_failed", service.ErrSave.Error(), WrapKind(op, ErrInternal, err))
	default:
		writeError(ctx, w, h.logger, http.StatusInternalServerError, "internal", "Internal server error", WrapKind(op, ErrInternal, err))
	}
}
