package api

import (
	"errors"
	"net/http"
	"strings"

	service "github.com/petspace/petemotion/internal/app"
	"github.com/petspace/petemotion/pkg/logger"
)

// HistoryHandler serves stored analyses.
type HistoryHandler struct {
	deps   Dependencies
	logger logger.Logger
}

// NewHistoryHandler creates a new history handler.
func NewHistoryHandler(deps Dependencies, l logger.Logger) *HistoryHandler {
	return &HistoryHandler{deps: deps, logger: l}
}

// HandleGetHistory handles GET /history/{id} requests.
func (h *HistoryHandler) HandleGetHistory(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_history"
	ctx := r.Context()

	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/history/")
	if id == "" || strings.Contains(id, "/") {
		writeError(ctx, w, h.logger, http.StatusBadRequest, "bad_request", "missing analysis id", NewKind(op, ErrBadRequest))
		return
	}

	rec, err := h.deps.Get(ctx, id)
	if errors.Is(err, service.ErrNotFound) {
		writeError(ctx, w, h.logger, http.StatusNotFound, "not_found", "analysis not found", WrapKind(op, ErrNotFound, err))
		return
	}
	if err != nil {
		writeError(ctx, w, h.logger, http.StatusInternalServerError, "internal", "Internal server error", WrapKind(op, ErrInternal, err))
		return
	}
	writeJSON(w, http.StatusOK, rec)
}
