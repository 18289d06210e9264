package history

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	model "github.com/zhouzirui/z-guardian/backend/internal/model/call"
	"github.com/zhouzirui/z-guardian/backend/internal/service/history"
	"github.com/zhouzirui/z-guardian/backend/pkg/utils"
)

// MaxLimit caps the page size a client may ask for.
const MaxLimit = 200

// Handler serves the call history.
type Handler struct {
	store  history.Store
	logger zerolog.Logger
}

// New creates a history handler.
func New(store history.Store, logger zerolog.Logger) *Handler {
	return &Handler{
		store:  store,
		logger: logger.With().Str("component", "history_handler").Logger(),
	}
}

// RegisterRoutes registers the history routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/history", h.handleList)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	limit := history.DefaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			utils.RespondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, MaxLimit)
	}

	entries, err := h.store.List(r.Context(), limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("list history")
		utils.RespondError(w, http.StatusInternalServerError, "failed to load history")
		return
	}
	if entries == nil {
		entries = []model.HistoryEntry{}
	}
	utils.RespondJSON(w, http.StatusOK, entries)
}
