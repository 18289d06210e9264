package stream

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	callhandler "github.com/zhouzirui/z-guardian/backend/internal/handler/call"
	callService "github.com/zhouzirui/z-guardian/backend/internal/service/call"
	"github.com/zhouzirui/z-guardian/backend/pkg/utils"
)

// DefaultHeartbeat is how often an idle stream sends a keep-alive comment.
const DefaultHeartbeat = 15 * time.Second

// EventSnapshot is the first event of every stream.
const EventSnapshot = "snapshot"

// Handler streams call events via Server-Sent Events
type Handler struct {
	calls     *callService.Manager
	hub       *callService.Hub
	heartbeat time.Duration
	logger    zerolog.Logger
}

// New creates a new stream handler
func New(calls *callService.Manager, hub *callService.Hub, logger zerolog.Logger) *Handler {
	return &Handler{
		calls:     calls,
		hub:       hub,
		heartbeat: DefaultHeartbeat,
		logger:    logger.With().Str("component", "sse").Logger(),
	}
}

// WithHeartbeat overrides the keep-alive interval.
func (h *Handler) WithHeartbeat(d time.Duration) *Handler {
	if d > 0 {
		h.heartbeat = d
	}
	return h
}

// RegisterRoutes registers the event stream; r is mounted under /calls.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/{callID}/events", h.handleEvents)
}

// handleEvents subscribes before writing the snapshot, so no later event is
// lost. An event may repeat one already in the snapshot; clients dedupe by seq.
func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	callID := chi.URLParam(r, "callID")
	session, err := h.calls.Get(callID)
	if err != nil {
		utils.RespondError(w, callhandler.StatusFor(err), err.Error())
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	sub := h.hub.Subscribe(callID)
	defer sub.Close()

	utils.SetupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)

	if err := utils.SendSSEEvent(w, flusher, "", EventSnapshot, session.Snapshot()); err != nil {
		h.logger.Debug().Err(err).Str("call_id", callID).Msg("write snapshot failed")
		return
	}

	h.logger.Debug().Str("call_id", callID).Msg("event stream opened")
	defer h.logger.Debug().Str("call_id", callID).Msg("event stream closed")

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub.C:
			if !ok {
				return
			}
			id := strconv.FormatUint(ev.Seq, 10)
			if err := utils.SendSSEEvent(w, flusher, id, string(ev.Type), ev); err != nil {
				h.logger.Debug().Err(err).Str("call_id", callID).Msg("write event failed")
				return
			}
			if ev.Type == callService.EventCallEnded {
				return
			}
		case <-ticker.C:
			if err := utils.SendSSEComment(w, flusher, "heartbeat"); err != nil {
				return
			}
		}
	}
}
