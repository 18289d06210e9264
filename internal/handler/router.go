package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/z-guardian/backend/internal/handler/call"
	"github.com/zhouzirui/z-guardian/backend/internal/handler/contact"
	"github.com/zhouzirui/z-guardian/backend/internal/handler/history"
	"github.com/zhouzirui/z-guardian/backend/internal/handler/live"
	"github.com/zhouzirui/z-guardian/backend/internal/handler/stream"
	middlewarePkg "github.com/zhouzirui/z-guardian/backend/internal/middleware"
	contactModel "github.com/zhouzirui/z-guardian/backend/internal/model/contact"
	callService "github.com/zhouzirui/z-guardian/backend/internal/service/call"
	historyService "github.com/zhouzirui/z-guardian/backend/internal/service/history"
	"github.com/zhouzirui/z-guardian/backend/pkg/utils"
)

// Services groups what the HTTP layer needs.
type Services struct {
	Contacts contactModel.Store
	Calls    *callService.Manager
	Hub      *callService.Hub
	History  historyService.Store
	// Heartbeat overrides the SSE keep-alive interval when positive.
	Heartbeat time.Duration
}

// NewRouter wires HTTP routes to core services.
func NewRouter(logger zerolog.Logger, svc Services) http.Handler {
	r := chi.NewRouter()

	r.Use(middlewarePkg.Metrics)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.Logger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	r.Get("/health", handleHealth(svc.Calls))
	r.Handle("/metrics", promhttp.Handler())

	contactHandler := contact.New(svc.Contacts)
	historyHandler := history.New(svc.History, logger)
	callHandler := call.New(svc.Calls, logger)
	streamHandler := stream.New(svc.Calls, svc.Hub, logger).WithHeartbeat(svc.Heartbeat)
	wsHandler := live.NewWebSocketHandler(svc.Calls, svc.Hub, logger)

	r.Route("/api", func(api chi.Router) {
		contactHandler.RegisterRoutes(api)
		historyHandler.RegisterRoutes(api)

		api.Route("/calls", func(calls chi.Router) {
			callHandler.RegisterRoutes(calls)
			streamHandler.RegisterRoutes(calls)
		})

		wsHandler.RegisterWebSocketRoutes(api)
	})

	return r
}

func handleHealth(calls *callService.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]any{
			"status":      "ok",
			"activeCalls": len(calls.List()),
			"time":        time.Now().UTC().Format(time.RFC3339),
		})
	}
}
