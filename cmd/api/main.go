package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/z-guardian/backend/internal/config"
	"github.com/zhouzirui/z-guardian/backend/internal/handler"
	"github.com/zhouzirui/z-guardian/backend/internal/logging"
	"github.com/zhouzirui/z-guardian/backend/internal/model/contact"
	"github.com/zhouzirui/z-guardian/backend/internal/service/ai"
	"github.com/zhouzirui/z-guardian/backend/internal/service/alert"
	"github.com/zhouzirui/z-guardian/backend/internal/service/call"
	"github.com/zhouzirui/z-guardian/backend/internal/service/history"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Log)
	if envErr != nil {
		logger.Debug().Err(envErr).Msg("no .env file, using system environment variables only")
	}

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server error")
	}
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	contacts := contact.NewMemoryStore(contact.Seed())

	notifier, closeNotifier, err := newNotifier(cfg.Alert, logger)
	if err != nil {
		return err
	}
	defer closeNotifier()

	store, err := newHistoryStore(ctx, cfg.History)
	if err != nil {
		return err
	}
	defer store.Close()
	logger.Info().Str("backend", cfg.History.Backend).Msg("call history store ready")

	var locator alert.Locator
	if cfg.Alert.MockLocation != "" {
		locator = alert.StaticLocator(cfg.Alert.MockLocation)
	}
	dispatcher := alert.NewDispatcher(contacts, notifier, locator, logger)

	hub := call.NewHub(64, logger)
	calls := call.NewManager(call.ManagerOptions{
		Config: call.Config{
			AIName:          cfg.Call.AIName,
			CodeWord:        cfg.Call.CodeWord,
			TickInterval:    cfg.Call.TickInterval,
			DistressDelay:   cfg.Call.DistressDelay,
			ThinkingMin:     cfg.Call.ThinkingMin,
			ThinkingMax:     cfg.Call.ThinkingMax,
			MinSpeaking:     cfg.Call.MinSpeaking,
			SpeakingPerChar: cfg.Call.SpeakingPerChar,
		},
		Alerts:    dispatcher,
		History:   store,
		Hub:       hub,
		Rephraser: newRephraser(ctx, cfg.AI, logger),
		Logger:    logger,
	})

	router := handler.NewRouter(logger, handler.Services{
		Contacts: contacts,
		Calls:    calls,
		Hub:      hub,
		History:  store,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logger.Info().Str("addr", cfg.Server.Addr).Msg("z-guardian backend listening")
	err = runServer(ctx, srv)

	// End live calls so each one reaches the history store.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	calls.Shutdown(shutdownCtx)
	logger.Info().Msg("server stopped")
	return err
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// newNotifier always logs notifications and also publishes them to RabbitMQ when configured.
func newNotifier(cfg config.AlertConfig, logger zerolog.Logger) (alert.Notifier, func(), error) {
	logNotifier := alert.NewLogNotifier(logger)
	if !cfg.AMQPEnabled() {
		return logNotifier, func() {}, nil
	}

	pub, err := alert.NewRabbitPublisher(cfg.AMQPURL, cfg.AMQPQueue)
	if err != nil {
		return nil, nil, fmt.Errorf("connect rabbitmq: %w", err)
	}
	amqpNotifier := alert.NewAMQPNotifier(pub, cfg.AMQPBuffer, logger)
	logger.Info().Str("queue", cfg.AMQPQueue).Msg("alert notifications published to rabbitmq")

	closeFn := func() {
		if err := amqpNotifier.Close(); err != nil {
			logger.Warn().Err(err).Msg("close rabbitmq notifier")
		}
	}
	return alert.Multi{logNotifier, amqpNotifier}, closeFn, nil
}

func newHistoryStore(ctx context.Context, cfg config.HistoryConfig) (history.Store, error) {
	switch cfg.Backend {
	case "sqlite":
		store, err := history.NewSQLiteStore(cfg.SQLitePath, cfg.MaxEntries)
		if err != nil {
			return nil, fmt.Errorf("open sqlite history: %w", err)
		}
		return store, nil
	case "redis":
		store, err := history.NewRedisStore(ctx, cfg.RedisURL, cfg.RedisKey, cfg.MaxEntries)
		if err != nil {
			return nil, fmt.Errorf("connect redis history: %w", err)
		}
		return store, nil
	default:
		return history.NewMemoryStore(cfg.MaxEntries), nil
	}
}

// newRephraser returns nil when LLM rephrasing is off, so calls use the
// rule-based replies unchanged.
func newRephraser(ctx context.Context, cfg config.AIConfig, logger zerolog.Logger) call.Rephraser {
	if !cfg.Enabled() {
		logger.Info().Msg("Ark credentials missing or rephrasing disabled, using rule-based replies")
		return nil
	}

	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to initialize chat model, continuing with rule-based replies")
		return nil
	}

	rephraser, err := ai.NewRephraser(ctx, chatModel, ai.Config{Enabled: true, Timeout: cfg.Timeout}, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to build rephraser, continuing with rule-based replies")
		return nil
	}

	logger.Info().Str("model", cfg.Model).Msg("LLM reply rephrasing enabled")
	return rephraser
}
