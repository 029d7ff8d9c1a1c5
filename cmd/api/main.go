package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/zhouzirui/polyglot-coach/backend/internal/config"
	"github.com/zhouzirui/polyglot-coach/backend/internal/handler"
	"github.com/zhouzirui/polyglot-coach/backend/internal/model/persona"
	"github.com/zhouzirui/polyglot-coach/backend/internal/service/ai"
	"github.com/zhouzirui/polyglot-coach/backend/internal/service/chat"
	"github.com/zhouzirui/polyglot-coach/backend/internal/telemetry"
	"github.com/zhouzirui/polyglot-coach/backend/web"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, logCloser, err := telemetry.NewLogger(cfg.Log, os.Stdout)
	if err != nil {
		return err
	}
	defer logCloser.Close()
	slog.SetDefault(logger)

	shutdownTelemetry, err := telemetry.Init(ctx, cfg.Telemetry)
	if err != nil {
		return err
	}
	defer shutdownTelemetry()

	if !cfg.AI.HasCredential() {
		slog.Warn("CEREBRAS_API_KEY is not set; completion requests are sent unauthenticated and will be rejected by the remote service")
	}

	store, err := persona.NewMemoryStore(persona.Seed())
	if err != nil {
		return err
	}
	coach, err := store.Get(persona.DefaultID)
	if err != nil {
		return err
	}
	instruction := ai.NewPromptManager().BuildSystemPrompt(coach)

	chatModel, err := cfg.AI.NewChatModel(ctx)
	if err != nil {
		return err
	}
	aiService, err := ai.NewService(ctx, chatModel, cfg.AI.Model)
	if err != nil {
		return err
	}
	slog.Info("chat model ready", "model", cfg.AI.Model, "base_url", cfg.AI.BaseURL)

	chatService := chat.NewService(coach.ID, cfg.AI.Model, instruction)
	processor := chat.NewProcessor(aiService)

	router := handler.NewRouter(store, chatService, processor, handler.Options{
		PersonaID:      coach.ID,
		Model:          cfg.AI.Model,
		KnownModels:    config.KnownModels,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Frontend:       web.SPAHandler(),
	})

	return startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) error {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	slog.Info("Polyglot Coach listening", "addr", serverCfg.Addr)
	return runServer(ctx, srv)
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
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
