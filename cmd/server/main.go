// Clawdbot × KakaoTalk skill bridge server
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

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/clawdbot/kakao-bridge/internal/allowlist"
	"github.com/clawdbot/kakao-bridge/internal/bridge"
	"github.com/clawdbot/kakao-bridge/internal/config"
	"github.com/clawdbot/kakao-bridge/internal/kakao"
	"github.com/clawdbot/kakao-bridge/internal/session"
	"github.com/clawdbot/kakao-bridge/internal/webhook"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	slog.Info("Starting server", "addr", cfg.Addr(), "gateway", cfg.Gateway.URL)

	allow, err := allowlist.Load(cfg.AllowedUsersFile)
	if err != nil {
		slog.Error("Failed to load allow-list", "error", err)
		os.Exit(1)
	}
	slog.Info("Allow-list loaded", "users", allow.Len())

	store := session.NewStore(allow, cfg.AdminKakaoID)
	auth := session.NewAuthenticator(store, allow, cfg.PairingCode)

	ai := bridge.New(bridge.Config{
		GatewayURL:   cfg.Gateway.URL,
		GatewayToken: cfg.Gateway.Token,
		Model:        cfg.Gateway.Model,
		SystemPrompt: cfg.Gateway.SystemPrompt,
		Timeout:      cfg.GatewayTimeout(),
	})

	delivery := kakao.NewClient(cfg.CallbackTimeout())

	handler := webhook.NewHandler(store, auth, ai, delivery, cfg.GatewayTimeout()+cfg.CallbackTimeout())

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))

	handler.RegisterRoutes(r)

	srv := &http.Server{
		Addr:        cfg.Addr(),
		Handler:     r,
		ReadTimeout: 10 * time.Second,
		// The skill endpoint answers within the platform's 5-second
		// window; slow work happens on the detached delivery path.
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	session.StartReaper(ctx, store)

	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}

func logLevel(name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
