// Codewars Slack bot server.
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
	"github.com/mark4carter/codewarsbot/internal/api"
	"github.com/mark4carter/codewarsbot/internal/bot"
	"github.com/mark4carter/codewarsbot/internal/codewars"
	"github.com/mark4carter/codewarsbot/internal/config"
	"github.com/mark4carter/codewarsbot/internal/domain"
	"github.com/mark4carter/codewarsbot/internal/slack"
	"github.com/mark4carter/codewarsbot/internal/store"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting bot", "trigger", cfg.Trigger, "port", cfg.Port)

	// Initialize dependencies.
	repo, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	if err := repo.Ping(context.Background()); err != nil {
		slog.Error("Database health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database connected")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect the chat transport.
	chat := slack.New(cfg.SlackToken)
	if err := chat.Start(ctx); err != nil {
		slog.Error("Slack handshake failed", "error", err)
		os.Exit(1)
	}

	botName := chat.SelfName()
	if botName == "" {
		botName = cfg.BotName
	}

	router := bot.NewRouter(bot.Options{
		Repo:   repo,
		Sender: chat,
		Files:  chat,
		JudgeFor: func(settings *domain.Settings) bot.Judge {
			return codewars.New(codewars.Options{
				BaseURL:  cfg.CodewarsURL,
				Timeout:  cfg.HTTPTimeout,
				Settings: settings,
			})
		},
		Trigger:      cfg.Trigger,
		BotName:      botName,
		PollInterval: cfg.PollInterval,
		PollBudget:   cfg.PollBudget,
	})

	if err := router.Welcome(ctx, chat.HomeChannel()); err != nil {
		slog.Error("First-run check failed", "error", err)
	}

	// Warn early when setup has not run yet; commands still work once
	// setup completes.
	if _, err := repo.LoadSettings(ctx); errors.Is(err, store.ErrNotConfigured) {
		slog.Warn("Settings not configured, run `codewars setup` in the channel")
	}

	// Status endpoint.
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	api.NewHandler(repo, router.Sessions()).RegisterRoutes(r)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("Status server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Status server failed", "error", err)
			os.Exit(1)
		}
	}()

	// RTM receive loop. Each message is handled on its own goroutine; the
	// session mutexes serialize mutation per channel.
	rtmErr := make(chan error, 1)
	go func() {
		rtmErr <- chat.Run(ctx, func(msg slack.Message) {
			inbound := bot.Message{
				Channel: msg.Channel,
				User:    msg.User,
				Text:    msg.Text,
			}
			if msg.Subtype == "file_share" && msg.File != nil {
				inbound.FileURL = msg.File.URLPrivate
			}
			go router.HandleMessage(ctx, inbound)
		})
	}()

	select {
	case <-ctx.Done():
		slog.Info("Shutting down gracefully...")
	case err := <-rtmErr:
		if err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("RTM connection lost", "error", err)
		}
		stop()
	}

	router.Sessions().Shutdown()
	router.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Status server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Bot stopped successfully")
}
