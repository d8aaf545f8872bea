package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mcoot/teamfinder/internal/api"
	"github.com/mcoot/teamfinder/internal/config"
	"github.com/mcoot/teamfinder/internal/dependencies/random"
	"github.com/mcoot/teamfinder/internal/factory"
	memsession "github.com/mcoot/teamfinder/internal/session/memory"
	"github.com/mcoot/teamfinder/internal/telegram"
)

const (
	sessionSweepInterval = 10 * time.Minute
	webhookSecretLength  = 32
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	level, _ := cfg.SlogLevel()

	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	// Create application factory
	app, err := factory.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() { _ = app.Close() }()

	logger.Info("configuration loaded",
		slog.String("storage", cfg.Storage),
		slog.String("session_store", cfg.SessionStore),
		slog.String("timezone", app.Calendar.Zone().String()),
		slog.String("today", string(app.Calendar.Today())),
	)

	// Handle graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("shutdown signal received")
		cancel()
	}()

	// Telegram transport
	var webhook http.Handler
	var webhookPath string
	if app.Bot != nil {
		switch cfg.Telegram.Mode {
		case config.ModeWebhook:
			// Without a configured secret a fresh one is registered on every start
			secret := cfg.Telegram.WebhookSecret
			if secret == "" {
				secret = app.Random.String(webhookSecretLength, random.Alphanumeric)
			}
			hook := telegram.NewWebhook(ctx, app.Bot, secret, logger)
			webhookPath = telegram.WebhookPath(cfg.Telegram.Token)
			url := strings.TrimSuffix(cfg.Telegram.WebhookBaseURL, "/") + "/webhook/" + webhookPath
			if err := hook.Register(ctx, app.Telegram, url); err != nil {
				logger.Error("failed to register webhook", slog.String("error", err.Error()))
				os.Exit(1)
			}
			webhook = hook
		default:
			poller := telegram.NewPoller(app.Telegram, app.Bot, app.Random, cfg.Telegram.PollTimeout, logger)
			go poller.Run(ctx)
		}
	}

	// Background jobs
	if app.Scheduler != nil && app.NotifyEnabled {
		go app.Scheduler.Run(ctx)
	}
	if sessions, ok := app.Sessions.(*memsession.Store); ok {
		go sessions.Run(ctx, sessionSweepInterval, logger)
	}

	// Create server
	serverConfig := api.DefaultServerConfig()
	serverConfig.Host = cfg.Host
	serverConfig.Port = cfg.Port
	server := api.NewServer(app.Handler(logger, webhook, webhookPath), serverConfig, logger)

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("server started", slog.String("addr", server.Addr()))

	// Wait for shutdown or error
	exitCode := 0
	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", slog.String("error", err.Error()))
			exitCode = 1
		}
		cancel()
	case <-ctx.Done():
		if err := server.Shutdown(context.Background()); err != nil {
			logger.Error("shutdown error", slog.String("error", err.Error()))
			exitCode = 1
		}
	}

	// Let in-flight updates finish before closing storage
	if app.Bot != nil {
		app.Bot.Wait()
	}
	logger.Info("server stopped")

	if exitCode != 0 {
		_ = app.Close()
		os.Exit(exitCode)
	}
}
