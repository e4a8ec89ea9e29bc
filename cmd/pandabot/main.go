package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	bitpandaadapter "github.com/ericfisherdev/pandabot/internal/adapter/driven/bitpanda"
	sqliteadapter "github.com/ericfisherdev/pandabot/internal/adapter/driven/sqlite"
	httphandler "github.com/ericfisherdev/pandabot/internal/adapter/driving/http"
	"github.com/ericfisherdev/pandabot/internal/adapter/driving/telegram"
	"github.com/ericfisherdev/pandabot/internal/application"
	"github.com/ericfisherdev/pandabot/internal/config"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load .env if present, then configuration (fail fast on missing key or token).
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"api_base_url", cfg.APIBaseURL,
		"http_timeout", cfg.HTTPTimeout,
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open database (dual reader/writer with WAL mode).
	db, err := sqliteadapter.NewDB(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()
	slog.Info("database opened", "path", cfg.DBPath)

	// 4. Run migrations on writer connection.
	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		return err
	}
	slog.Info("migrations complete")

	// 5. Wire adapters.
	secretCipher, err := sqliteadapter.NewSecretCipher(cfg.SecretKey)
	if err != nil {
		return fmt.Errorf("init credential cipher: %w", err)
	}
	credentialStore := sqliteadapter.NewCredentialRepo(db, secretCipher)
	chatUserStore := sqliteadapter.NewChatUserRepo(db)
	gateway := bitpandaadapter.NewClient(cfg.APIBaseURL, cfg.HTTPTimeout)

	// 6. Create application service.
	portfolioSvc := application.NewPortfolioService(credentialStore, gateway, chatUserStore)

	// 7. Connect to Telegram.
	botAPI, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return fmt.Errorf("connect to telegram: %w", err)
	}
	botUsername := cfg.BotUsername
	if botAPI.Self.UserName != "" {
		botUsername = botAPI.Self.UserName
	}
	slog.Info("telegram bot authorized", "username", botUsername)

	bot := telegram.NewBot(botAPI, portfolioSvc, botUsername, slog.Default())

	// 8. Health endpoint for the container healthcheck.
	apiHandler := httphandler.NewHandler(db, slog.Default())
	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           httphandler.NewServeMux(apiHandler, slog.Default()),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
		}
	}()

	// 9. Start long polling; Run returns once ctx is cancelled and handlers finish.
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := botAPI.GetUpdatesChan(u)

	slog.Info("pandabot started", "listen_addr", cfg.ListenAddr)
	bot.Run(ctx, updates)

	// 10. Graceful shutdown with 10s timeout for HTTP server drain.
	slog.Info("shutting down")
	botAPI.StopReceivingUpdates()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}
