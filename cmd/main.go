package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"contentsummarizer/internal/bot"
	"contentsummarizer/internal/config"
	"contentsummarizer/internal/loader"
	"contentsummarizer/internal/logging"
	"contentsummarizer/internal/pipeline"
	"contentsummarizer/internal/summarizer"
	"contentsummarizer/internal/telemetry"
	"contentsummarizer/internal/web"
)

const shutdownTimeout = 10 * time.Second

func main() {
	start := time.Now()

	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("Failed to load config",
			"error", err)

		os.Exit(1)
	}

	log := logging.New(os.Stdout, cfg.LogLevel)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch {
	case envErr == nil:
		log.InfoContext(ctx, ".env file is loaded")
	case errors.Is(envErr, fs.ErrNotExist):
		log.DebugContext(ctx, ".env file is missing so process env is used")
	default:
		log.WarnContext(ctx, "Failed to load .env file",
			"error", envErr)
	}

	metrics := telemetry.New()

	contentLoader := loader.New(log, loader.WithFallbackRecorder(metrics))

	summarizerSvc, err := summarizer.New(summarizer.Config{
		APIKey:           cfg.GroqAPIKey,
		Model:            cfg.GroqModel,
		BaseURL:          cfg.GroqBaseURL,
		DefaultWordCount: cfg.SummaryWordCount,
		MaxContentChars:  cfg.MaxContentChars,
	}, log)
	if err != nil {
		log.ErrorContext(ctx, "Failed to initialize summarizer",
			"error", err,
			"model", cfg.GroqModel)

		os.Exit(1)
	}
	log.InfoContext(ctx, "Summarizer is initialized",
		"model", summarizerSvc.Model(),
		"baseURL", cfg.GroqBaseURL)

	p := pipeline.New(pipeline.Config{
		WordCount: cfg.SummaryWordCount,
		Timeout:   cfg.RequestTimeout,
	}, contentLoader, summarizerSvc, metrics, log)

	webSrv, err := web.New(p, metrics, summarizerSvc.Model(), log)
	if err != nil {
		log.ErrorContext(ctx, "Failed to initialize web server",
			"error", err)

		os.Exit(1)
	}

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      webSrv.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.InfoContext(ctx, "HTTP server is started",
			"addr", cfg.HTTPAddr)

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	var botInst *bot.Bot
	if cfg.BotEnabled() {
		botInst, err = bot.New(cfg.TelegramToken, p, metrics, cfg.AllowedUsers, cfg.RequestTimeout, log)
		if err != nil {
			log.ErrorContext(ctx, "Failed to initialize bot",
				"error", err,
				"allowedUsersCount", len(cfg.AllowedUsers))

			os.Exit(1)
		}

		go botInst.Start(ctx)
		log.InfoContext(ctx, "Bot is started",
			"updateTimeoutSeconds", bot.BotUpdateTimeout,
			"allowedUsersCount", len(cfg.AllowedUsers))
	}

	select {
	case <-ctx.Done():
		log.InfoContext(context.Background(), "Shutdown signal is received")
	case err := <-serverErr:
		log.ErrorContext(context.Background(), "HTTP server failed",
			"error", err,
			"addr", cfg.HTTPAddr)
	}
	stop()

	log.InfoContext(context.Background(), "Exiting...",
		"uptimeSeconds", time.Since(start).Seconds())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.ErrorContext(shutdownCtx, "Failed to shut down HTTP server",
			"error", err)
	}
	log.InfoContext(shutdownCtx, "HTTP server is stopped",
		"uptimeSeconds", time.Since(start).Seconds())

	if botInst != nil {
		botInst.Stop()
		log.InfoContext(shutdownCtx, "Bot is stopped",
			"uptimeSeconds", time.Since(start).Seconds())
	}
}
