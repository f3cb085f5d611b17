package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"skin-advisor/config"
	telegram "skin-advisor/internal/api"
	httpapi "skin-advisor/internal/api/http"
	"skin-advisor/internal/container"
	"skin-advisor/internal/infrastructure/logging"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat}, os.Stdout)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Собираем сервисы приложения
	appContainer, err := container.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to build container: %v", err)
	}
	defer appContainer.Close()

	server := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: httpapi.Build(httpapi.Options{
			Analyzer:   appContainer.AnalysisService,
			Logger:     logger,
			Debug:      logging.ParseLevel(cfg.LogLevel) == slog.LevelDebug,
			Components: appContainer.Components,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("http server is running", slog.String("addr", cfg.HTTPAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if cfg.TelegramToken != "" {
		// Создаём бота
		bot, err := telegram.NewBot(cfg.TelegramToken, appContainer.UserService, appContainer.SessionService, appContainer.Files, logger)
		if err != nil {
			log.Fatalf("Failed to create bot: %v", err)
		}
		g.Go(func() error {
			logger.Info("bot is running")
			return bot.Run(gctx)
		})
	} else {
		logger.Warn("TELEGRAM_TOKEN is not set, bot is disabled")
	}

	if err := g.Wait(); err != nil {
		logger.Error("service stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
