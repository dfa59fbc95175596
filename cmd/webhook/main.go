package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"landingsvc/internal/app"
	"landingsvc/internal/http/handlers"
	"landingsvc/internal/http/httpapi"
	"landingsvc/internal/infra"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewServiceLogger(cfg.AppEnv, "webhook")
	if cfg.WebhookSecret == "" {
		logger.Fatal().Msg("webhook: WEBHOOK_SECRET is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := app.Build(ctx, cfg, logger, nil)
	if err != nil {
		logger.Fatal().Err(err).Msg("webhook: build runtime failed")
	}
	defer rt.Close()
	if rt.Queue == nil {
		logger.Fatal().Msg("webhook: QUEUE_BACKEND must be redis or postgres")
	}

	handlerApp := handlers.NewApp(handlers.Options{
		Service: rt.Service,
		Metrics: rt.Metrics,
		Logger:  logger,
	})
	server := infra.NewHTTPServer(cfg.WebhookPort, cfg, httpapi.NewWebhookRouter(handlerApp, cfg.WebhookSecret, logger))

	go func() {
		logger.Info().Str("addr", server.Addr()).Msg("webhook: listening")
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("webhook: http server failed")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("webhook: shutdown failed")
	}
	logger.Info().Msg("webhook: stopped")
}
