package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"landingsvc/internal/app"
	"landingsvc/internal/infra"
	"landingsvc/internal/queue"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewServiceLogger(cfg.AppEnv, "worker")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := app.Build(ctx, cfg, logger, nil)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: build runtime failed")
	}
	defer rt.Close()
	if rt.Queue == nil {
		logger.Fatal().Msg("worker: QUEUE_BACKEND must be redis or postgres")
	}

	worker, err := queue.NewWorker(queue.WorkerOptions{
		Queue:       rt.Queue,
		Handler:     rt.Service.Process,
		Concurrency: cfg.WorkerConcurrency,
		RateMax:     cfg.WorkerRateMax,
		RateWindow:  cfg.WorkerRateWindow,
		Logger:      logger,
		Metrics:     rt.Metrics,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: configure failed")
	}

	// Metrics only; the worker has no public API.
	metricsServer := infra.NewHTTPServer(cfg.Port, cfg, rt.Metrics.Handler())
	go func() {
		if err := metricsServer.Start(); err != nil {
			logger.Error().Err(err).Msg("worker: metrics server failed")
		}
	}()

	logger.Info().
		Str("queue", cfg.QueueBackend).
		Int("concurrency", cfg.WorkerConcurrency).
		Int("rate_max", cfg.WorkerRateMax).
		Dur("rate_window", cfg.WorkerRateWindow).
		Msg("worker: starting")
	if err := worker.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("worker: stopped with error")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = metricsServer.Shutdown(shutdownCtx)
	logger.Info().Msg("worker: stopped")
}
