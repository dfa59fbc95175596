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
	"landingsvc/internal/infra/geoip"
	"landingsvc/internal/middleware"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewServiceLogger(cfg.AppEnv, "api")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := app.Build(ctx, cfg, logger, nil)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: build runtime failed")
	}
	defer rt.Close()

	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("api: geoip disabled")
	}
	defer resolver.Close()
	var lookup middleware.CountryLookup
	if resolver != nil {
		lookup = resolver.CountryCode
	}

	staticDir := ""
	if rt.Files != nil {
		staticDir = rt.Files.BasePath()
	}
	handlerApp := handlers.NewApp(handlers.Options{
		Service:   rt.Service,
		Auth:      middleware.NewAuthorizer(cfg.APIToken, cfg.JWTSecret),
		Metrics:   rt.Metrics,
		Logger:    logger,
		Checks:    rt.Checks,
		StaticDir: staticDir,
	})
	if !cfg.AuthEnabled() {
		logger.Warn().Msg("api: API_TOKEN and JWT_SECRET unset, requests are not authenticated")
	}

	router := httpapi.NewRouter(handlerApp, httpapi.RouterOptions{
		Logger:         logger,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimit:      cfg.RateLimitPerMin,
		CountryLookup:  lookup,
	})
	server := infra.NewHTTPServer(cfg.Port, cfg, router)

	go func() {
		logger.Info().Str("addr", server.Addr()).Str("provider", rt.ProviderName).Str("queue", cfg.QueueBackend).Msg("api: listening")
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("api: http server failed")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("api: shutdown failed")
	}
	logger.Info().Msg("api: stopped")
}
