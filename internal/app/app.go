// Package app assembles the runtime shared by the api, worker and webhook
// binaries from the loaded configuration.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"landingsvc/internal/adapter/repo"
	"landingsvc/internal/domain"
	"landingsvc/internal/http/handlers"
	"landingsvc/internal/infra"
	"landingsvc/internal/infra/credentials"
	"landingsvc/internal/landing"
	"landingsvc/internal/observability"
	"landingsvc/internal/providers/llm"
	"landingsvc/internal/queue"
	"landingsvc/internal/storage"
)

const metricsNamespace = "landing"

// Runtime holds every long-lived collaborator. Fields for backends that are
// not configured stay nil.
type Runtime struct {
	Config  *infra.Config
	Logger  zerolog.Logger
	Metrics *observability.Metrics

	Pool  *pgxpool.Pool
	SQL   *infra.SQLRunner
	Redis *redis.Client

	Sessions  domain.SessionStore
	Artifacts domain.ArtifactStore
	Files     *storage.FileStore
	Queue     domain.Queue

	Completer    domain.Completer
	ProviderName string
	Pipeline     *landing.Pipeline
	Service      *landing.Service

	Checks []handlers.HealthCheck
}

// Build connects the configured backends. On error everything opened so far
// is closed.
func Build(ctx context.Context, cfg *infra.Config, logger zerolog.Logger, reg prometheus.Registerer) (rt *Runtime, err error) {
	rt = &Runtime{Config: cfg, Logger: logger, Metrics: observability.NewMetrics(metricsNamespace, reg)}
	defer func() {
		if err != nil {
			rt.Close()
			rt = nil
		}
	}()

	if err = rt.openDatabase(ctx); err != nil {
		return
	}
	if err = rt.openArtifacts(ctx); err != nil {
		return
	}
	if err = rt.openQueue(ctx); err != nil {
		return
	}
	if err = rt.openCompleter(ctx); err != nil {
		return
	}

	rt.Pipeline, err = landing.NewPipeline(landing.PipelineOptions{
		Completer:       rt.Completer,
		Artifacts:       rt.Artifacts,
		Sessions:        rt.Sessions,
		Metrics:         rt.Metrics,
		Logger:          logger,
		ProviderName:    rt.ProviderName,
		ProviderTimeout: cfg.LLMTimeout,
	})
	if err != nil {
		return
	}
	rt.Service, err = landing.NewService(landing.ServiceOptions{
		Pipeline:  rt.Pipeline,
		Sessions:  rt.Sessions,
		Artifacts: rt.Artifacts,
		Queue:     rt.Queue,
		Defaults:  rt.requestDefaults(),
		Metrics:   rt.Metrics,
		Logger:    logger,
	})
	return
}

func (rt *Runtime) openDatabase(ctx context.Context) error {
	if rt.Config.DatabaseURL == "" {
		rt.Logger.Warn().Msg("DATABASE_URL not set, sessions are kept in memory")
		rt.Sessions = repo.NewMemorySessionStore()
		return nil
	}
	pool, err := infra.NewDBPool(ctx, rt.Config)
	if err != nil {
		return err
	}
	rt.Pool = pool
	rt.SQL = infra.NewSQLRunner(pool, rt.Logger)
	if err := repo.EnsureSchema(ctx, rt.SQL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	rt.Sessions = repo.NewSessionRepository(rt.SQL, rt.SQL.Ping)
	rt.Checks = append(rt.Checks, handlers.HealthCheck{Name: "database", Ping: rt.SQL.Ping})
	return nil
}

func (rt *Runtime) openArtifacts(ctx context.Context) error {
	cfg := rt.Config
	switch cfg.ArtifactBackend {
	case infra.ArtifactBackendS3:
		store, err := storage.NewS3Store(ctx, storage.S3Options{
			Bucket:        cfg.S3Bucket,
			Region:        cfg.S3Region,
			Endpoint:      cfg.S3Endpoint,
			PublicBaseURL: cfg.S3PublicBaseURL,
			PresignTTL:    cfg.S3PresignTTL,
		})
		if err != nil {
			return err
		}
		rt.Artifacts = store
		rt.Checks = append(rt.Checks, handlers.HealthCheck{Name: "object_store", Ping: store.Ping})
	default:
		files, err := storage.NewFileStore(cfg.StoragePath, cfg.StorageBaseURL)
		if err != nil {
			return err
		}
		rt.Files = files
		rt.Artifacts = files
		rt.Checks = append(rt.Checks, handlers.HealthCheck{Name: "filesystem", Ping: files.Ping})
	}
	return nil
}

func (rt *Runtime) openQueue(ctx context.Context) error {
	cfg := rt.Config
	opts := queue.Options{
		Name:        cfg.QueueName,
		MaxAttempts: cfg.QueueMaxAttempts,
		Backoff:     cfg.QueueBackoff,
	}
	switch cfg.QueueBackend {
	case infra.QueueBackendRedis:
		client, err := infra.NewRedisClient(ctx, cfg)
		if err != nil {
			return err
		}
		rt.Redis = client
		rt.Queue = queue.NewRedisQueue(client, opts)
	case infra.QueueBackendPostgres:
		if rt.SQL == nil {
			return errors.New("postgres queue requires DATABASE_URL")
		}
		rt.Queue = queue.NewPostgresQueue(rt.SQL, rt.SQL.Ping, opts)
	default:
		rt.Logger.Info().Msg("no queue configured, async generation disabled")
		return nil
	}
	rt.Checks = append(rt.Checks, handlers.HealthCheck{Name: "queue", Ping: rt.Queue.Ping})
	return nil
}

func (rt *Runtime) openCompleter(ctx context.Context) error {
	cfg := rt.Config
	openaiKey, geminiKey := cfg.OpenAIAPIKey, cfg.GeminiAPIKey
	if rt.SQL != nil {
		store := credentials.NewStore(rt.SQL)
		var err error
		if openaiKey, err = store.Resolve(ctx, credentials.ProviderOpenAI, openaiKey); err != nil {
			rt.Logger.Warn().Err(err).Msg("load stored openai key failed")
		}
		if geminiKey, err = store.Resolve(ctx, credentials.ProviderGemini, geminiKey); err != nil {
			rt.Logger.Warn().Err(err).Msg("load stored gemini key failed")
		}
	}
	completer, name, err := llm.New(llm.Options{
		Provider:   cfg.LLMProvider,
		OpenAIKey:  openaiKey,
		OpenAIBase: cfg.OpenAIBaseURL,
		OpenAIOrg:  cfg.OpenAIOrg,
		GeminiKey:  geminiKey,
		GeminiBase: cfg.GeminiBaseURL,
	})
	if err != nil {
		return err
	}
	if name == llm.ProviderStatic && cfg.LLMProvider != llm.ProviderStatic {
		rt.Logger.Warn().Str("requested", cfg.LLMProvider).Msg("no provider api key available, using static completer")
	}
	rt.Completer = completer
	rt.ProviderName = name
	return nil
}

// requestDefaults fills the model from the selected provider unless
// DEFAULT_MODEL is set.
func (rt *Runtime) requestDefaults() domain.RequestDefaults {
	model := rt.Config.DefaultModel
	if model == "" {
		model = llm.DefaultModel(rt.ProviderName)
	}
	return domain.RequestDefaults{PageType: rt.Config.DefaultPageType, Model: model}
}

// Close releases the queue, redis and database connections.
func (rt *Runtime) Close() {
	if rt == nil {
		return
	}
	if rt.Queue != nil {
		if err := rt.Queue.Close(); err != nil {
			rt.Logger.Warn().Err(err).Msg("close queue")
		}
	}
	if rt.Redis != nil {
		if err := rt.Redis.Close(); err != nil && !errors.Is(err, redis.ErrClosed) {
			rt.Logger.Warn().Err(err).Msg("close redis")
		}
	}
	if rt.Pool != nil {
		rt.Pool.Close()
	}
}
