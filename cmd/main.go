package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"

	"github.com/ayushthakur13/fin-vault-ai/internal/adapters/ai"
	"github.com/ayushthakur13/fin-vault-ai/internal/adapters/config"
	"github.com/ayushthakur13/fin-vault-ai/internal/adapters/embeddings"
	"github.com/ayushthakur13/fin-vault-ai/internal/adapters/errors/noop"
	"github.com/ayushthakur13/fin-vault-ai/internal/adapters/errors/sentry"
	"github.com/ayushthakur13/fin-vault-ai/internal/adapters/postgres"
	"github.com/ayushthakur13/fin-vault-ai/internal/adapters/redis"
	"github.com/ayushthakur13/fin-vault-ai/internal/adapters/telemetry"
	"github.com/ayushthakur13/fin-vault-ai/internal/agents"
	"github.com/ayushthakur13/fin-vault-ai/internal/api"
	"github.com/ayushthakur13/fin-vault-ai/internal/api/health"
	"github.com/ayushthakur13/fin-vault-ai/internal/reasoning"
	pgrepo "github.com/ayushthakur13/fin-vault-ai/internal/repository/postgres"
	"github.com/ayushthakur13/fin-vault-ai/internal/retrieval"
	"github.com/ayushthakur13/fin-vault-ai/pkg/errors"
	"github.com/ayushthakur13/fin-vault-ai/pkg/logger"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	defer logger.Sync()

	log := logger.Get()
	log.Infof("Starting %s in %s mode", cfg.App.Name, cfg.App.Env)

	errorTracker := initErrorTracker(cfg, log)
	logger.SetErrorTracker(errorTracker)

	// Databases
	pgClient, err := postgres.NewClient(cfg.Postgres)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer pgClient.Close()

	redisClient := initRedis(cfg, log)
	if redisClient != nil {
		defer redisClient.Close()
	}

	// Embedding provider, optionally cached through Redis
	embedder, err := initEmbedder(cfg, redisClient)
	if err != nil {
		log.Fatalf("Failed to initialize embedding provider: %v", err)
	}

	// Repositories
	financialsRepo := pgrepo.NewFinancialsRepository(pgClient.DB())
	narrativeRepo := pgrepo.NewNarrativeRepository(pgClient.DB())
	historyRepo := pgrepo.NewHistoryRepository(pgClient.DB())

	// Reasoning stack
	chatProvider := ai.NewOpenAICompatProvider(cfg.AI.APIKey, cfg.AI.BaseURL, cfg.AI.RequestsPerMinute)
	router := reasoning.NewRouter(chatProvider, reasoning.RouterConfig{
		FastModel:       cfg.AI.FastModel,
		ThoroughModel:   cfg.AI.ThoroughModel,
		FastTimeout:     cfg.AI.FastTimeout,
		ThoroughTimeout: cfg.AI.ThoroughTimeout,
	})
	detector := reasoning.NewDetector(router)

	// Retrieval stack
	classifier := retrieval.NewClassifier(retrieval.DefaultRules)
	metricsRetriever := retrieval.NewMetricsRetriever(financialsRepo, cfg.Postgres.Timeout)
	narrativeRetriever := retrieval.NewNarrativeRetriever(embedder, narrativeRepo, cfg.Retrieval.VectorQueryTimeout)
	assembler := retrieval.NewAssembler()

	orchestrator := agents.NewOrchestrator(
		classifier,
		metricsRetriever,
		narrativeRetriever,
		assembler,
		router,
		detector,
		telemetry.New(prometheus.DefaultRegisterer),
		agents.Config{
			NumericLimit:   cfg.Retrieval.NumericLimit,
			NarrativeTopK:  cfg.Retrieval.NarrativeTopK,
			ScoreThreshold: cfg.Retrieval.ScoreThreshold,
		},
	)

	// HTTP surface
	queryHandler := api.NewQueryHandler(orchestrator, historyRepo)

	var rawRedis *goredis.Client
	if redisClient != nil {
		rawRedis = redisClient.Client()
	}
	healthHandler := health.New(log, pgClient.DB(), rawRedis, cfg.App.Name, version)

	server := api.NewServer(api.ServerConfig{
		Addr:        cfg.HTTP.Addr(),
		ServiceName: cfg.App.Name,
		Version:     version,
	}, queryHandler, healthHandler, log)

	log.Info("System initialized successfully")

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	waitForShutdown(serverErr, log)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Shutdown error: %v", err)
	}

	flushCtx, flushCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer flushCancel()
	_ = errorTracker.Flush(flushCtx)

	log.Info("Shutdown complete")
}

// initErrorTracker initializes error tracking (Sentry or no-op)
func initErrorTracker(cfg *config.Config, log *logger.Logger) errors.Tracker {
	if !cfg.ErrorTracking.Enabled || cfg.ErrorTracking.SentryDSN == "" {
		log.Info("Error tracking disabled")
		return noop.New()
	}

	tracker, err := sentry.New(cfg.ErrorTracking.SentryDSN, cfg.ErrorTracking.Environment)
	if err != nil {
		log.Warnf("Failed to initialize Sentry: %v", err)
		return noop.New()
	}

	log.Info("Error tracking initialized (Sentry)")
	return tracker
}

// initRedis connects to Redis when caching is enabled. The service runs
// without it; embeddings are simply regenerated per query.
func initRedis(cfg *config.Config, log *logger.Logger) *redis.Client {
	if !cfg.Redis.Enabled {
		log.Info("Redis caching disabled")
		return nil
	}

	client, err := redis.NewClient(cfg.Redis)
	if err != nil {
		log.Warnf("Failed to connect to Redis, continuing without cache: %v", err)
		return nil
	}

	log.Info("Redis cache initialized")
	return client
}

// initEmbedder builds the embedding provider, wrapped with the Redis cache
// when available.
func initEmbedder(cfg *config.Config, redisClient *redis.Client) (embeddings.Provider, error) {
	factory := embeddings.NewFactory(cfg.Embeddings)
	provider, err := factory.Provider()
	if err != nil {
		return nil, err
	}

	if redisClient != nil {
		return embeddings.NewCachedProvider(provider, redisClient, cfg.Embeddings.CacheTTL), nil
	}
	return provider, nil
}

// waitForShutdown blocks until a termination signal arrives or the HTTP
// server fails on its own.
func waitForShutdown(serverErr <-chan error, log *logger.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Infof("Received signal %s, shutting down", sig)
	case err := <-serverErr:
		if err != nil {
			log.Errorf("HTTP server error: %v", err)
		}
	}
}
