package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"appforge/internal/adapter/repo"
	httpapi "appforge/internal/http"
	"appforge/internal/http/handlers"
	"appforge/internal/infra"
	"appforge/internal/infra/credentials"
	"appforge/internal/infra/geoip"
	"appforge/internal/metrics"
	"appforge/internal/middleware"
	"appforge/internal/pipeline"
	"appforge/internal/providers/github"
	"appforge/internal/providers/llm"
	"appforge/internal/pubsub"
	"appforge/internal/queue"
	"appforge/internal/storage"
	"appforge/internal/templates"
	"appforge/internal/worker"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, "server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("db connection failed")
	}
	defer pool.Close()
	runner := infra.NewSQLRunner(pool, logger)

	store, err := storage.NewFileStore(cfg.StoragePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("storage init failed")
	}

	creds := credentials.NewStore(runner)

	generator := buildGenerator(ctx, cfg, creds, logger)
	publisher := buildPublisher(ctx, cfg, creds, store, logger)

	registry := templates.NewRegistry()
	if err := registry.LoadDir(cfg.TemplateDir); err != nil {
		logger.Fatal().Err(err).Msg("template load failed")
	}

	broker := pubsub.NewBroker(cfg.StreamBufferSize)
	m := metrics.New(nil)
	jobRepo := repo.NewJobRepository(runner)
	jobQueue := queue.NewPostgresQueue(runner)

	graph := pipeline.NewGraph(
		pipeline.Generate(generator),
		pipeline.Validate(),
		pipeline.Publish(publisher),
	)
	driver := pipeline.NewDriver(graph, broker, jobRepo, logger,
		func(node pipeline.NodeID, d time.Duration) { m.ObserveStage(string(node), d) })

	workers := worker.NewPool(worker.Options{
		Queue:     jobQueue,
		Records:   jobRepo,
		Runner:    driver,
		Templates: registry,
		Events:    broker,
		Metrics:   m,
		Logger:    logger,
		Size:      cfg.WorkerCount,
		Poll:      cfg.WorkerPollInterval,
	})
	workersDone := make(chan struct{})
	go func() {
		workers.Run(ctx)
		close(workersDone)
	}()

	var lookup middleware.CountryLookup
	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip unavailable")
	} else if resolver != nil {
		lookup = resolver.CountryCode
		defer resolver.Close()
	}

	app := &handlers.App{
		SQL:       runner,
		Records:   jobRepo,
		Queue:     jobQueue,
		Events:    broker,
		Templates: registry,
		Metrics:   m,
		Logger:    logger,
	}
	router := httpapi.NewRouter(app, cfg, logger, lookup)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Str("port", cfg.Port).Int("workers", cfg.WorkerCount).Msg("listening")
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
	}
	select {
	case <-workersDone:
	case <-shutdownCtx.Done():
		logger.Warn().Msg("workers did not drain before deadline")
	}
	logger.Info().Msg("server stopped")
}

// buildGenerator wires the model-backed generator when a key is available,
// from config first and the credentials table second. With no key at all
// the deterministic scaffold generator keeps the pipeline usable.
func buildGenerator(ctx context.Context, cfg *infra.Config, creds *credentials.Store, logger infra.Logger) pipeline.FileGenerator {
	apiKey := cfg.OpenAIAPIKey
	if apiKey == "" {
		if stored, err := creds.OpenAIAPIKey(ctx); err == nil {
			apiKey = stored
		}
	}

	static := llm.NewStaticGenerator()
	if apiKey == "" {
		logger.Warn().Msg("no OpenAI key configured, using scaffold generator")
		return static
	}

	gen, err := llm.NewOpenAIGenerator(llm.Options{
		APIKey:       apiKey,
		Model:        cfg.OpenAIModel,
		BaseURL:      cfg.OpenAIBaseURL,
		Organization: cfg.OpenAIOrg,
		Fallback:     static,
		OnFallback: func(reason string, err error) {
			logger.Warn().Err(err).Str("reason", reason).Msg("llm fallback engaged")
		},
		OnWarning: func(reason, detail string) {
			logger.Warn().Str("reason", reason).Str("detail", detail).Msg("llm warning")
		},
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("llm init failed")
	}
	return gen
}

func buildPublisher(ctx context.Context, cfg *infra.Config, creds *credentials.Store, store *storage.FileStore, logger infra.Logger) pipeline.RepoPublisher {
	token := cfg.GitHubToken
	if token == "" {
		if stored, err := creds.GitHubToken(ctx); err == nil {
			token = stored
		}
	}
	if token == "" {
		logger.Warn().Msg("no GitHub token configured, publishing to local storage")
		return github.NewLocalPublisher(store)
	}

	client, err := github.NewClient(github.Options{
		Token:   token,
		Owner:   cfg.GitHubOwner,
		BaseURL: cfg.GitHubBaseURL,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("github init failed")
	}
	return client
}
