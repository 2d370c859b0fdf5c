package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/petspace/petemotion/internal/adapters/http/api"
	"github.com/petspace/petemotion/internal/adapters/http/swagger"
	"github.com/petspace/petemotion/internal/adapters/mq/publisher"
	"github.com/petspace/petemotion/internal/adapters/provider/gemini"
	"github.com/petspace/petemotion/internal/adapters/provider/ollama"
	"github.com/petspace/petemotion/internal/adapters/provider/openai"
	"github.com/petspace/petemotion/internal/adapters/provider/vision"
	"github.com/petspace/petemotion/internal/adapters/repository"
	"github.com/petspace/petemotion/internal/adapters/storage"
	app "github.com/petspace/petemotion/internal/app"
	"github.com/petspace/petemotion/internal/config"
	"github.com/petspace/petemotion/internal/domain/dedupe"
	"github.com/petspace/petemotion/internal/domain/scoring"
	"github.com/petspace/petemotion/pkg/logger"
)

// buildService wires every collaborator named by cfg. The returned func
// releases connections opened here.
func buildService(ctx context.Context, cfg *config.Config, log logger.Logger) (*app.Service, func(), error) {
	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	providers, err := buildProviders(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}
	chain := scoring.NewChain(providers,
		scoring.NewFallback(scoring.WithDelay(cfg.FallbackDelay())),
		scoring.WithProviderTimeout(cfg.ProviderTimeout()),
		scoring.WithLogger(log.Named("chain")),
	)

	history, closeHistory, err := buildHistory(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}
	closers = append(closers, closeHistory)

	idem, closeIdem, err := buildIdempotency(ctx, cfg, log)
	if err != nil {
		closeAll()
		return nil, nil, err
	}
	closers = append(closers, closeIdem)

	pub, err := buildPublisher(cfg, log)
	if err != nil {
		closeAll()
		return nil, nil, err
	}

	svc := app.New(chain, buildUploader(cfg, log), history,
		app.WithCredentials(cfg.Credentials()),
		app.WithIdempotencyStore(idem),
		app.WithPublisher(pub),
		app.WithWorkerCount(cfg.EventWorkerCount),
		app.WithQueueSize(cfg.EventQueueSize),
		app.WithMaxImageBytes(cfg.MaxImageBytes),
		app.WithMaxImageDimension(cfg.MaxImageDimension),
		app.WithMaxImagePixels(cfg.MaxImagePixels),
		app.WithLogger(log.Named("service")),
	)
	return svc, closeAll, nil
}

// buildProviders returns the providers in priority order: vision, gemini,
// openai, ollama. Providers whose client cannot be built without a
// credential are left out; the chain skips the rest by credential.
func buildProviders(ctx context.Context, cfg *config.Config, log logger.Logger) ([]scoring.Provider, error) {
	providers := []scoring.Provider{
		vision.New(cfg.VisionAPIKey,
			vision.WithEndpoint(cfg.VisionEndpoint),
			vision.WithLogger(log.Named(vision.Name)),
		),
	}

	if cfg.Credentials()[config.CredGemini] {
		g, err := gemini.New(ctx, cfg.GeminiAPIKey,
			gemini.WithModel(cfg.GeminiModel),
			gemini.WithBaseURL(cfg.GeminiBaseURL),
			gemini.WithSampling(cfg.GeminiTemperature, cfg.GeminiTopK, cfg.GeminiTopP),
			gemini.WithMaxOutputTokens(cfg.GeminiMaxOutputTokens),
			gemini.WithSafetyThreshold(cfg.GeminiSafetyThreshold),
			gemini.WithLogger(log.Named(gemini.Name)),
		)
		if err != nil {
			return nil, fmt.Errorf("build gemini provider: %w", err)
		}
		providers = append(providers, g)
	}

	openaiOpts := []openai.Option{
		openai.WithModel(cfg.OpenAIModel),
		openai.WithLogger(log.Named(openai.Name)),
	}
	if cfg.OpenAIBaseURL != "" {
		openaiOpts = append(openaiOpts, openai.WithBaseURL(cfg.OpenAIBaseURL))
	}
	providers = append(providers, openai.New(cfg.OpenAIAPIKey, openaiOpts...))

	if cfg.Credentials()[config.CredOllama] {
		o, err := ollama.New(cfg.OllamaURL,
			ollama.WithModel(cfg.OllamaModel),
			ollama.WithLogger(log.Named(ollama.Name)),
		)
		if err != nil {
			return nil, fmt.Errorf("build ollama provider: %w", err)
		}
		providers = append(providers, o)
	}
	return providers, nil
}

func buildUploader(cfg *config.Config, log logger.Logger) storage.Uploader {
	if cfg.StorageBackend == config.StorageSupabase {
		return storage.NewSupabaseUploader(cfg.SupabaseURL, cfg.SupabaseServiceRoleKey, cfg.StorageBucket,
			storage.WithLogger(log.Named("storage")))
	}
	return storage.NewFileUploader(cfg.StorageDir, cfg.PublicBaseURL, storage.WithLogger(log.Named("storage")))
}

func buildHistory(ctx context.Context, cfg *config.Config, log logger.Logger) (repository.Store, func(), error) {
	if cfg.DatabaseURL == "" {
		log.Info(ctx, "no database_url; keeping history in memory")
		return repository.NewMemoryStore(repository.WithLogger(log.Named("history"))), func() {}, nil
	}
	db, err := repository.OpenPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	store := repository.NewPostgresStore(db, repository.WithLogger(log.Named("history")))
	return store, func() { _ = store.Close() }, nil
}

func buildIdempotency(ctx context.Context, cfg *config.Config, log logger.Logger) (dedupe.Store, func(), error) {
	if cfg.IdempotencyBackend != config.IdempotencyRedis {
		return dedupe.NewMemoryStore(
			dedupe.WithMaxSize(cfg.IdempotencySize),
			dedupe.WithTTL(cfg.IdempotencyTTL()),
		), func() {}, nil
	}
	client, err := dedupe.DialRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, nil, err
	}
	log.Info(ctx, "idempotency keys stored in redis", logger.String("addr", cfg.RedisAddr))
	return dedupe.NewRedisStore(client, dedupe.WithTTL(cfg.IdempotencyTTL())), func() { _ = client.Close() }, nil
}

func buildPublisher(cfg *config.Config, log logger.Logger) (publisher.Publisher, error) {
	if cfg.EventsBackend != config.EventsAMQP {
		return publisher.NewLogPublisher(publisher.WithLogger(log.Named("events"))), nil
	}
	return publisher.DialAMQP(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPRoutingKey, publisher.WithLogger(log.Named("events")))
}

// newMux registers the API and docs routes.
func newMux(ctx context.Context, cfg *config.Config, svc *app.Service) *http.ServeMux {
	opts := []api.Option{
		api.WithCORSOrigin(cfg.CORSAllowOrigin),
		api.WithMaxImageBytes(cfg.MaxImageBytes),
	}
	if cfg.StorageBackend == config.StorageFilesystem {
		opts = append(opts, api.WithImagesDir(cfg.StorageDir))
	}

	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(svc, svc, opts...).Register(ctx, mux)
	return mux
}
