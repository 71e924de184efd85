package app

import (
	"context"
	"fmt"
	"time"

	"github.com/Ayash-Bera/travelbot/internal/agent"
	"github.com/Ayash-Bera/travelbot/internal/api"
	"github.com/Ayash-Bera/travelbot/internal/api/handlers"
	"github.com/Ayash-Bera/travelbot/internal/cache"
	"github.com/Ayash-Bera/travelbot/internal/config"
	"github.com/Ayash-Bera/travelbot/internal/dataset"
	"github.com/Ayash-Bera/travelbot/internal/health"
	"github.com/Ayash-Bera/travelbot/internal/llm"
	"github.com/Ayash-Bera/travelbot/internal/middleware"
	"github.com/Ayash-Bera/travelbot/internal/models"
	"github.com/Ayash-Bera/travelbot/internal/policy"
	"github.com/Ayash-Bera/travelbot/internal/services"
	"github.com/Ayash-Bera/travelbot/internal/session"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// App holds everything one assistant process needs. Nothing here is global;
// each front end builds its own App.
type App struct {
	Config   *config.Config
	Logger   *logrus.Logger
	Flights  []models.FlightRecord
	Index    *policy.Index
	Sessions *session.Store
	Agent    *agent.Agent

	cache *cache.Cache
}

// Models are the hosted model clients the assistant depends on.
type Models struct {
	Chat     llm.ChatModel
	Embedder llm.Embedder
}

// New connects to the configured model providers and builds the App.
func New(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	var opts []option.RequestOption
	if cfg.LLM.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.LLM.BaseURL))
	}
	chat := llm.NewClient(cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.MaxTokens, logger, opts...)

	embedder, err := NewEmbedder(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	return Build(ctx, cfg, logger, Models{Chat: chat, Embedder: embedder})
}

// NewEmbedder returns the sentence embedder for the configured provider: a
// local Ollama model or the Gemini API.
func NewEmbedder(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (llm.Embedder, error) {
	switch cfg.Embedding.Provider {
	case config.ProviderOllama:
		return llm.NewOllamaEmbedder(cfg.Embedding.BaseURL, cfg.Embedding.Model, logger)
	case config.ProviderGemini:
		return llm.NewGeminiEmbedder(ctx, cfg.Embedding.APIKey, cfg.Embedding.Model, logger)
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Embedding.Provider)
	}
}

// Build loads the data, indexes the policy document and wires the agent
// around the given models.
func Build(ctx context.Context, cfg *config.Config, logger *logrus.Logger, m Models) (*App, error) {
	flights, err := dataset.Load(cfg.Data.FlightsPath)
	if err != nil {
		return nil, err
	}
	logger.WithFields(logrus.Fields{
		"path":    cfg.Data.FlightsPath,
		"flights": len(flights),
	}).Info("Flight dataset loaded")

	document, err := policy.LoadDocument(cfg.Data.PolicyPath)
	if err != nil {
		return nil, err
	}
	splitter, err := policy.NewSplitter(cfg.Policy.ChunkSize, cfg.Policy.ChunkOverlap)
	if err != nil {
		return nil, err
	}
	index, err := policy.BuildIndex(ctx, cfg.Data.PolicyPath, document, splitter, m.Embedder, llm.DefaultRetryConfig(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to index policy document: %w", err)
	}

	a := &App{
		Config:   cfg,
		Logger:   logger,
		Flights:  flights,
		Index:    index,
		Sessions: session.NewStore(),
	}

	var resultCache services.ResultCache
	if cfg.Redis.URL != "" {
		c, err := cache.New(cfg.Redis.URL, cfg.Cache.TTL, logger)
		if err != nil {
			logger.WithError(err).Warn("Redis unavailable, continuing without cache")
		} else {
			a.cache = c
			resultCache = c
		}
	}

	extractor := services.NewCriteriaExtractor(m.Chat, resultCache, logger)
	search := services.NewFlightSearch(flights, extractor, logger)
	qa := services.NewPolicyQA(index, m.Chat, cfg.Policy.TopK, resultCache, logger)

	tools := []agent.Tool{
		agent.FlightSearchTool(search),
		agent.PolicyQATool(qa),
	}
	router := agent.NewLLMRouter(m.Chat, tools, logger)
	a.Agent = agent.New(router, a.Sessions, logger, tools...)

	return a, nil
}

// HealthChecker reports on the cache and the loaded data.
func (a *App) HealthChecker() *health.HealthChecker {
	var pinger health.Pinger
	if a.cache != nil {
		pinger = a.cache
	}
	return health.NewHealthChecker(pinger, len(a.Flights), a.Index.Len(), a.Logger)
}

// Router builds the web front end. The returned stop function ends the rate
// limiter's cleanup loop.
func (a *App) Router() (*gin.Engine, func(), error) {
	limiter := middleware.NewRateLimiter(a.Config.RateLimit.PerMinute)
	done := make(chan struct{})
	go limiter.RunCleanup(done, time.Minute)

	router, err := api.NewRouter(
		handlers.NewChatHandler(a.Agent, a.Logger),
		handlers.NewHealthHandler(a.HealthChecker()),
		limiter,
		a.Logger,
	)
	if err != nil {
		close(done)
		return nil, nil, err
	}
	return router, func() { close(done) }, nil
}

// Close releases the cache connection, if any.
func (a *App) Close() error {
	if a.cache != nil {
		return a.cache.Close()
	}
	return nil
}
