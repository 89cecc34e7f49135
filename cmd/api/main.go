package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	pgxvector "github.com/pgvector/pgvector-go/pgx"
	"golang.org/x/time/rate"

	"github.com/campusvoice/hub/internal/api/handlers"
	"github.com/campusvoice/hub/internal/api/middleware"
	"github.com/campusvoice/hub/internal/config"
	"github.com/campusvoice/hub/internal/embeddings"
	"github.com/campusvoice/hub/internal/feed"
	"github.com/campusvoice/hub/internal/fetch"
	"github.com/campusvoice/hub/internal/observability"
	"github.com/campusvoice/hub/internal/repository"
	"github.com/campusvoice/hub/internal/service"
	"github.com/campusvoice/hub/internal/worker"
	"github.com/campusvoice/hub/pkg/database"
)

const maxRequestBodyBytes = 1 << 20 // 1 MiB

func main() {
	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Configure slog with the log level from config
	setupLogging(cfg.LogLevel)

	// Initialize database connection; each connection registers the pgvector type
	db, err := database.NewPostgresPool(ctx, cfg.DatabaseURL,
		database.WithAfterConnect(pgxvector.RegisterTypes),
	)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Initialize embedding client if OpenAI API key is configured
	var embeddingClient embeddings.Client
	if cfg.OpenAIAPIKey != "" {
		embeddingClient = embeddings.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.EmbeddingModel)
		slog.Info("Semantic duplicate detection enabled", "embedding_model", cfg.EmbeddingModel)
	} else {
		slog.Info("Semantic duplicate detection disabled (OPENAI_API_KEY not set)")
	}

	// Social feed pipeline: one adapter per platform, courtesy rate limits
	searchFetcher := fetch.NewSearchAPIFetcher(fetch.SearchAPIParams{
		BaseURL:   cfg.SearchAPIBaseURL,
		Limiter:   rate.NewLimiter(rate.Every(2*time.Second), 1),
		ResultCap: cfg.FetchResultCap,
		Logger:    slog.Default(),
	})
	mirrorFetcher := fetch.NewMirrorFetcher(fetch.MirrorParams{
		BaseURL:   cfg.MirrorBaseURL,
		Limiter:   rate.NewLimiter(rate.Every(2*time.Second), 1),
		ResultCap: cfg.FetchResultCap,
		Logger:    slog.Default(),
	})

	aggregator := feed.NewAggregator([]fetch.Fetcher{searchFetcher, mirrorFetcher}, slog.Default())
	feedCache := feed.NewCache(cfg.FeedCacheTTL, cfg.FeedCacheDir, slog.Default())
	feedService := feed.NewService(aggregator, feedCache)
	feedHandler := handlers.NewFeedHandler(feedService, cfg.FeedDefaultQuery)

	// Duplicate detection
	feedbackRepo := repository.NewFeedbackRepository(db)
	embeddingsRepo := repository.NewEmbeddingsRepository(db)
	mergeRepo := repository.NewMergeRepository(db)

	dedupService := service.NewDedupService(service.DedupServiceParams{
		Feedback:          feedbackRepo,
		Embeddings:        embeddingsRepo,
		Merges:            mergeRepo,
		EmbeddingClient:   embeddingClient,
		Notifier:          service.NewLogNotifier(slog.Default()),
		EmbeddingModel:    cfg.EmbeddingModel,
		LexicalThreshold:  cfg.LexicalThreshold,
		SemanticThreshold: cfg.SemanticThreshold,
		SimilarLimit:      cfg.SimilarLimit,
		Logger:            slog.Default(),
	})
	duplicateHandler := handlers.NewDuplicateHandler(dedupService)

	healthHandler := handlers.NewHealthHandler(db)

	// Router: request-id and access logs everywhere, API key on /v1 only
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)

	r.Get("/health", healthHandler.Check)
	r.Get("/ready", healthHandler.Ready)

	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.APIKey))
		r.Use(middleware.MaxBody(maxRequestBodyBytes))

		r.Get("/feed", feedHandler.Get)
		r.Post("/feedback/duplicate-check", duplicateHandler.CheckDuplicate)
		r.Post("/feedback/{id}/mark-duplicate", duplicateHandler.MarkDuplicate)
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		slog.Info("Starting server", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	// Start the periodic feed refresher
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	refresher := worker.NewFeedRefresher(feedService, cfg.FeedRefreshQueries, cfg.FeedRefreshInterval)
	go refresher.Start(workerCtx)

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	workerCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	slog.Info("Server stopped")
}

// setupLogging configures the default slog logger: JSON output with the
// configured level, plus request IDs propagated from context.
func setupLogging(level string) {
	var logLevel slog.Level

	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	slog.SetDefault(slog.New(observability.NewRequestIDHandler(handler)))
}
