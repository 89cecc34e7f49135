// backfill-embeddings embeds feedback records that have no stored embedding
// yet. Run this as a one-off after enabling semantic duplicate detection on
// an existing database; the API server embeds lazily from then on.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	pgxvector "github.com/pgvector/pgvector-go/pgx"
	"golang.org/x/time/rate"

	"github.com/campusvoice/hub/internal/config"
	"github.com/campusvoice/hub/internal/embeddings"
	"github.com/campusvoice/hub/internal/repository"
	"github.com/campusvoice/hub/pkg/database"
)

const (
	batchLimit  = 500
	exitSuccess = 0
	exitFailure = 1
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)

		return exitFailure
	}

	if cfg.OpenAIAPIKey == "" {
		slog.Error("OPENAI_API_KEY is required for backfill")

		return exitFailure
	}

	ctx := context.Background()

	db, err := database.NewPostgresPool(ctx, cfg.DatabaseURL,
		database.WithAfterConnect(pgxvector.RegisterTypes),
	)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)

		return exitFailure
	}
	defer db.Close()

	feedbackRepo := repository.NewFeedbackRepository(db)
	embeddingsRepo := repository.NewEmbeddingsRepository(db)
	client := embeddings.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.EmbeddingModel)

	// Stay well under provider rate limits; a backfill is not latency sensitive.
	limiter := rate.NewLimiter(rate.Every(200*time.Millisecond), 1)

	var embedded, failed int

	for {
		records, err := feedbackRepo.ListMissingEmbeddings(ctx, batchLimit)
		if err != nil {
			slog.Error("Failed to list records missing embeddings", "error", err)

			return exitFailure
		}

		if len(records) == 0 {
			break
		}

		for _, rec := range records {
			if err := limiter.Wait(ctx); err != nil {
				slog.Error("Backfill interrupted", "error", err)

				return exitFailure
			}

			vec, err := client.CreateEmbedding(ctx, rec.Title+"\n\n"+rec.Description)
			if err != nil {
				slog.Warn("Failed to embed record", "feedbackId", rec.ID, "error", err)
				failed++

				continue
			}

			if err := embeddingsRepo.Upsert(ctx, rec.ID, cfg.EmbeddingModel, vec); err != nil {
				slog.Warn("Failed to store embedding", "feedbackId", rec.ID, "error", err)
				failed++

				continue
			}

			embedded++
		}

		// Records that failed stay unembedded; stop rather than retry them forever.
		if len(records) < batchLimit || failed > 0 {
			break
		}
	}

	slog.Info("Backfill complete", "embedded", embedded, "failed", failed)

	fmt.Printf("Embedded %d record(s), %d failure(s).\n", embedded, failed)

	return exitSuccess
}
