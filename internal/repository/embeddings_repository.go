package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// ErrEmbeddingNotFound indicates no stored embedding exists for a record.
var ErrEmbeddingNotFound = errors.New("embedding not found")

// EmbeddingsRepository handles persistence of feedback embeddings backed by
// pgvector.
type EmbeddingsRepository struct {
	db *pgxpool.Pool
}

// NewEmbeddingsRepository creates a new embeddings repository.
func NewEmbeddingsRepository(db *pgxpool.Pool) *EmbeddingsRepository {
	return &EmbeddingsRepository{db: db}
}

// Get returns the stored embedding vector for a feedback record.
func (r *EmbeddingsRepository) Get(ctx context.Context, feedbackID uuid.UUID) ([]float32, error) {
	query := `SELECT embedding FROM feedback_embeddings WHERE feedback_id = $1`

	var vec pgvector.Vector

	err := r.db.QueryRow(ctx, query, feedbackID).Scan(&vec)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEmbeddingNotFound
		}

		return nil, fmt.Errorf("get embedding: %w", err)
	}

	return vec.Slice(), nil
}

// GetForRecords returns stored embeddings for the given feedback records,
// keyed by feedback ID. Records without a stored embedding are simply absent
// from the result.
func (r *EmbeddingsRepository) GetForRecords(
	ctx context.Context, feedbackIDs []uuid.UUID,
) (map[uuid.UUID][]float32, error) {
	if len(feedbackIDs) == 0 {
		return map[uuid.UUID][]float32{}, nil
	}

	query := `SELECT feedback_id, embedding FROM feedback_embeddings WHERE feedback_id = ANY($1)`

	rows, err := r.db.Query(ctx, query, feedbackIDs)
	if err != nil {
		return nil, fmt.Errorf("get embeddings: %w", err)
	}
	defer rows.Close()

	result := make(map[uuid.UUID][]float32, len(feedbackIDs))

	for rows.Next() {
		var (
			id  uuid.UUID
			vec pgvector.Vector
		)

		if err := rows.Scan(&id, &vec); err != nil {
			return nil, fmt.Errorf("scan embedding row: %w", err)
		}

		result[id] = vec.Slice()
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating embedding rows: %w", err)
	}

	return result, nil
}

// Upsert stores or replaces the embedding for a feedback record.
func (r *EmbeddingsRepository) Upsert(
	ctx context.Context, feedbackID uuid.UUID, model string, embedding []float32,
) error {
	query := `
		INSERT INTO feedback_embeddings (feedback_id, model, embedding, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (feedback_id)
		DO UPDATE SET model = EXCLUDED.model, embedding = EXCLUDED.embedding, updated_at = NOW()
	`

	_, err := r.db.Exec(ctx, query, feedbackID, model, pgvector.NewVector(embedding))
	if err != nil {
		return fmt.Errorf("upsert embedding: %w", err)
	}

	return nil
}
