// Package repository provides data access for feedback records, embeddings,
// and duplicate resolution.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campusvoice/hub/internal/apperrors"
	"github.com/campusvoice/hub/internal/models"
)

const feedbackColumns = `id, title, description, category_id, status, duplicate_of, resolution, created_at, updated_at`

// prefixedFeedbackColumns qualifies the column list with a table alias for
// queries that join.
func prefixedFeedbackColumns(alias string) string {
	cols := strings.Split(feedbackColumns, ", ")
	for i, c := range cols {
		cols[i] = alias + "." + c
	}

	return strings.Join(cols, ", ")
}

// FeedbackRepository handles data access for feedback records.
type FeedbackRepository struct {
	db *pgxpool.Pool
}

// NewFeedbackRepository creates a new feedback repository.
func NewFeedbackRepository(db *pgxpool.Pool) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

func scanFeedback(row pgx.Row) (*models.FeedbackRecord, error) {
	var record models.FeedbackRecord

	err := row.Scan(
		&record.ID, &record.Title, &record.Description, &record.CategoryID,
		&record.Status, &record.DuplicateOf, &record.Resolution,
		&record.CreatedAt, &record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &record, nil
}

// GetByID retrieves a single feedback record by ID.
func (r *FeedbackRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.FeedbackRecord, error) {
	query := `SELECT ` + feedbackColumns + ` FROM feedback_records WHERE id = $1`

	record, err := scanFeedback(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("feedback record", "feedback record not found")
		}

		return nil, fmt.Errorf("get feedback record: %w", err)
	}

	return record, nil
}

// anyTermQuery turns a draft title and description into a websearch query
// that matches records containing any of the terms. Records missing some
// terms still reach the scoring stage; the similarity threshold decides.
func anyTermQuery(title, description string) string {
	return strings.Join(strings.Fields(title+" "+description), " OR ")
}

// SearchByRelevance returns canonical, unresolved feedback records with a
// positive full-text relevance against the given title and description. This
// pre-filter keeps the Levenshtein/overlap stage off a full-table scan; only
// matching rows (relevance > 0) are returned, ordered by relevance.
func (r *FeedbackRepository) SearchByRelevance(
	ctx context.Context, title, description string, limit int,
) ([]models.FeedbackWithRelevance, error) {
	query := `
		SELECT ` + feedbackColumns + `,
			ts_rank(
				to_tsvector('english', title || ' ' || description),
				websearch_to_tsquery('english', $1)
			) AS relevance
		FROM feedback_records
		WHERE duplicate_of IS NULL
		  AND status != $2
		  AND to_tsvector('english', title || ' ' || description) @@ websearch_to_tsquery('english', $1)
		ORDER BY relevance DESC
		LIMIT $3
	`

	rows, err := r.db.Query(ctx, query, anyTermQuery(title, description), models.FeedbackStatusResolved, limit)
	if err != nil {
		return nil, fmt.Errorf("relevance search: %w", err)
	}
	defer rows.Close()

	var results []models.FeedbackWithRelevance

	for rows.Next() {
		var rec models.FeedbackWithRelevance

		err := rows.Scan(
			&rec.Feedback.ID, &rec.Feedback.Title, &rec.Feedback.Description, &rec.Feedback.CategoryID,
			&rec.Feedback.Status, &rec.Feedback.DuplicateOf, &rec.Feedback.Resolution,
			&rec.Feedback.CreatedAt, &rec.Feedback.UpdatedAt, &rec.Relevance,
		)
		if err != nil {
			return nil, fmt.Errorf("scan relevance row: %w", err)
		}

		results = append(results, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating relevance rows: %w", err)
	}

	return results, nil
}

// ListEligibleForSimilarity returns records that may serve as duplicate
// candidates: not resolved and not themselves duplicates. excludeID, when
// non-nil, omits one record (the one being checked).
func (r *FeedbackRepository) ListEligibleForSimilarity(
	ctx context.Context, excludeID *uuid.UUID,
) ([]models.FeedbackRecord, error) {
	query := `
		SELECT ` + feedbackColumns + `
		FROM feedback_records
		WHERE duplicate_of IS NULL
		  AND status != $1
		  AND ($2::uuid IS NULL OR id != $2)
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(ctx, query, models.FeedbackStatusResolved, excludeID)
	if err != nil {
		return nil, fmt.Errorf("list eligible feedback: %w", err)
	}
	defer rows.Close()

	var records []models.FeedbackRecord

	for rows.Next() {
		var rec models.FeedbackRecord

		err := rows.Scan(
			&rec.ID, &rec.Title, &rec.Description, &rec.CategoryID,
			&rec.Status, &rec.DuplicateOf, &rec.Resolution,
			&rec.CreatedAt, &rec.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan feedback row: %w", err)
		}

		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating feedback rows: %w", err)
	}

	return records, nil
}

// ListMissingEmbeddings returns feedback records that have no stored
// embedding yet, oldest first. Used by the backfill command.
func (r *FeedbackRepository) ListMissingEmbeddings(ctx context.Context, limit int) ([]models.FeedbackRecord, error) {
	query := `
		SELECT ` + prefixedFeedbackColumns("f") + `
		FROM feedback_records f
		LEFT JOIN feedback_embeddings e ON e.feedback_id = f.id
		WHERE e.feedback_id IS NULL
		ORDER BY f.created_at
		LIMIT $1
	`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list missing embeddings: %w", err)
	}
	defer rows.Close()

	var records []models.FeedbackRecord

	for rows.Next() {
		var rec models.FeedbackRecord

		err := rows.Scan(
			&rec.ID, &rec.Title, &rec.Description, &rec.CategoryID,
			&rec.Status, &rec.DuplicateOf, &rec.Resolution,
			&rec.CreatedAt, &rec.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan feedback row: %w", err)
		}

		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating feedback rows: %w", err)
	}

	return records, nil
}

// ListResponsesForRecords returns the admin responses for the given feedback
// records, grouped by feedback ID. Used to enrich similarity candidates.
func (r *FeedbackRepository) ListResponsesForRecords(
	ctx context.Context, feedbackIDs []uuid.UUID,
) (map[uuid.UUID][]models.FeedbackResponse, error) {
	if len(feedbackIDs) == 0 {
		return map[uuid.UUID][]models.FeedbackResponse{}, nil
	}

	query := `
		SELECT id, feedback_id, responder, body, created_at
		FROM feedback_responses
		WHERE feedback_id = ANY($1)
		ORDER BY created_at
	`

	rows, err := r.db.Query(ctx, query, feedbackIDs)
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	defer rows.Close()

	grouped := make(map[uuid.UUID][]models.FeedbackResponse)

	for rows.Next() {
		var resp models.FeedbackResponse

		if err := rows.Scan(&resp.ID, &resp.FeedbackID, &resp.Responder, &resp.Body, &resp.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan response row: %w", err)
		}

		grouped[resp.FeedbackID] = append(grouped[resp.FeedbackID], resp)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating response rows: %w", err)
	}

	return grouped, nil
}
