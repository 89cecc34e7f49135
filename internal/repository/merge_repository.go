package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campusvoice/hub/internal/apperrors"
	"github.com/campusvoice/hub/internal/models"
)

// MergeRepository performs the transactional merge of a duplicate feedback
// record into its original.
type MergeRepository struct {
	db *pgxpool.Pool
}

// NewMergeRepository creates a new merge repository.
func NewMergeRepository(db *pgxpool.Pool) *MergeRepository {
	return &MergeRepository{db: db}
}

// MergeResult describes what a merge changed, for notification purposes.
type MergeResult struct {
	Duplicate      *models.FeedbackRecord
	Original       *models.FeedbackRecord
	VotesMoved     int64
	ResponsesMoved int64
	AlreadyMerged  bool
}

// MarkDuplicate marks dupID as a duplicate of originalID inside a single
// transaction: votes and responses move to the original (skipping ones the
// original already has), the duplicate inherits the original's resolved
// status and resolution, and an audit entry records the merge. Any failure
// rolls the whole merge back.
func (r *MergeRepository) MarkDuplicate(
	ctx context.Context, dupID, originalID uuid.UUID, actor string,
) (*MergeResult, error) {
	if dupID == originalID {
		return nil, apperrors.NewValidationError("originalId", "a record cannot be a duplicate of itself")
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin merge transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	dup, err := getForUpdate(ctx, tx, dupID)
	if err != nil {
		return nil, err
	}

	original, err := getForUpdate(ctx, tx, originalID)
	if err != nil {
		return nil, err
	}

	if original.DuplicateOf != nil {
		return nil, apperrors.NewValidationError("originalId", "original record is itself marked as a duplicate")
	}

	// Re-marking against the same original is a no-op: no vote or response
	// moves, no second audit entry.
	if dup.DuplicateOf != nil && *dup.DuplicateOf == originalID {
		return &MergeResult{Duplicate: dup, Original: original, AlreadyMerged: true}, nil
	}

	if dup.DuplicateOf != nil {
		return nil, apperrors.NewValidationError("id", "record is already marked as a duplicate of another record")
	}

	votesMoved, err := migrateVotes(ctx, tx, dupID, originalID)
	if err != nil {
		return nil, apperrors.NewMergeError("votes", err.Error())
	}

	responsesMoved, err := migrateResponses(ctx, tx, dupID, originalID)
	if err != nil {
		return nil, apperrors.NewMergeError("responses", err.Error())
	}

	status := dup.Status
	resolution := dup.Resolution

	if original.Status == models.FeedbackStatusResolved {
		status = models.FeedbackStatusResolved
		resolution = original.Resolution
	}

	query := `
		UPDATE feedback_records
		SET duplicate_of = $2, status = $3, resolution = $4, updated_at = NOW()
		WHERE id = $1
	`

	if _, err := tx.Exec(ctx, query, dupID, originalID, status, resolution); err != nil {
		return nil, apperrors.NewMergeError("record", fmt.Sprintf("update duplicate record: %v", err))
	}

	auditQuery := `
		INSERT INTO audit_log (id, action, subject_id, target_id, actor, created_at)
		VALUES ($1, 'mark_duplicate', $2, $3, $4, NOW())
	`

	if _, err := tx.Exec(ctx, auditQuery, uuid.New(), dupID, originalID, actor); err != nil {
		return nil, apperrors.NewMergeError("audit", fmt.Sprintf("insert audit entry: %v", err))
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, apperrors.NewMergeError("commit", err.Error())
	}

	dup.DuplicateOf = &originalID
	dup.Status = status
	dup.Resolution = resolution

	return &MergeResult{
		Duplicate:      dup,
		Original:       original,
		VotesMoved:     votesMoved,
		ResponsesMoved: responsesMoved,
	}, nil
}

func getForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.FeedbackRecord, error) {
	query := `SELECT ` + feedbackColumns + ` FROM feedback_records WHERE id = $1 FOR UPDATE`

	record, err := scanFeedback(tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("feedback record", "feedback record not found")
		}

		return nil, fmt.Errorf("lock feedback record: %w", err)
	}

	return record, nil
}

// migrateVotes moves votes from the duplicate to the original, skipping
// voters who already voted on the original so nobody ends up counted twice.
// The skipped rows are deleted with the rest of the duplicate's votes.
func migrateVotes(ctx context.Context, tx pgx.Tx, dupID, originalID uuid.UUID) (int64, error) {
	moveQuery := `
		UPDATE votes v
		SET feedback_id = $2
		WHERE v.feedback_id = $1
		  AND NOT EXISTS (
			SELECT 1 FROM votes o
			WHERE o.feedback_id = $2 AND o.voter_id = v.voter_id
		  )
	`

	tag, err := tx.Exec(ctx, moveQuery, dupID, originalID)
	if err != nil {
		return 0, fmt.Errorf("move votes: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM votes WHERE feedback_id = $1`, dupID); err != nil {
		return 0, fmt.Errorf("clear remaining votes: %w", err)
	}

	return tag.RowsAffected(), nil
}

// migrateResponses reattaches the duplicate's admin responses to the
// original, skipping responses whose body already exists on the original.
func migrateResponses(ctx context.Context, tx pgx.Tx, dupID, originalID uuid.UUID) (int64, error) {
	moveQuery := `
		UPDATE feedback_responses r
		SET feedback_id = $2
		WHERE r.feedback_id = $1
		  AND NOT EXISTS (
			SELECT 1 FROM feedback_responses o
			WHERE o.feedback_id = $2 AND o.body = r.body
		  )
	`

	tag, err := tx.Exec(ctx, moveQuery, dupID, originalID)
	if err != nil {
		return 0, fmt.Errorf("move responses: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM feedback_responses WHERE feedback_id = $1`, dupID); err != nil {
		return 0, fmt.Errorf("clear remaining responses: %w", err)
	}

	return tag.RowsAffected(), nil
}
