// Package service holds the business logic for duplicate detection and
// merging of feedback records.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"

	"github.com/campusvoice/hub/internal/apperrors"
	"github.com/campusvoice/hub/internal/embeddings"
	"github.com/campusvoice/hub/internal/models"
	"github.com/campusvoice/hub/internal/repository"
	"github.com/campusvoice/hub/internal/similarity"
)

// FeedbackRepository defines the data access the dedup service needs for
// feedback records.
type FeedbackRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.FeedbackRecord, error)
	SearchByRelevance(ctx context.Context, title, description string, limit int) ([]models.FeedbackWithRelevance, error)
	ListEligibleForSimilarity(ctx context.Context, excludeID *uuid.UUID) ([]models.FeedbackRecord, error)
	ListResponsesForRecords(ctx context.Context, feedbackIDs []uuid.UUID) (map[uuid.UUID][]models.FeedbackResponse, error)
}

// EmbeddingsRepository defines the embedding persistence the dedup service needs.
type EmbeddingsRepository interface {
	Get(ctx context.Context, feedbackID uuid.UUID) ([]float32, error)
	GetForRecords(ctx context.Context, feedbackIDs []uuid.UUID) (map[uuid.UUID][]float32, error)
	Upsert(ctx context.Context, feedbackID uuid.UUID, model string, embedding []float32) error
}

// MergeRepository defines the transactional merge the dedup service delegates to.
type MergeRepository interface {
	MarkDuplicate(ctx context.Context, dupID, originalID uuid.UUID, actor string) (*repository.MergeResult, error)
}

// Notifier is told about completed merges so submitters can be informed.
type Notifier interface {
	NotifyMerged(ctx context.Context, result *repository.MergeResult)
}

// lexicalPrefilterLimit caps how many full-text matches feed the
// Levenshtein/overlap scoring stage.
const lexicalPrefilterLimit = 50

// CheckResult is the outcome of a duplicate check. Determined is false when
// neither detection path could run, which is distinct from a determined
// check that found no candidates.
type CheckResult struct {
	Determined bool
	Candidates []models.SimilarityCandidate
}

// DedupServiceParams holds dependencies for NewDedupService.
type DedupServiceParams struct {
	Feedback          FeedbackRepository
	Embeddings        EmbeddingsRepository
	Merges            MergeRepository
	EmbeddingClient   embeddings.Client
	Notifier          Notifier
	EmbeddingModel    string
	LexicalThreshold  float64
	SemanticThreshold float64
	SimilarLimit      int
	Logger            *slog.Logger
}

// DedupService detects and resolves duplicate feedback records.
type DedupService struct {
	feedback          FeedbackRepository
	embeddings        EmbeddingsRepository
	merges            MergeRepository
	embeddingClient   embeddings.Client
	notifier          Notifier
	embeddingModel    string
	lexicalThreshold  float64
	semanticThreshold float64
	similarLimit      int
	logger            *slog.Logger
}

// NewDedupService creates a new dedup service. EmbeddingClient and Notifier
// may be nil; semantic detection and merge notifications are skipped then.
func NewDedupService(params DedupServiceParams) *DedupService {
	limit := params.SimilarLimit
	if limit <= 0 {
		limit = 5
	}

	logger := params.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &DedupService{
		feedback:          params.Feedback,
		embeddings:        params.Embeddings,
		merges:            params.Merges,
		embeddingClient:   params.EmbeddingClient,
		notifier:          params.Notifier,
		embeddingModel:    params.EmbeddingModel,
		lexicalThreshold:  params.LexicalThreshold,
		semanticThreshold: params.SemanticThreshold,
		similarLimit:      limit,
		logger:            logger,
	}
}

// FindSimilarLexical returns existing records whose titles and descriptions
// score at or above the lexical threshold against the given draft. A
// full-text pre-filter narrows the candidate set before pairwise scoring.
func (s *DedupService) FindSimilarLexical(
	ctx context.Context, title, description string,
) ([]models.SimilarityCandidate, error) {
	if title == "" && description == "" {
		return nil, apperrors.NewValidationError("title", "title or description is required")
	}

	prefiltered, err := s.feedback.SearchByRelevance(ctx, title, description, lexicalPrefilterLimit)
	if err != nil {
		return nil, err
	}

	var candidates []models.SimilarityCandidate

	for _, match := range prefiltered {
		score := similarity.LexicalScore(title, description, match.Feedback.Title, match.Feedback.Description)
		if score >= s.lexicalThreshold {
			candidates = append(candidates, models.SimilarityCandidate{
				Feedback: match.Feedback,
				Score:    score,
			})
		}
	}

	return s.finalize(ctx, candidates)
}

// FindSimilarSemantic returns records whose stored embeddings are close to
// the embedding of the given text. Candidates missing a stored embedding are
// embedded lazily and persisted for next time.
func (s *DedupService) FindSimilarSemantic(
	ctx context.Context, text string, excludeID *uuid.UUID,
) ([]models.SimilarityCandidate, error) {
	if s.embeddingClient == nil {
		return nil, apperrors.NewConfigurationError("embeddings", "no embedding client configured")
	}

	queryVec, err := s.embeddingClient.CreateEmbedding(ctx, text)
	if err != nil {
		return nil, err
	}

	eligible, err := s.feedback.ListEligibleForSimilarity(ctx, excludeID)
	if err != nil {
		return nil, err
	}

	if len(eligible) == 0 {
		return nil, nil
	}

	ids := make([]uuid.UUID, len(eligible))
	for i, rec := range eligible {
		ids[i] = rec.ID
	}

	stored, err := s.embeddings.GetForRecords(ctx, ids)
	if err != nil {
		return nil, err
	}

	var candidates []models.SimilarityCandidate

	for _, rec := range eligible {
		vec, ok := stored[rec.ID]
		if !ok {
			vec, err = s.embedCandidate(ctx, rec)
			if err != nil {
				s.logger.Warn("skipping candidate without embedding",
					"feedbackId", rec.ID, "error", err)
				continue
			}
		}

		score := similarity.Cosine(queryVec, vec)
		if score >= s.semanticThreshold {
			candidates = append(candidates, models.SimilarityCandidate{
				Feedback: rec,
				Score:    score,
			})
		}
	}

	return s.finalize(ctx, candidates)
}

func (s *DedupService) embedCandidate(ctx context.Context, rec models.FeedbackRecord) ([]float32, error) {
	vec, err := s.embeddingClient.CreateEmbedding(ctx, rec.Title+"\n\n"+rec.Description)
	if err != nil {
		return nil, fmt.Errorf("embed candidate: %w", err)
	}

	if err := s.embeddings.Upsert(ctx, rec.ID, s.embeddingModel, vec); err != nil {
		return nil, fmt.Errorf("persist candidate embedding: %w", err)
	}

	return vec, nil
}

// finalize sorts candidates by score, applies the limit, and enriches the
// survivors with their admin responses.
func (s *DedupService) finalize(
	ctx context.Context, candidates []models.SimilarityCandidate,
) ([]models.SimilarityCandidate, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	if len(candidates) > s.similarLimit {
		candidates = candidates[:s.similarLimit]
	}

	ids := make([]uuid.UUID, len(candidates))
	for i, c := range candidates {
		ids[i] = c.Feedback.ID
	}

	responses, err := s.feedback.ListResponsesForRecords(ctx, ids)
	if err != nil {
		return nil, err
	}

	for i := range candidates {
		candidates[i].Responses = responses[candidates[i].Feedback.ID]
	}

	return candidates, nil
}

// CheckDuplicate runs both detection paths against a draft submission and
// merges their candidate sets, keeping the higher score when both paths
// flag the same record. A semantic failure downgrades the check to lexical
// only; the check is undetermined only when no path produced an answer.
func (s *DedupService) CheckDuplicate(
	ctx context.Context, title, description string,
) (*CheckResult, error) {
	lexical, lexErr := s.FindSimilarLexical(ctx, title, description)
	if lexErr != nil {
		var validationErr *apperrors.ValidationError
		if errors.As(lexErr, &validationErr) {
			return nil, lexErr
		}

		s.logger.Warn("lexical duplicate check failed", "error", lexErr)
	}

	var (
		semantic []models.SimilarityCandidate
		semErr   error
	)

	if s.embeddingClient != nil {
		semantic, semErr = s.FindSimilarSemantic(ctx, title+"\n\n"+description, nil)
		if semErr != nil {
			s.logger.Warn("semantic duplicate check failed", "error", semErr)
		}
	}

	determined := lexErr == nil || (s.embeddingClient != nil && semErr == nil)
	if !determined {
		return &CheckResult{Determined: false}, nil
	}

	merged := mergeCandidates(lexical, semantic)
	if len(merged) > s.similarLimit {
		merged = merged[:s.similarLimit]
	}

	return &CheckResult{Determined: true, Candidates: merged}, nil
}

// mergeCandidates combines the two candidate sets, deduplicating by record
// ID and keeping the higher score, then re-sorts by score.
func mergeCandidates(lexical, semantic []models.SimilarityCandidate) []models.SimilarityCandidate {
	byID := make(map[uuid.UUID]int, len(lexical))
	merged := make([]models.SimilarityCandidate, 0, len(lexical)+len(semantic))

	for _, c := range lexical {
		byID[c.Feedback.ID] = len(merged)
		merged = append(merged, c)
	}

	for _, c := range semantic {
		if idx, ok := byID[c.Feedback.ID]; ok {
			if c.Score > merged[idx].Score {
				merged[idx].Score = c.Score
			}

			continue
		}

		byID[c.Feedback.ID] = len(merged)
		merged = append(merged, c)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Score > merged[j].Score
	})

	return merged
}

// MarkDuplicate marks one record as a duplicate of another and notifies
// listeners on success. Idempotent re-marks skip notification.
func (s *DedupService) MarkDuplicate(
	ctx context.Context, dupID, originalID uuid.UUID, actor string,
) (*repository.MergeResult, error) {
	result, err := s.merges.MarkDuplicate(ctx, dupID, originalID, actor)
	if err != nil {
		return nil, err
	}

	if !result.AlreadyMerged && s.notifier != nil {
		s.notifier.NotifyMerged(ctx, result)
	}

	return result, nil
}
