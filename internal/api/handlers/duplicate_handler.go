package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/campusvoice/hub/internal/api/response"
	"github.com/campusvoice/hub/internal/apperrors"
	"github.com/campusvoice/hub/internal/models"
	"github.com/campusvoice/hub/internal/repository"
	"github.com/campusvoice/hub/internal/service"
)

// DedupService defines the interface for duplicate detection business logic.
type DedupService interface {
	CheckDuplicate(ctx context.Context, title, description string) (*service.CheckResult, error)
	MarkDuplicate(ctx context.Context, dupID, originalID uuid.UUID, actor string) (*repository.MergeResult, error)
}

// DuplicateHandler handles HTTP requests for duplicate detection and resolution.
type DuplicateHandler struct {
	service DedupService
}

// NewDuplicateHandler creates a new duplicate handler.
func NewDuplicateHandler(service DedupService) *DuplicateHandler {
	return &DuplicateHandler{service: service}
}

// DuplicateCheckRequest is the body of POST /v1/feedback/duplicate-check.
type DuplicateCheckRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// DuplicateCheckResponse reports whether a draft submission looks like a
// duplicate. Determined is false when no detection path could run, which is
// distinct from a check that ran and found nothing.
type DuplicateCheckResponse struct {
	Success      bool                         `json:"success"`
	Determined   bool                         `json:"determined"`
	IsDuplicate  bool                         `json:"isDuplicate"`
	SimilarPosts []models.SimilarityCandidate `json:"similarPosts"`
	Count        int                          `json:"count"`
	Message      string                       `json:"message,omitempty"`
}

// CheckDuplicate handles POST /v1/feedback/duplicate-check.
func (h *DuplicateHandler) CheckDuplicate(w http.ResponseWriter, r *http.Request) {
	var req DuplicateCheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.RespondBadRequest(w, "Invalid request body")
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)

	if req.Title == "" && req.Description == "" {
		response.RespondBadRequest(w, "title or description is required")
		return
	}

	result, err := h.service.CheckDuplicate(r.Context(), req.Title, req.Description)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			response.RespondBadRequest(w, err.Error())
			return
		}

		response.RespondInternalServerError(w, "An unexpected error occurred")

		return
	}

	resp := DuplicateCheckResponse{
		Success:      true,
		Determined:   result.Determined,
		SimilarPosts: result.Candidates,
		Count:        len(result.Candidates),
	}

	if resp.SimilarPosts == nil {
		resp.SimilarPosts = []models.SimilarityCandidate{}
	}

	if result.Determined {
		resp.IsDuplicate = len(result.Candidates) > 0
	} else {
		resp.Message = "could not determine duplicates"
	}

	response.RespondJSON(w, http.StatusOK, resp)
}

// MarkDuplicateRequest is the body of POST /v1/feedback/{id}/mark-duplicate.
type MarkDuplicateRequest struct {
	OriginalID uuid.UUID `json:"originalId"`
	Actor      string    `json:"actor"`
}

// MarkDuplicateResponse reports the result of a merge.
type MarkDuplicateResponse struct {
	Success        bool                   `json:"success"`
	AlreadyMerged  bool                   `json:"alreadyMerged"`
	VotesMoved     int64                  `json:"votesMoved"`
	ResponsesMoved int64                  `json:"responsesMoved"`
	Record         *models.FeedbackRecord `json:"record"`
}

// MarkDuplicate handles POST /v1/feedback/{id}/mark-duplicate.
func (h *DuplicateHandler) MarkDuplicate(w http.ResponseWriter, r *http.Request) {
	idStr := r.PathValue("id")
	if idStr == "" {
		response.RespondBadRequest(w, "Feedback record ID is required")
		return
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		response.RespondBadRequest(w, "Invalid UUID format")
		return
	}

	var req MarkDuplicateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.RespondBadRequest(w, "Invalid request body")
		return
	}

	if req.OriginalID == uuid.Nil {
		response.RespondBadRequest(w, "originalId is required")
		return
	}

	result, err := h.service.MarkDuplicate(r.Context(), id, req.OriginalID, req.Actor)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			response.RespondNotFound(w, "Feedback record not found")
		case errors.Is(err, apperrors.ErrValidation):
			response.RespondBadRequest(w, err.Error())
		case errors.Is(err, apperrors.ErrMerge):
			response.RespondConflict(w, err.Error())
		default:
			response.RespondInternalServerError(w, "An unexpected error occurred")
		}

		return
	}

	response.RespondJSON(w, http.StatusOK, MarkDuplicateResponse{
		Success:        true,
		AlreadyMerged:  result.AlreadyMerged,
		VotesMoved:     result.VotesMoved,
		ResponsesMoved: result.ResponsesMoved,
		Record:         result.Duplicate,
	})
}
