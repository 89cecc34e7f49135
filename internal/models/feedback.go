package models

import (
	"time"

	"github.com/google/uuid"
)

// Feedback statuses. Resolved is terminal; resolving a canonical record
// propagates to its duplicates on merge.
const (
	FeedbackStatusOpen       = "open"
	FeedbackStatusInProgress = "in_progress"
	FeedbackStatusResolved   = "resolved"
)

// FeedbackRecord represents a single feedback entry in the portal.
// DuplicateOf forms a forest: a record points to at most one canonical
// ancestor, and a canonical record's own DuplicateOf is nil.
type FeedbackRecord struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	CategoryID  *uuid.UUID `json:"category_id,omitempty"`
	Status      string     `json:"status"`
	DuplicateOf *uuid.UUID `json:"duplicate_of,omitempty"`
	Resolution  *string    `json:"resolution,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// FeedbackResponse is an admin response attached to a feedback record.
type FeedbackResponse struct {
	ID         uuid.UUID `json:"id"`
	FeedbackID uuid.UUID `json:"feedback_id"`
	Responder  string    `json:"responder"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"created_at"`
}

// SimilarityCandidate is a transient duplicate candidate produced by either
// similarity path. Not persisted; discarded after the response.
type SimilarityCandidate struct {
	Feedback  FeedbackRecord     `json:"feedback"`
	Score     float64            `json:"score"`
	Responses []FeedbackResponse `json:"responses,omitempty"`
}

// FeedbackWithRelevance is a feedback record paired with the store's
// full-text relevance, used to pre-filter the lexical similarity stage.
type FeedbackWithRelevance struct {
	Feedback  FeedbackRecord
	Relevance float64
}
