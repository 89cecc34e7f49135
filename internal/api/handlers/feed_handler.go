package handlers

import (
	"context"
	"net/http"

	"github.com/campusvoice/hub/internal/api/response"
	"github.com/campusvoice/hub/internal/feed"
	"github.com/campusvoice/hub/internal/models"
)

// FeedService defines the interface for the social feed business logic.
type FeedService interface {
	GetFeed(ctx context.Context, tag string) []models.SocialPost
}

// FeedHandler handles HTTP requests for the aggregated social feed.
type FeedHandler struct {
	service    FeedService
	defaultTag string
}

// NewFeedHandler creates a new feed handler. defaultTag is served when the
// request carries no tag parameter; empty means the parameter is required.
func NewFeedHandler(service FeedService, defaultTag string) *FeedHandler {
	return &FeedHandler{service: service, defaultTag: feed.NormalizeTag(defaultTag)}
}

// Get handles GET /v1/feed?tag=<campaign tag>. The feed degrades rather
// than fails: adapter errors upstream surface as a partial or empty list.
func (h *FeedHandler) Get(w http.ResponseWriter, r *http.Request) {
	tag := feed.NormalizeTag(r.URL.Query().Get("tag"))
	if tag == "" {
		tag = h.defaultTag
	}

	if tag == "" {
		response.RespondStatusError(w, http.StatusBadRequest, "tag query parameter is required")
		return
	}

	posts := h.service.GetFeed(r.Context(), tag)
	if posts == nil {
		posts = []models.SocialPost{}
	}

	response.RespondStatusSuccess(w, posts)
}
