package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/campusvoice/hub/internal/apperrors"
	"github.com/campusvoice/hub/internal/models"
)

// defaultResultCap bounds how many items one search fetch may return.
const defaultResultCap = 15

// SearchAPIFetcher retrieves posts from a Reddit-style JSON search endpoint.
// The endpoint's own relevance ordering is preserved.
type SearchAPIFetcher struct {
	baseURL   string
	client    *http.Client
	limiter   *rate.Limiter
	resultCap int
	logger    *slog.Logger
}

// Ensure SearchAPIFetcher implements Fetcher
var _ Fetcher = (*SearchAPIFetcher)(nil)

// SearchAPIParams configures SearchAPIFetcher. Client, Limiter, and Logger may
// be nil; ResultCap defaults to 15.
type SearchAPIParams struct {
	BaseURL   string
	Client    *http.Client
	Limiter   *rate.Limiter
	ResultCap int
	Logger    *slog.Logger
}

// NewSearchAPIFetcher creates a search-API adapter.
func NewSearchAPIFetcher(p SearchAPIParams) *SearchAPIFetcher {
	client := p.Client
	if client == nil {
		client = newHTTPClient()
	}

	limiter := p.Limiter
	if limiter == nil {
		// The endpoint is rate-limited by courtesy only; stay polite.
		limiter = rate.NewLimiter(rate.Every(time.Second), 2)
	}

	resultCap := p.ResultCap
	if resultCap <= 0 {
		resultCap = defaultResultCap
	}

	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &SearchAPIFetcher{
		baseURL:   p.BaseURL,
		client:    client,
		limiter:   limiter,
		resultCap: resultCap,
		logger:    logger,
	}
}

// Platform reports the source this adapter serves.
func (f *SearchAPIFetcher) Platform() models.Platform {
	return models.PlatformReddit
}

// searchListing mirrors the endpoint's {data:{children:[{data:{...}}]}} payload.
type searchListing struct {
	Data struct {
		Children []struct {
			Data searchPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type searchPost struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	SelfText    string  `json:"selftext"`
	Author      string  `json:"author"`
	Permalink   string  `json:"permalink"`
	CreatedUTC  float64 `json:"created_utc"`
	Ups         int     `json:"ups"`
	NumComments int     `json:"num_comments"`
	NumShares   int     `json:"num_crossposts"`
}

// FetchRawItems issues the search GET and maps the listing to raw items,
// capped at the configured result count.
func (f *SearchAPIFetcher) FetchRawItems(ctx context.Context, query string) ([]RawItem, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, apperrors.NewUpstreamError("search-api", fmt.Sprintf("rate limiter: %v", err))
	}

	endpoint := fmt.Sprintf("%s/search.json?q=%s&limit=%d&sort=relevance",
		f.baseURL, url.QueryEscape(query), f.resultCap)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, apperrors.NewUpstreamError("search-api", fmt.Sprintf("build request: %v", err))
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.Warn("search api fetch failed", "error", truncate(err.Error(), 200), "query", query)

		return nil, apperrors.NewUpstreamError("search-api", fmt.Sprintf("fetch: %v", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		f.logger.Warn("search api returned non-200", "status", resp.StatusCode, "query", query)

		return nil, apperrors.NewUpstreamStatusError("search-api", resp.StatusCode,
			fmt.Sprintf("unexpected status %d", resp.StatusCode))
	}

	var listing searchListing
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4<<20)).Decode(&listing); err != nil {
		f.logger.Warn("search api payload decode failed", "error", truncate(err.Error(), 200), "query", query)

		return nil, apperrors.NewUpstreamError("search-api", fmt.Sprintf("decode listing: %v", err))
	}

	items := make([]RawItem, 0, len(listing.Data.Children))

	for _, child := range listing.Data.Children {
		post := child.Data
		if post.ID == "" {
			continue
		}

		item := RawItem{
			SourceID: post.ID,
			Title:    post.Title,
			Body:     post.SelfText,
			Author:   post.Author,
			Handle:   post.Author,
			URL:      f.baseURL + post.Permalink,
			Likes:    post.Ups,
			Comments: post.NumComments,
			Shares:   post.NumShares,
		}

		if post.CreatedUTC > 0 {
			created := time.Unix(int64(post.CreatedUTC), 0).UTC()
			item.CreatedAt = &created
		}

		items = append(items, item)
		if len(items) >= f.resultCap {
			break
		}
	}

	return items, nil
}

// truncate bounds error strings before they reach structured logs.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
