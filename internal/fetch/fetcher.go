// Package fetch retrieves raw post items from external content sources.
// Each source lives behind its own adapter so the brittle parts (HTML
// scraping in particular) stay swappable and mockable.
package fetch

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/campusvoice/hub/internal/models"
)

// Connect and total timeouts for all outbound fetches. A hung upstream must
// not block the pipeline.
const (
	connectTimeout = 5 * time.Second
	totalTimeout   = 10 * time.Second

	userAgent = "CampusVoiceHub/1.0 (+https://github.com/campusvoice/hub)"
)

// RawItem is the common shape an adapter produces before normalization.
// Fields are extracted defensively; a missing field is an empty string.
type RawItem struct {
	SourceID  string
	Title     string
	Body      string
	Author    string
	Handle    string
	AvatarURL string
	URL       string

	// CreatedAt is set by sources that expose a machine timestamp;
	// TimestampText carries a scraped date string for the normalizer to parse.
	CreatedAt     *time.Time
	TimestampText string

	Likes    int
	Comments int
	Shares   int
}

// Fetcher retrieves raw items for a search term from one external source.
// Implementations return an error for upstream failures; the aggregator
// treats that as zero items for the cycle.
type Fetcher interface {
	Platform() models.Platform
	FetchRawItems(ctx context.Context, query string) ([]RawItem, error)
}

// newHTTPClient builds the client shared by adapters: bounded connect time
// plus a hard total deadline.
func newHTTPClient() *http.Client {
	return &http.Client{
		Timeout: totalTimeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout: connectTimeout,
			}).DialContext,
		},
	}
}
