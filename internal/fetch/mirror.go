package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-shiori/dom"
	"golang.org/x/net/html"
	"golang.org/x/time/rate"

	"github.com/campusvoice/hub/internal/apperrors"
	"github.com/campusvoice/hub/internal/models"
)

// Markup hooks of the mirror front-end. Scraping is inherently brittle: every
// extraction below is guarded so markup drift degrades to empty fields or
// dropped items, never a failed request.
const (
	mirrorItemClass    = "timeline-item"
	mirrorAuthorClass  = "fullname"
	mirrorHandleClass  = "username"
	mirrorContentClass = "tweet-content"
	mirrorLinkClass    = "tweet-link"
	mirrorDateClass    = "tweet-date"
	mirrorAvatarClass  = "tweet-avatar"
	mirrorStatClass    = "tweet-stat"
)

// MirrorFetcher scrapes a mirror/proxy front-end serving HTML search results.
type MirrorFetcher struct {
	baseURL   string
	client    *http.Client
	limiter   *rate.Limiter
	resultCap int
	logger    *slog.Logger
}

// Ensure MirrorFetcher implements Fetcher
var _ Fetcher = (*MirrorFetcher)(nil)

// MirrorParams configures MirrorFetcher. Client, Limiter, and Logger may be
// nil; ResultCap defaults to 15.
type MirrorParams struct {
	BaseURL   string
	Client    *http.Client
	Limiter   *rate.Limiter
	ResultCap int
	Logger    *slog.Logger
}

// NewMirrorFetcher creates an HTML-scrape adapter for the mirror site.
func NewMirrorFetcher(p MirrorParams) *MirrorFetcher {
	client := p.Client
	if client == nil {
		client = newHTTPClient()
	}

	limiter := p.Limiter
	if limiter == nil {
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

	return &MirrorFetcher{
		baseURL:   p.BaseURL,
		client:    client,
		limiter:   limiter,
		resultCap: resultCap,
		logger:    logger,
	}
}

// Platform reports the source this adapter serves.
func (f *MirrorFetcher) Platform() models.Platform {
	return models.PlatformMirror
}

// FetchRawItems issues the search GET against the mirror and extracts raw
// items from the repeating item container. Items lacking both author and text
// are dropped.
func (f *MirrorFetcher) FetchRawItems(ctx context.Context, query string) ([]RawItem, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, apperrors.NewUpstreamError("mirror", fmt.Sprintf("rate limiter: %v", err))
	}

	endpoint := fmt.Sprintf("%s/search?f=tweets&q=%s", f.baseURL, url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, apperrors.NewUpstreamError("mirror", fmt.Sprintf("build request: %v", err))
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.Warn("mirror fetch failed", "error", truncate(err.Error(), 200), "query", query)

		return nil, apperrors.NewUpstreamError("mirror", fmt.Sprintf("fetch: %v", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		f.logger.Warn("mirror returned non-200", "status", resp.StatusCode, "query", query)

		return nil, apperrors.NewUpstreamStatusError("mirror", resp.StatusCode,
			fmt.Sprintf("unexpected status %d", resp.StatusCode))
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		f.logger.Warn("mirror markup parse failed", "error", truncate(err.Error(), 200), "query", query)

		return nil, apperrors.NewUpstreamError("mirror", fmt.Sprintf("parse markup: %v", err))
	}

	return f.extractItems(doc), nil
}

// extractItems walks each item container and assembles a RawItem from its
// sub-elements. Each field extraction is independently guarded.
func (f *MirrorFetcher) extractItems(doc *html.Node) []RawItem {
	containers := dom.GetElementsByClassName(doc, mirrorItemClass)
	items := make([]RawItem, 0, len(containers))

	for _, container := range containers {
		item := RawItem{
			Author:        firstTextByClass(container, mirrorAuthorClass),
			Handle:        strings.TrimPrefix(firstTextByClass(container, mirrorHandleClass), "@"),
			Body:          firstTextByClass(container, mirrorContentClass),
			AvatarURL:     f.absoluteURL(firstImageSrcByClass(container, mirrorAvatarClass)),
			TimestampText: extractDate(container),
		}

		if item.Author == "" && item.Body == "" {
			continue
		}

		if href := firstAttrByClass(container, mirrorLinkClass, "href"); href != "" {
			href = strings.TrimSuffix(href, "#m")
			item.URL = f.absoluteURL(href)
			item.SourceID = statusIDFromPath(href)
		}

		item.Comments, item.Shares, item.Likes = extractStats(container)

		items = append(items, item)
		if len(items) >= f.resultCap {
			break
		}
	}

	return items
}

// firstTextByClass returns the trimmed text of the first element with the
// given class, or "" when absent.
func firstTextByClass(root *html.Node, class string) string {
	nodes := dom.GetElementsByClassName(root, class)
	if len(nodes) == 0 {
		return ""
	}
	return strings.TrimSpace(dom.TextContent(nodes[0]))
}

// firstAttrByClass returns the given attribute of the first element with the
// given class, or "" when absent.
func firstAttrByClass(root *html.Node, class, attr string) string {
	nodes := dom.GetElementsByClassName(root, class)
	if len(nodes) == 0 {
		return ""
	}
	return strings.TrimSpace(dom.GetAttribute(nodes[0], attr))
}

// firstImageSrcByClass returns the src of the first <img> under the first
// element with the given class.
func firstImageSrcByClass(root *html.Node, class string) string {
	nodes := dom.GetElementsByClassName(root, class)
	if len(nodes) == 0 {
		return ""
	}

	if nodes[0].Data == "img" {
		return strings.TrimSpace(dom.GetAttribute(nodes[0], "src"))
	}

	imgs := dom.GetElementsByTagName(nodes[0], "img")
	if len(imgs) == 0 {
		return ""
	}
	return strings.TrimSpace(dom.GetAttribute(imgs[0], "src"))
}

// extractDate prefers the full timestamp in the date link's title attribute
// over the abbreviated link text, and strips the mirror's "·" separator so the
// normalizer can parse the remainder.
func extractDate(container *html.Node) string {
	nodes := dom.GetElementsByClassName(container, mirrorDateClass)
	if len(nodes) == 0 {
		return ""
	}

	raw := ""
	if links := dom.GetElementsByTagName(nodes[0], "a"); len(links) > 0 {
		raw = dom.GetAttribute(links[0], "title")
		if raw == "" {
			raw = dom.TextContent(links[0])
		}
	} else {
		raw = dom.TextContent(nodes[0])
	}

	raw = strings.ReplaceAll(raw, "·", " ")

	return strings.Join(strings.Fields(raw), " ")
}

// extractStats reads the comment/share/like counters. Stat order on the
// mirror is comments, retweets, quotes, hearts; missing or non-numeric
// counters yield zero.
func extractStats(container *html.Node) (comments, shares, likes int) {
	stats := dom.GetElementsByClassName(container, mirrorStatClass)

	values := make([]int, 0, len(stats))
	for _, stat := range stats {
		values = append(values, parseCount(dom.TextContent(stat)))
	}

	if len(values) > 0 {
		comments = values[0]
	}
	if len(values) > 1 {
		shares = values[1]
	}
	if len(values) > 2 {
		likes = values[len(values)-1]
	}

	return comments, shares, likes
}

// parseCount parses a scraped counter like " 1,204 " into an int; anything
// unparsable is 0.
func parseCount(raw string) int {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if cleaned == "" {
		return 0
	}

	n, err := strconv.Atoi(cleaned)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// statusIDFromPath pulls the source-assigned identifier out of a permalink
// path like /someuser/status/1234567890.
func statusIDFromPath(path string) string {
	marker := "/status/"
	idx := strings.Index(path, marker)
	if idx < 0 {
		return strings.TrimPrefix(path, "/")
	}

	id := path[idx+len(marker):]
	if cut := strings.IndexAny(id, "/?#"); cut >= 0 {
		id = id[:cut]
	}
	return id
}

// absoluteURL resolves a scraped relative path against the mirror base URL.
func (f *MirrorFetcher) absoluteURL(href string) string {
	if href == "" || strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	if !strings.HasPrefix(href, "/") {
		href = "/" + href
	}
	return f.baseURL + href
}
