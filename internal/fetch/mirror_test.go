package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusvoice/hub/internal/apperrors"
	"github.com/campusvoice/hub/internal/models"
)

func mirrorItem(id, fullname, username, content, date string) string {
	contentDiv := ""
	if content != "" {
		contentDiv = fmt.Sprintf(`<div class="tweet-content">%s</div>`, content)
	}

	return fmt.Sprintf(`
	<div class="timeline-item">
		<img class="tweet-avatar" src="/pic/%s.jpg"/>
		<a class="fullname" href="/%s">%s</a>
		<a class="username" href="/%s">@%s</a>
		%s
		<a class="tweet-link" href="/%s/status/%s#m"></a>
		<span class="tweet-date"><a href="/%s/status/%s" title="%s">Jan 5</a></span>
		<span class="tweet-stat">12</span>
		<span class="tweet-stat">3</span>
		<span class="tweet-stat">0</span>
		<span class="tweet-stat">88</span>
	</div>`, username, username, fullname, username, username, contentDiv, username, id, username, id, date)
}

func TestMirrorFetcher_FetchRawItems(t *testing.T) {
	t.Run("extracts items from repeating container", func(t *testing.T) {
		page := "<html><body>" +
			mirrorItem("1001", "Campus News", "campusnews", "Library hours extended during finals", "Jan 5, 2024 · 3:04 PM UTC") +
			mirrorItem("1002", "Student Union", "union", "Town hall on dining plans tonight", "Jan 4, 2024 · 9:00 AM UTC") +
			"</body></html>"

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/search", r.URL.Path)
			assert.Equal(t, "campus", r.URL.Query().Get("q"))
			_, _ = w.Write([]byte(page))
		}))
		defer srv.Close()

		fetcher := NewMirrorFetcher(MirrorParams{BaseURL: srv.URL})

		items, err := fetcher.FetchRawItems(context.Background(), "campus")
		require.NoError(t, err)
		require.Len(t, items, 2)

		first := items[0]
		assert.Equal(t, "1001", first.SourceID)
		assert.Equal(t, "Campus News", first.Author)
		assert.Equal(t, "campusnews", first.Handle)
		assert.Equal(t, "Library hours extended during finals", first.Body)
		assert.Equal(t, srv.URL+"/campusnews/status/1001", first.URL)
		assert.Equal(t, srv.URL+"/pic/campusnews.jpg", first.AvatarURL)
		assert.Equal(t, "Jan 5, 2024 3:04 PM UTC", first.TimestampText)
		assert.Equal(t, 12, first.Comments)
		assert.Equal(t, 3, first.Shares)
		assert.Equal(t, 88, first.Likes)
	})

	t.Run("item missing content sub-element is kept, missing both author and text is dropped", func(t *testing.T) {
		// Five items: one malformed (no content) but with an author, one empty shell.
		page := "<html><body>" +
			mirrorItem("1", "A", "a", "first post", "Jan 5, 2024 1:00 PM UTC") +
			mirrorItem("2", "B", "b", "second post", "Jan 5, 2024 1:01 PM UTC") +
			mirrorItem("3", "C", "c", "", "Jan 5, 2024 1:02 PM UTC") +
			`<div class="timeline-item"><span class="tweet-stat">4</span></div>` +
			mirrorItem("5", "E", "e", "fifth post", "Jan 5, 2024 1:04 PM UTC") +
			"</body></html>"

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(page))
		}))
		defer srv.Close()

		fetcher := NewMirrorFetcher(MirrorParams{BaseURL: srv.URL})

		items, err := fetcher.FetchRawItems(context.Background(), "campus")
		require.NoError(t, err)
		require.Len(t, items, 4)

		// Item 3 survives with an empty body; the shell without author and text is gone.
		assert.Equal(t, "3", items[2].SourceID)
		assert.Equal(t, "", items[2].Body)
		assert.Equal(t, "5", items[3].SourceID)
	})

	t.Run("non-200 status returns UpstreamError", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		fetcher := NewMirrorFetcher(MirrorParams{BaseURL: srv.URL})

		items, err := fetcher.FetchRawItems(context.Background(), "campus")
		assert.Nil(t, items)
		assert.ErrorIs(t, err, apperrors.ErrUpstream)
	})

	t.Run("page without item containers yields empty result", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("<html><body><p>No results</p></body></html>"))
		}))
		defer srv.Close()

		fetcher := NewMirrorFetcher(MirrorParams{BaseURL: srv.URL})

		items, err := fetcher.FetchRawItems(context.Background(), "campus")
		require.NoError(t, err)
		assert.Empty(t, items)
	})

	t.Run("platform is mirror", func(t *testing.T) {
		fetcher := NewMirrorFetcher(MirrorParams{BaseURL: "http://example.test"})
		assert.Equal(t, models.PlatformMirror, fetcher.Platform())
	})
}

func TestStatusIDFromPath(t *testing.T) {
	assert.Equal(t, "123", statusIDFromPath("/user/status/123"))
	assert.Equal(t, "123", statusIDFromPath("/user/status/123?ref=x"))
	assert.Equal(t, "plainpath", statusIDFromPath("/plainpath"))
}

func TestParseCount(t *testing.T) {
	assert.Equal(t, 1204, parseCount(" 1,204 "))
	assert.Equal(t, 0, parseCount(""))
	assert.Equal(t, 0, parseCount("n/a"))
}
