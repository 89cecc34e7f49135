// Package models defines the domain types shared across the service.
package models

import "time"

// Platform identifies the external source a post came from.
type Platform string

const (
	// PlatformReddit is the JSON search API source.
	PlatformReddit Platform = "reddit"
	// PlatformMirror is the HTML-scraped mirror source.
	PlatformMirror Platform = "mirror"
)

// Author is the post author as exposed by the source.
type Author struct {
	DisplayName string `json:"display_name"`
	Handle      string `json:"handle"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

// Engagement holds non-negative engagement counters for a post.
type Engagement struct {
	Likes    int `json:"likes"`
	Comments int `json:"comments"`
	Shares   int `json:"shares"`
}

// SocialPost is the unified post record produced by the normalizer.
// Identity is (Platform, ExternalID); immutable after creation except when a
// cache refresh replaces the whole payload.
type SocialPost struct {
	Platform   Platform   `json:"platform"`
	ExternalID string     `json:"external_id"`
	Text       string     `json:"text"`
	CreatedAt  time.Time  `json:"created_at"`
	Author     Author     `json:"author"`
	URL        string     `json:"url"`
	Engagement Engagement `json:"engagement"`
}
