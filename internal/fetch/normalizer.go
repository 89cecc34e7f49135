package fetch

import (
	"time"

	"github.com/araddon/dateparse"

	"github.com/campusvoice/hub/internal/models"
)

// Normalize maps a raw source item to the unified SocialPost shape.
// Title and body are joined with a blank-line separator; timestamps are
// coerced to UTC, and an unparsable timestamp defaults to now rather than
// failing the record.
func Normalize(item RawItem, platform models.Platform) models.SocialPost {
	return models.SocialPost{
		Platform:   platform,
		ExternalID: item.SourceID,
		Text:       composeText(item.Title, item.Body),
		CreatedAt:  coerceTimestamp(item),
		Author: models.Author{
			DisplayName: item.Author,
			Handle:      item.Handle,
			AvatarURL:   item.AvatarURL,
		},
		URL: item.URL,
		Engagement: models.Engagement{
			Likes:    clampNonNegative(item.Likes),
			Comments: clampNonNegative(item.Comments),
			Shares:   clampNonNegative(item.Shares),
		},
	}
}

func composeText(title, body string) string {
	switch {
	case title == "":
		return body
	case body == "":
		return title
	default:
		return title + "\n\n" + body
	}
}

func coerceTimestamp(item RawItem) time.Time {
	if item.CreatedAt != nil {
		return item.CreatedAt.UTC()
	}

	if item.TimestampText != "" {
		if parsed, err := dateparse.ParseAny(item.TimestampText); err == nil {
			return parsed.UTC()
		}
	}

	return time.Now().UTC()
}

func clampNonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
