package domain

import (
	"regexp"
	"time"
)

// ShortCodePattern is the format every short code must satisfy, custom or generated.
var ShortCodePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,20}$`)

// Link represents a shortened URL
type Link struct {
	ID            int64      `json:"id"`
	OriginalURL   string     `json:"original_url"`
	ShortCode     string     `json:"short_code"`
	Clicks        int64      `json:"clicks"`
	CreatedAt     time.Time  `json:"created_at"`
	LastClickedAt *time.Time `json:"last_clicked_at"`
}
