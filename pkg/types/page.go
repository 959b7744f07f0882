// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Page holds the scraped content of a single URL.
// Per prd002-scrape R3.2, content is visible text only, truncated to the
// configured maximum.
type Page struct {
	// URL is the page address that was fetched.
	URL string `json:"url" yaml:"url"`

	// Title is the contents of the page's <title> element, if present.
	Title string `json:"title,omitempty" yaml:"title,omitempty"`

	// Content is the extracted visible text.
	Content string `json:"content" yaml:"content"`

	// Truncated reports whether Content was cut at the configured limit.
	Truncated bool `json:"truncated" yaml:"truncated"`

	// FetchedAt is the time the page was retrieved.
	FetchedAt time.Time `json:"fetched_at" yaml:"fetched_at"`
}
