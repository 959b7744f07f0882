// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the edu-engine service.
// Implements: prd001-search (Article, R4.1);
//
//	prd002-scrape (Page, R3.2);
//	prd003-lesson (Lesson, R2.1-R2.6).
//
// See docs/ARCHITECTURE.md § Service Interface, § Data Structures.
package types

// Article represents a web result returned by a search provider query.
// Per prd001-search R4.1, each article carries the link, display metadata,
// the provider that found it, and a relevance score.
type Article struct {
	// Title is the result title as returned by the provider.
	Title string `json:"title" yaml:"title"`

	// Link is the canonical URL of the result.
	Link string `json:"link" yaml:"link"`

	// Snippet is the provider's short excerpt of the page, when available.
	Snippet string `json:"snippet,omitempty" yaml:"snippet,omitempty"`

	// DisplayLink is the hostname shown to users (e.g. "en.wikipedia.org").
	DisplayLink string `json:"display_link,omitempty" yaml:"display_link,omitempty"`

	// Source identifies which provider found this result (e.g. "google", "bing").
	Source string `json:"source" yaml:"source"`

	// Rank is the 1-based position the provider returned this result at.
	Rank int `json:"rank" yaml:"rank"`

	// RelevanceScore is a value between 0.0 and 1.0 indicating relevance to the topic.
	RelevanceScore float64 `json:"relevance_score" yaml:"relevance_score"`
}
