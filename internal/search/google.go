// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/pdiddy/edu-engine/internal/httputil"
	"github.com/pdiddy/edu-engine/pkg/types"
)

// googleSearchBase is the Custom Search JSON API endpoint. Declared as a
// var so tests can substitute an httptest server.
var googleSearchBase = "https://www.googleapis.com/customsearch/v1"

// googleMaxPerPage is the API's hard cap on results per request.
const googleMaxPerPage = 10

// GoogleProvider queries the Google Custom Search JSON API (R2.1).
type GoogleProvider struct {
	Client *http.Client
}

// Name returns the provider identifier.
func (p *GoogleProvider) Name() string { return "google" }

// Search queries the Custom Search API and returns articles.
func (p *GoogleProvider) Search(ctx context.Context, query Query, cfg types.SearchConfig) ([]types.Article, error) {
	if cfg.GoogleAPIKey == "" || cfg.GoogleCX == "" {
		return nil, fmt.Errorf("google provider requires GOOGLE_API_KEY and GOOGLE_CX")
	}

	terms := query.Terms()
	if terms == "" {
		return nil, fmt.Errorf("empty google query")
	}

	num := cfg.MaxResults
	if query.MaxResults > 0 {
		num = query.MaxResults
	}
	if num <= 0 || num > googleMaxPerPage {
		num = googleMaxPerPage
	}

	params := url.Values{
		"key": {cfg.GoogleAPIKey},
		"cx":  {cfg.GoogleCX},
		"q":   {terms},
		"num": {fmt.Sprintf("%d", num)},
	}

	reqURL := googleSearchBase + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, p.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("google API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google API returned HTTP %d", resp.StatusCode)
	}

	var gr googleResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return nil, fmt.Errorf("parsing google response: %w", err)
	}

	total := len(gr.Items)
	var articles []types.Article
	for i, item := range gr.Items {
		if strings.TrimSpace(item.Link) == "" {
			continue
		}
		articles = append(articles, types.Article{
			Title:          item.Title,
			Link:           item.Link,
			Snippet:        item.Snippet,
			DisplayLink:    item.DisplayLink,
			Source:         "google",
			Rank:           i + 1,
			RelevanceScore: positionScore(i, total),
		})
	}
	return articles, nil
}

// Custom Search JSON API structures.
type googleResponse struct {
	Items []googleItem `json:"items"`
}

type googleItem struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	Snippet     string `json:"snippet"`
	DisplayLink string `json:"displayLink"`
}
