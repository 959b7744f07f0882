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

// bingSearchBase is the Bing Web Search v7 endpoint. Declared as a var so
// tests can substitute an httptest server.
var bingSearchBase = "https://api.bing.microsoft.com/v7.0/search"

// bingMaxCount is the API's cap on results per request.
const bingMaxCount = 50

// BingProvider queries the Bing Web Search v7 API (R2.2).
type BingProvider struct {
	Client *http.Client
}

// Name returns the provider identifier.
func (p *BingProvider) Name() string { return "bing" }

// Search queries the Bing API and returns articles. Authentication is the
// Ocp-Apim-Subscription-Key header rather than a query parameter.
func (p *BingProvider) Search(ctx context.Context, query Query, cfg types.SearchConfig) ([]types.Article, error) {
	if cfg.BingAPIKey == "" {
		return nil, fmt.Errorf("bing provider requires BING_API_KEY")
	}

	terms := query.Terms()
	if terms == "" {
		return nil, fmt.Errorf("empty bing query")
	}

	count := cfg.MaxResults
	if query.MaxResults > 0 {
		count = query.MaxResults
	}
	if count <= 0 {
		count = 10
	}
	if count > bingMaxCount {
		count = bingMaxCount
	}

	params := url.Values{
		"q":     {terms},
		"count": {fmt.Sprintf("%d", count)},
	}

	reqURL := bingSearchBase + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", cfg.BingAPIKey)
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, p.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("bing API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bing API returned HTTP %d", resp.StatusCode)
	}

	var br bingResponse
	if err := json.NewDecoder(resp.Body).Decode(&br); err != nil {
		return nil, fmt.Errorf("parsing bing response: %w", err)
	}

	total := len(br.WebPages.Value)
	var articles []types.Article
	for i, page := range br.WebPages.Value {
		if strings.TrimSpace(page.URL) == "" {
			continue
		}
		articles = append(articles, types.Article{
			Title:          page.Name,
			Link:           page.URL,
			Snippet:        page.Snippet,
			DisplayLink:    page.DisplayURL,
			Source:         "bing",
			Rank:           i + 1,
			RelevanceScore: positionScore(i, total),
		})
	}
	return articles, nil
}

// Bing Web Search v7 structures.
type bingResponse struct {
	WebPages bingWebPages `json:"webPages"`
}

type bingWebPages struct {
	Value []bingWebPage `json:"value"`
}

type bingWebPage struct {
	Name       string `json:"name"`
	URL        string `json:"url"`
	Snippet    string `json:"snippet"`
	DisplayURL string `json:"displayUrl"`
}
