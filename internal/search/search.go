// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search queries web search APIs and returns unified, deduplicated results.
// Implements: prd001-search (R1-R5);
//
//	docs/ARCHITECTURE § Search.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/pdiddy/edu-engine/pkg/types"
)

// Provider searches a single web search API. Each provider (Google Custom
// Search, Bing Web Search) implements this interface per the Strategy
// pattern (R2.4).
type Provider interface {
	Name() string
	Search(ctx context.Context, query Query, cfg types.SearchConfig) ([]types.Article, error)
}

// Query holds the search parameters (R1.1, R1.2).
type Query struct {
	// Topic is the free-text subject to search for.
	Topic string

	// Site restricts results to a single domain, when set.
	Site string

	// MaxResults overrides the configured result cap, when positive.
	MaxResults int
}

// IsEmpty reports whether the query contains no searchable terms (R1.3).
func (q Query) IsEmpty() bool {
	return strings.TrimSpace(q.Topic) == ""
}

// Terms combines the query fields into a provider search string.
func (q Query) Terms() string {
	topic := strings.TrimSpace(q.Topic)
	if q.Site != "" {
		return topic + " site:" + q.Site
	}
	return topic
}

// Output holds the aggregated articles and per-provider failure reports.
type Output struct {
	Articles       []types.Article
	DupsRemoved    int
	ProviderErrors []string
}

// Search fans the query out to all providers concurrently, deduplicates
// results, ranks them, and returns the top N (R1-R4). A single provider
// failing is tolerated and reported in ProviderErrors; Search only returns
// an error when every provider fails and no articles were collected (R2.5).
func Search(ctx context.Context, query Query, providers []Provider, cfg types.SearchConfig, w io.Writer) (Output, error) {
	if query.IsEmpty() {
		return Output{}, fmt.Errorf("query is empty: provide a topic to search for")
	}
	if len(providers) == 0 {
		return Output{}, fmt.Errorf("no search providers configured")
	}

	type providerResult struct {
		articles []types.Article
		err      error
		name     string
	}

	ch := make(chan providerResult, len(providers))
	var wg sync.WaitGroup

	for i, p := range providers {
		if i > 0 && cfg.InterProviderDelay > 0 {
			time.Sleep(cfg.InterProviderDelay)
		}
		wg.Add(1)
		go func(p Provider) {
			defer wg.Done()
			articles, err := p.Search(ctx, query, cfg)
			ch <- providerResult{articles: articles, err: err, name: p.Name()}
		}(p)
	}

	go func() {
		wg.Wait()
		close(ch)
	}()

	var all []types.Article
	var providerErrors []string
	for pr := range ch {
		if pr.err != nil {
			msg := fmt.Sprintf("%s: %v", pr.name, pr.err)
			providerErrors = append(providerErrors, msg)
			fmt.Fprintf(w, "warning: provider %s failed: %v\n", pr.name, pr.err)
			continue
		}
		all = append(all, pr.articles...)
	}

	if len(all) == 0 && len(providerErrors) == len(providers) {
		return Output{ProviderErrors: providerErrors},
			fmt.Errorf("all search providers failed: %s", strings.Join(providerErrors, "; "))
	}

	deduped, removed := deduplicate(all)

	sort.SliceStable(deduped, func(i, j int) bool {
		return deduped[i].RelevanceScore > deduped[j].RelevanceScore
	})

	maxResults := cfg.MaxResults
	if query.MaxResults > 0 {
		maxResults = query.MaxResults
	}
	if maxResults > 0 && len(deduped) > maxResults {
		deduped = deduped[:maxResults]
	}

	return Output{
		Articles:       deduped,
		DupsRemoved:    removed,
		ProviderErrors: providerErrors,
	}, nil
}

// deduplicate merges articles that share a normalized URL or normalized
// title (R3.1, R3.2).
func deduplicate(articles []types.Article) ([]types.Article, int) {
	seen := make(map[string]int) // dedup key → index in deduped
	var deduped []types.Article
	removed := 0

	for _, a := range articles {
		key := dedupKey(a)
		if idx, ok := seen[key]; key != "url:" && ok {
			mergeInto(&deduped[idx], a)
			removed++
			continue
		}

		// Also check by normalized title.
		titleKey := "title:" + normalizeTitle(a.Title)
		if titleKey != "title:" {
			if idx, ok := seen[titleKey]; ok {
				mergeInto(&deduped[idx], a)
				removed++
				continue
			}
		}

		idx := len(deduped)
		deduped = append(deduped, a)
		if key != "url:" {
			seen[key] = idx
		}
		if titleKey != "title:" {
			seen[titleKey] = idx
		}
	}
	return deduped, removed
}

// dedupKey returns a key for URL-based dedup.
func dedupKey(a types.Article) string {
	return "url:" + normalizeURL(a.Link)
}

// mergeInto fills empty fields of dst from src and keeps the higher score (R3.2).
func mergeInto(dst *types.Article, src types.Article) {
	if dst.Title == "" && src.Title != "" {
		dst.Title = src.Title
	}
	if dst.Snippet == "" && src.Snippet != "" {
		dst.Snippet = src.Snippet
	}
	if dst.DisplayLink == "" && src.DisplayLink != "" {
		dst.DisplayLink = src.DisplayLink
	}
	if src.RelevanceScore > dst.RelevanceScore {
		dst.RelevanceScore = src.RelevanceScore
		dst.Rank = src.Rank
	}
	if dst.Source != src.Source && !strings.Contains(dst.Source, src.Source) {
		dst.Source = dst.Source + "," + src.Source
	}
}

// normalizeURL lowercases the scheme and host, drops the fragment, and trims
// a trailing slash so equivalent links compare equal (R3.1).
func normalizeURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(raw)), "/")
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	s := u.String()
	return strings.TrimSuffix(s, "/")
}

// normalizeTitle returns a lowercased, punctuation-stripped version of the title (R3.1).
func normalizeTitle(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// positionScore converts a provider rank into a relevance score. Providers
// return results ordered by relevance, so position is the only signal (R3.3).
func positionScore(index, total int) float64 {
	if total <= 1 {
		return 1.0
	}
	return 1.0 - float64(index)/float64(total-1)*0.9
}

// FormatTable writes articles as a human-readable table to w (R4.2).
func FormatTable(out Output, w io.Writer) {
	if len(out.Articles) == 0 {
		fmt.Fprintln(w, "No results found.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-56s  %-32s  %-6s  %s\n",
		"Rank", "Title", "Link", "Score", "Source")
	fmt.Fprintln(w, strings.Repeat("-", 112))

	for i, a := range out.Articles {
		title := a.Title
		if len(title) > 56 {
			title = title[:53] + "..."
		}
		link := a.Link
		if len(link) > 32 {
			link = link[:29] + "..."
		}
		fmt.Fprintf(w, "%-4d  %-56s  %-32s  %-6.2f  %s\n",
			i+1, title, link, a.RelevanceScore, a.Source)
	}

	fmt.Fprintf(w, "\n%d results", len(out.Articles))
	if out.DupsRemoved > 0 {
		fmt.Fprintf(w, " (%d duplicates removed)", out.DupsRemoved)
	}
	fmt.Fprintln(w)
}

// FormatJSON writes articles as indented JSON to w (R4.3).
func FormatJSON(out Output, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out.Articles)
}
