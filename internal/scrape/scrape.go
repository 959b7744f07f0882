// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package scrape fetches web pages and extracts their visible text.
// Implements: prd002-scrape (R1-R5);
//
//	docs/ARCHITECTURE § Scraping.
package scrape

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pdiddy/edu-engine/internal/httputil"
	"github.com/pdiddy/edu-engine/pkg/types"
)

const defaultMaxBodyBytes = 2 << 20 // 2 MiB

// ErrBadURL marks URLs rejected before any network request, so callers can
// tell client mistakes apart from fetch failures.
var ErrBadURL = errors.New("invalid scrape URL")

// userAgents is the pool of browser User-Agent strings rotated across
// fetches (R1.2). Some origins reject non-browser agents.
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Firefox/89.0",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Edge/91.0.864.64",
}

// pickUserAgent returns the agent for a fetch. Package var so tests can pin it.
var pickUserAgent = func() string {
	return userAgents[rand.Intn(len(userAgents))]
}

// Scrape fetches rawURL and returns its visible text as a Page. Content is
// truncated to cfg.MaxChars (default 1000) and the Truncated flag records
// whether anything was cut (R3.2, R3.3).
func Scrape(ctx context.Context, client *http.Client, rawURL string, cfg types.ScrapeConfig) (*types.Page, error) {
	target, err := validateURL(rawURL)
	if err != nil {
		return nil, err
	}

	body, err := fetch(ctx, client, target, cfg)
	if err != nil {
		return nil, err
	}

	title, text := ExtractText(body)

	maxChars := cfg.MaxChars
	if maxChars <= 0 {
		maxChars = 1000
	}

	truncated := false
	if runes := []rune(text); len(runes) > maxChars {
		text = string(runes[:maxChars])
		truncated = true
	}

	return &types.Page{
		URL:       target,
		Title:     title,
		Content:   text,
		Truncated: truncated,
		FetchedAt: time.Now().UTC(),
	}, nil
}

// validateURL accepts only absolute http/https URLs (R1.1).
func validateURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w %q: %v", ErrBadURL, raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w %q: only http and https schemes are allowed", ErrBadURL, raw)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w %q: missing host", ErrBadURL, raw)
	}
	return u.String(), nil
}

// fetch downloads the page body with a rotated User-Agent, retrying on
// HTTP 429 and capping the bytes read (R1.2, R1.3, R5.2).
func fetch(ctx context.Context, client *http.Client, target string, cfg types.ScrapeConfig) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", pickUserAgent())

	resp, err := httputil.DoWithRetry(ctx, client, req, 0)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("fetching %s: HTTP %d", target, resp.StatusCode)
	}

	maxBytes := cfg.MaxBodyBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxBodyBytes
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes))
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", target, err)
	}
	return string(body), nil
}
