// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pdiddy/edu-engine/pkg/types"
)

const bingFixture = `{
	"webPages": {
		"value": [
			{
				"name": "Photosynthesis - Wikipedia",
				"url": "https://en.wikipedia.org/wiki/Photosynthesis",
				"snippet": "Photosynthesis is a system of biological processes...",
				"displayUrl": "en.wikipedia.org/wiki/Photosynthesis"
			},
			{
				"name": "Photosynthesis | Definition & Process",
				"url": "https://www.britannica.com/science/photosynthesis",
				"snippet": "Photosynthesis, the process by which green plants...",
				"displayUrl": "www.britannica.com/science/photosynthesis"
			}
		]
	}
}`

func bingTestConfig() types.SearchConfig {
	return types.SearchConfig{
		BingAPIKey: "test-key",
		MaxResults: 10,
		HTTPConfig: types.HTTPConfig{UserAgent: "edu-engine-test/0.1"},
	}
}

func TestBingSearch(t *testing.T) {
	var gotHeader, gotQ, gotCount string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get("Ocp-Apim-Subscription-Key")
		gotQ = r.URL.Query().Get("q")
		gotCount = r.URL.Query().Get("count")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(bingFixture))
	}))
	defer server.Close()

	oldBase := bingSearchBase
	bingSearchBase = server.URL
	defer func() { bingSearchBase = oldBase }()

	p := &BingProvider{Client: server.Client()}
	articles, err := p.Search(context.Background(),
		Query{Topic: "photosynthesis", Site: "wikipedia.org"}, bingTestConfig())
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if gotHeader != "test-key" {
		t.Errorf("got subscription key header %q", gotHeader)
	}
	if gotQ != "photosynthesis site:wikipedia.org" {
		t.Errorf("got query %q", gotQ)
	}
	if gotCount != "10" {
		t.Errorf("got count %q, want 10", gotCount)
	}

	if len(articles) != 2 {
		t.Fatalf("got %d articles, want 2", len(articles))
	}
	first := articles[0]
	if first.Title != "Photosynthesis - Wikipedia" || first.Source != "bing" || first.Rank != 1 {
		t.Errorf("got first article %+v", first)
	}
	if first.DisplayLink != "en.wikipedia.org/wiki/Photosynthesis" {
		t.Errorf("got display link %q", first.DisplayLink)
	}
}

func TestBingSearchRequiresKey(t *testing.T) {
	p := &BingProvider{}
	cfg := bingTestConfig()
	cfg.BingAPIKey = ""

	if _, err := p.Search(context.Background(), Query{Topic: "x"}, cfg); err == nil {
		t.Error("expected error without API key")
	}
}

func TestBingSearchCapsCount(t *testing.T) {
	var gotCount string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCount = r.URL.Query().Get("count")
		w.Write([]byte(`{"webPages":{"value":[]}}`))
	}))
	defer server.Close()

	oldBase := bingSearchBase
	bingSearchBase = server.URL
	defer func() { bingSearchBase = oldBase }()

	p := &BingProvider{Client: server.Client()}
	cfg := bingTestConfig()
	cfg.MaxResults = 200

	if _, err := p.Search(context.Background(), Query{Topic: "x"}, cfg); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if gotCount != "50" {
		t.Errorf("got count %q, want capped at 50", gotCount)
	}
}

func TestBingSearchErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer server.Close()

	oldBase := bingSearchBase
	bingSearchBase = server.URL
	defer func() { bingSearchBase = oldBase }()

	p := &BingProvider{Client: server.Client()}
	if _, err := p.Search(context.Background(), Query{Topic: "x"}, bingTestConfig()); err == nil {
		t.Error("expected error for HTTP 401")
	}
}
