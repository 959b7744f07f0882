// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pdiddy/edu-engine/internal/cache"
	"github.com/pdiddy/edu-engine/internal/search"
	"github.com/pdiddy/edu-engine/internal/store"
	"github.com/pdiddy/edu-engine/pkg/types"
)

// mockProvider returns canned articles or an error and records calls.
type mockProvider struct {
	name     string
	articles []types.Article
	err      error
	calls    int
}

func (m *mockProvider) Name() string { return m.name }

func (m *mockProvider) Search(ctx context.Context, query search.Query, cfg types.SearchConfig) ([]types.Article, error) {
	m.calls++
	return m.articles, m.err
}

// mockBackend returns a canned model completion.
type mockBackend struct {
	response string
	err      error
	calls    int
}

func (m *mockBackend) Complete(ctx context.Context, prompt string) (string, error) {
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

const modelFixture = `{
	"title": "Understanding Photosynthesis",
	"summary": "How plants convert light into chemical energy.",
	"difficulty": "beginner",
	"sections": [
		{"heading": "Overview", "body": "Plants capture light with chlorophyll."}
	],
	"quiz": [
		{"prompt": "What pigment captures light?", "choices": ["Chlorophyll", "Keratin"], "answer": 0}
	]
}`

const pageFixture = `<html><head><title>Photosynthesis</title></head>
<body><p>Plants convert light energy into chemical energy.</p></body></html>`

type serverFixture struct {
	server   *Server
	google   *mockProvider
	bing     *mockProvider
	backend  *mockBackend
	store    *store.Store
	pageHost *httptest.Server
}

func newFixture(t *testing.T, caches *cache.Caches) *serverFixture {
	t.Helper()

	pageHost := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(pageFixture))
	}))
	t.Cleanup(pageHost.Close)

	google := &mockProvider{name: "google", articles: []types.Article{
		{Title: "Photosynthesis - Wikipedia", Link: pageHost.URL + "/wiki", Source: "google", Rank: 1, RelevanceScore: 1.0},
	}}
	bing := &mockProvider{name: "bing", articles: []types.Article{
		{Title: "Photosynthesis basics", Link: pageHost.URL + "/basics", Source: "bing", Rank: 1, RelevanceScore: 0.8},
	}}
	backend := &mockBackend{response: modelFixture}

	st, err := store.NewStore(types.StoreConfig{DataDir: t.TempDir()})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	cfg := types.ServiceConfig{
		Search: types.SearchConfig{MaxResults: 10},
		Scrape: types.ScrapeConfig{MaxChars: 1000},
		Lesson: types.LessonConfig{MaxSources: 2},
	}

	return &serverFixture{
		server:   NewServer(cfg, []search.Provider{google, bing}, backend, st, caches, io.Discard),
		google:   google,
		bing:     bing,
		backend:  backend,
		store:    st,
		pageHost: pageHost,
	}
}

func (f *serverFixture) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	rec := httptest.NewRecorder()
	f.server.Router().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorEnvelope {
	t.Helper()
	var env errorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("parsing error envelope: %v (body %q)", err, rec.Body.String())
	}
	return env
}

func TestHealthz(t *testing.T) {
	f := newFixture(t, nil)
	rec := f.do(t, http.MethodGet, "/v1/healthz", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d", rec.Code)
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Error("response missing request ID")
	}
	if !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("got body %q", rec.Body.String())
	}
}

func TestRequestIDPreserved(t *testing.T) {
	f := newFixture(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/v1/healthz", nil)
	req.Header.Set("X-Request-Id", "client-supplied")
	rec := httptest.NewRecorder()
	f.server.Router().ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-Id"); got != "client-supplied" {
		t.Errorf("got request ID %q", got)
	}
}

func TestSearchEndpoint(t *testing.T) {
	f := newFixture(t, nil)
	rec := f.do(t, http.MethodGet, "/v1/search?topic=photosynthesis", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d: %s", rec.Code, rec.Body.String())
	}

	var resp searchResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("parsing response: %v", err)
	}
	if resp.Topic != "photosynthesis" || resp.Engine != "all" {
		t.Errorf("got topic=%q engine=%q", resp.Topic, resp.Engine)
	}
	if len(resp.Articles) != 2 {
		t.Errorf("got %d articles, want 2", len(resp.Articles))
	}
	if f.google.calls != 1 || f.bing.calls != 1 {
		t.Errorf("got google=%d bing=%d calls", f.google.calls, f.bing.calls)
	}
}

func TestSearchRequiresTopic(t *testing.T) {
	f := newFixture(t, nil)
	rec := f.do(t, http.MethodGet, "/v1/search", "")

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("got status %d", rec.Code)
	}
	if env := decodeError(t, rec); env.Error.Code != "bad_request" {
		t.Errorf("got error code %q", env.Error.Code)
	}
}

func TestSearchEngineSelection(t *testing.T) {
	f := newFixture(t, nil)
	rec := f.do(t, http.MethodGet, "/v1/search?topic=x&engine=google", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d: %s", rec.Code, rec.Body.String())
	}
	if f.google.calls != 1 || f.bing.calls != 0 {
		t.Errorf("got google=%d bing=%d calls, want only google", f.google.calls, f.bing.calls)
	}

	rec = f.do(t, http.MethodGet, "/v1/search?topic=x&engine=duckduckgo", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("got status %d for unknown engine", rec.Code)
	}
}

func TestSearchBadMaxResults(t *testing.T) {
	f := newFixture(t, nil)
	rec := f.do(t, http.MethodGet, "/v1/search?topic=x&max_results=zero", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("got status %d", rec.Code)
	}
}

func TestSearchAllProvidersFail(t *testing.T) {
	f := newFixture(t, nil)
	f.google.err = fmt.Errorf("quota exceeded")
	f.google.articles = nil
	f.bing.err = fmt.Errorf("invalid key")
	f.bing.articles = nil

	rec := f.do(t, http.MethodGet, "/v1/search?topic=x", "")
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("got status %d", rec.Code)
	}
	if env := decodeError(t, rec); env.Error.Code != "upstream_error" {
		t.Errorf("got error code %q", env.Error.Code)
	}
}

func TestSearchCaching(t *testing.T) {
	caches, err := cache.New(types.CacheConfig{
		Driver:  types.CacheSQLite,
		DataDir: t.TempDir(),
	})
	if err != nil {
		t.Fatalf("cache.New: %v", err)
	}
	defer caches.Close()

	f := newFixture(t, caches)

	rec := f.do(t, http.MethodGet, "/v1/search?topic=photosynthesis", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d", rec.Code)
	}
	if rec.Header().Get("X-Cache") != "" {
		t.Error("first request should not be a cache hit")
	}

	rec = f.do(t, http.MethodGet, "/v1/search?topic=photosynthesis", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d on repeat", rec.Code)
	}
	if rec.Header().Get("X-Cache") != "hit" {
		t.Error("repeat request should be a cache hit")
	}
	if f.google.calls != 1 {
		t.Errorf("provider called %d times, want 1", f.google.calls)
	}
}

func TestSearchDegradedNotCached(t *testing.T) {
	caches, err := cache.New(types.CacheConfig{
		Driver:  types.CacheSQLite,
		DataDir: t.TempDir(),
	})
	if err != nil {
		t.Fatalf("cache.New: %v", err)
	}
	defer caches.Close()

	f := newFixture(t, caches)
	f.bing.err = fmt.Errorf("quota exceeded")
	f.bing.articles = nil

	rec := f.do(t, http.MethodGet, "/v1/search?topic=photosynthesis", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d: %s", rec.Code, rec.Body.String())
	}
	var resp searchResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("parsing response: %v", err)
	}
	if len(resp.ProviderErrors) == 0 {
		t.Fatal("expected provider errors in degraded response")
	}

	// A response missing a provider's results must not be served from
	// cache; the next request retries the full provider set.
	rec = f.do(t, http.MethodGet, "/v1/search?topic=photosynthesis", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d on repeat", rec.Code)
	}
	if rec.Header().Get("X-Cache") == "hit" {
		t.Error("degraded response was served from cache")
	}
	if f.google.calls != 2 {
		t.Errorf("provider called %d times, want 2", f.google.calls)
	}
}

func TestScrapeEndpoint(t *testing.T) {
	f := newFixture(t, nil)
	rec := f.do(t, http.MethodGet, "/v1/scrape?url="+f.pageHost.URL, "")

	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d: %s", rec.Code, rec.Body.String())
	}

	var page types.Page
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatalf("parsing response: %v", err)
	}
	if page.Title != "Photosynthesis" {
		t.Errorf("got title %q", page.Title)
	}
	if !strings.Contains(page.Content, "chemical energy") {
		t.Errorf("got content %q", page.Content)
	}
}

func TestScrapeClientUsesScrapeTimeout(t *testing.T) {
	cfg := types.ServiceConfig{
		Search: types.SearchConfig{HTTPConfig: types.HTTPConfig{Timeout: 5 * time.Second}},
		Scrape: types.ScrapeConfig{HTTPConfig: types.HTTPConfig{Timeout: 45 * time.Second}},
	}
	s := NewServer(cfg, nil, nil, nil, nil, io.Discard)

	if got := s.scrapeClient.Timeout; got != cfg.Scrape.Timeout {
		t.Errorf("scrape client timeout = %v, want %v", got, cfg.Scrape.Timeout)
	}
}

func TestScrapeRequiresURL(t *testing.T) {
	f := newFixture(t, nil)
	rec := f.do(t, http.MethodGet, "/v1/scrape", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("got status %d", rec.Code)
	}
}

func TestScrapeRejectsBadScheme(t *testing.T) {
	f := newFixture(t, nil)
	rec := f.do(t, http.MethodGet, "/v1/scrape?url=ftp%3A%2F%2Fexample.com", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("got status %d", rec.Code)
	}
	if env := decodeError(t, rec); env.Error.Code != "bad_request" {
		t.Errorf("got error code %q", env.Error.Code)
	}
}

func TestScrapeUpstreamFailure(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer failing.Close()

	f := newFixture(t, nil)
	rec := f.do(t, http.MethodGet, "/v1/scrape?url="+failing.URL, "")
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("got status %d", rec.Code)
	}
	if env := decodeError(t, rec); env.Error.Code != "upstream_error" {
		t.Errorf("got error code %q", env.Error.Code)
	}
}

func TestCreateLesson(t *testing.T) {
	f := newFixture(t, nil)
	rec := f.do(t, http.MethodPost, "/v1/lessons",
		`{"topic": "photosynthesis", "difficulty": "beginner"}`)

	if rec.Code != http.StatusCreated {
		t.Fatalf("got status %d: %s", rec.Code, rec.Body.String())
	}

	var l types.Lesson
	if err := json.Unmarshal(rec.Body.Bytes(), &l); err != nil {
		t.Fatalf("parsing response: %v", err)
	}
	if l.ID == "" || l.Topic != "photosynthesis" {
		t.Errorf("got lesson id=%q topic=%q", l.ID, l.Topic)
	}
	if l.Title != "Understanding Photosynthesis" {
		t.Errorf("got title %q", l.Title)
	}
	if f.backend.calls != 1 {
		t.Errorf("backend called %d times, want 1", f.backend.calls)
	}

	// Lesson is persisted.
	stored, err := f.store.Get(context.Background(), l.ID)
	if err != nil {
		t.Fatalf("stored lesson: %v", err)
	}
	if stored.Title != l.Title {
		t.Errorf("stored title %q, response title %q", stored.Title, l.Title)
	}
}

func TestCreateLessonValidation(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(t, http.MethodPost, "/v1/lessons", `{"topic": ""}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty topic: got status %d", rec.Code)
	}

	rec = f.do(t, http.MethodPost, "/v1/lessons", `{"topic": "x", "difficulty": "expert"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad difficulty: got status %d", rec.Code)
	}

	rec = f.do(t, http.MethodPost, "/v1/lessons", `{not json`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed body: got status %d", rec.Code)
	}
}

func TestCreateLessonNoSources(t *testing.T) {
	f := newFixture(t, nil)
	f.google.articles = nil
	f.bing.articles = nil

	rec := f.do(t, http.MethodPost, "/v1/lessons", `{"topic": "obscurity"}`)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("got status %d: %s", rec.Code, rec.Body.String())
	}
}

func TestCreateLessonBackendFailure(t *testing.T) {
	f := newFixture(t, nil)
	f.backend.err = fmt.Errorf("model unavailable")

	rec := f.do(t, http.MethodPost, "/v1/lessons", `{"topic": "photosynthesis"}`)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("got status %d", rec.Code)
	}
}

func TestGetLesson(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(t, http.MethodPost, "/v1/lessons", `{"topic": "photosynthesis"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: got status %d", rec.Code)
	}
	var created types.Lesson
	json.Unmarshal(rec.Body.Bytes(), &created)

	rec = f.do(t, http.MethodGet, "/v1/lessons/"+created.ID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get: got status %d", rec.Code)
	}

	rec = f.do(t, http.MethodGet, "/v1/lessons/nonexistent", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing lesson: got status %d", rec.Code)
	}
	if env := decodeError(t, rec); env.Error.Code != "not_found" {
		t.Errorf("got error code %q", env.Error.Code)
	}
}

func TestListLessons(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(t, http.MethodPost, "/v1/lessons", `{"topic": "photosynthesis"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: got status %d", rec.Code)
	}

	rec = f.do(t, http.MethodGet, "/v1/lessons", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list: got status %d", rec.Code)
	}
	var resp listLessonsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("parsing response: %v", err)
	}
	if resp.Total != 1 {
		t.Errorf("got total %d, want 1", resp.Total)
	}

	rec = f.do(t, http.MethodGet, "/v1/lessons?topic=gravity", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("filtered list: got status %d", rec.Code)
	}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Total != 0 {
		t.Errorf("got total %d for unmatched filter, want 0", resp.Total)
	}
}

func TestListLessonsLimit(t *testing.T) {
	f := newFixture(t, nil)

	for _, body := range []string{
		`{"topic": "photosynthesis"}`,
		`{"topic": "gravity"}`,
	} {
		rec := f.do(t, http.MethodPost, "/v1/lessons", body)
		if rec.Code != http.StatusCreated {
			t.Fatalf("create: got status %d: %s", rec.Code, rec.Body.String())
		}
	}

	rec := f.do(t, http.MethodGet, "/v1/lessons?limit=1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list: got status %d", rec.Code)
	}
	var resp listLessonsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("parsing response: %v", err)
	}
	if resp.Total != 1 || len(resp.Lessons) != 1 {
		t.Errorf("got total=%d lessons=%d, want 1 and 1", resp.Total, len(resp.Lessons))
	}

	rec = f.do(t, http.MethodGet, "/v1/lessons?limit=zero", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad limit: got status %d", rec.Code)
	}
}

func TestUnknownEndpoint(t *testing.T) {
	f := newFixture(t, nil)
	rec := f.do(t, http.MethodGet, "/v1/nope", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("got status %d", rec.Code)
	}
	if env := decodeError(t, rec); env.Error.Code != "not_found" {
		t.Errorf("got error code %q", env.Error.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	f := newFixture(t, nil)
	rec := f.do(t, http.MethodDelete, "/v1/search", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("got status %d", rec.Code)
	}
	if env := decodeError(t, rec); env.Error.Code != "method_not_allowed" {
		t.Errorf("got error code %q", env.Error.Code)
	}
}
