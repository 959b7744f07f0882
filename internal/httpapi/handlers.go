// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/pdiddy/edu-engine/internal/cache"
	"github.com/pdiddy/edu-engine/internal/lesson"
	"github.com/pdiddy/edu-engine/internal/scrape"
	"github.com/pdiddy/edu-engine/internal/search"
	"github.com/pdiddy/edu-engine/internal/store"
	"github.com/pdiddy/edu-engine/pkg/types"
)

// errorEnvelope is the JSON error body for every non-2xx response (R5.1).
type errorEnvelope struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorEnvelope{Error: errorBody{Code: code, Message: message}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeCached replays a serialized response body from the cache.
func writeCached(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Cache", "hit")
	w.WriteHeader(status)
	w.Write(body)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// searchResponse is the body for GET /v1/search (R2.1).
type searchResponse struct {
	Topic             string          `json:"topic"`
	Engine            string          `json:"engine"`
	Articles          []types.Article `json:"articles"`
	DuplicatesRemoved int             `json:"duplicates_removed"`
	ProviderErrors    []string        `json:"provider_errors,omitempty"`
}

// handleSearch serves GET /v1/search?topic=...&site=...&engine=...&max_results=...
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	topic := strings.TrimSpace(q.Get("topic"))
	if topic == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "topic parameter is required")
		return
	}

	engine := q.Get("engine")
	if engine == "" {
		engine = "all"
	}
	providers, err := s.providersFor(engine)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	maxResults := 0
	if raw := q.Get("max_results"); raw != "" {
		maxResults, err = strconv.Atoi(raw)
		if err != nil || maxResults < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", "max_results must be a positive integer")
			return
		}
	}

	query := search.Query{Topic: topic, Site: q.Get("site"), MaxResults: maxResults}

	key := cache.Key(cache.KindSearch, topic, query.Site, engine, strconv.Itoa(maxResults))
	if body, err := s.caches.Search.Get(r.Context(), key); err == nil {
		writeCached(w, http.StatusOK, body)
		return
	}

	out, err := search.Search(r.Context(), query, providers, s.cfg.Search, s.logOut)
	if err != nil {
		writeError(w, http.StatusBadGateway, "upstream_error", err.Error())
		return
	}

	resp := searchResponse{
		Topic:             topic,
		Engine:            engine,
		Articles:          out.Articles,
		DuplicatesRemoved: out.DupsRemoved,
		ProviderErrors:    out.ProviderErrors,
	}
	if resp.Articles == nil {
		resp.Articles = []types.Article{}
	}

	// Degraded responses (a provider failed) are not cached, so the next
	// request retries the full provider set.
	if len(out.ProviderErrors) == 0 {
		s.cacheSet(r.Context(), s.caches.Search, key, resp)
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleScrape serves GET /v1/scrape?url=...&max_chars=...
func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	rawURL := strings.TrimSpace(q.Get("url"))
	if rawURL == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "url parameter is required")
		return
	}

	cfg := s.cfg.Scrape
	if raw := q.Get("max_chars"); raw != "" {
		maxChars, err := strconv.Atoi(raw)
		if err != nil || maxChars < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", "max_chars must be a positive integer")
			return
		}
		cfg.MaxChars = maxChars
	}

	key := cache.Key(cache.KindScrape, rawURL, strconv.Itoa(cfg.MaxChars))
	if body, err := s.caches.Scrape.Get(r.Context(), key); err == nil {
		writeCached(w, http.StatusOK, body)
		return
	}

	page, err := scrape.Scrape(r.Context(), s.scrapeClient, rawURL, cfg)
	if err != nil {
		if errors.Is(err, scrape.ErrBadURL) {
			writeError(w, http.StatusBadRequest, "bad_request", err.Error())
			return
		}
		writeError(w, http.StatusBadGateway, "upstream_error", err.Error())
		return
	}

	s.cacheSet(r.Context(), s.caches.Scrape, key, page)
	writeJSON(w, http.StatusOK, page)
}

// createLessonRequest is the body for POST /v1/lessons (R4.1).
type createLessonRequest struct {
	Topic      string `json:"topic"`
	Difficulty string `json:"difficulty"`
	Site       string `json:"site,omitempty"`
	MaxSources int    `json:"max_sources,omitempty"`
}

// handleCreateLesson runs the full pipeline: search the topic, scrape the
// top sources, generate the lesson, and persist it (R4.1-R4.4).
func (s *Server) handleCreateLesson(w http.ResponseWriter, r *http.Request) {
	var req createLessonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body: "+err.Error())
		return
	}

	req.Topic = strings.TrimSpace(req.Topic)
	if req.Topic == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "topic is required")
		return
	}
	if req.Difficulty == "" {
		req.Difficulty = string(types.DifficultyBeginner)
	}
	switch types.Difficulty(req.Difficulty) {
	case types.DifficultyBeginner, types.DifficultyIntermediate, types.DifficultyAdvanced:
	default:
		writeError(w, http.StatusBadRequest, "bad_request",
			fmt.Sprintf("difficulty %q must be beginner, intermediate, or advanced", req.Difficulty))
		return
	}

	key := cache.Key(cache.KindLesson, req.Topic, req.Difficulty, req.Site)
	if body, err := s.caches.Lesson.Get(r.Context(), key); err == nil {
		writeCached(w, http.StatusOK, body)
		return
	}

	maxSources := req.MaxSources
	if maxSources <= 0 {
		maxSources = s.cfg.Lesson.MaxSources
	}
	if maxSources <= 0 {
		maxSources = 3
	}

	query := search.Query{Topic: req.Topic, Site: req.Site, MaxResults: maxSources}
	out, err := search.Search(r.Context(), query, s.providers, s.cfg.Search, s.logOut)
	if err != nil {
		writeError(w, http.StatusBadGateway, "upstream_error", "searching sources: "+err.Error())
		return
	}
	if len(out.Articles) == 0 {
		writeError(w, http.StatusBadGateway, "upstream_error",
			fmt.Sprintf("no sources found for topic %q", req.Topic))
		return
	}

	// Scrape failures are tolerated; the model still sees the search snippets.
	var pages []types.Page
	for _, a := range out.Articles {
		page, err := scrape.Scrape(r.Context(), s.scrapeClient, a.Link, s.cfg.Scrape)
		if err != nil {
			fmt.Fprintf(s.logOut, "warning: scraping %s failed: %v\n", a.Link, err)
			continue
		}
		pages = append(pages, *page)
	}

	l, err := lesson.Generate(r.Context(), s.backend, lesson.Request{
		Topic:      req.Topic,
		Difficulty: types.Difficulty(req.Difficulty),
		Articles:   out.Articles,
		Pages:      pages,
	}, s.cfg.Lesson)
	if err != nil {
		writeError(w, http.StatusBadGateway, "upstream_error", "generating lesson: "+err.Error())
		return
	}

	if err := s.store.Save(r.Context(), l); err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "saving lesson: "+err.Error())
		return
	}

	s.cacheSet(r.Context(), s.caches.Lesson, key, l)
	writeJSON(w, http.StatusCreated, l)
}

// handleGetLesson serves GET /v1/lessons/{id} (R4.5).
func (s *Server) handleGetLesson(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	l, err := s.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", fmt.Sprintf("lesson %q not found", id))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, l)
}

// listLessonsResponse is the body for GET /v1/lessons (R4.6).
type listLessonsResponse struct {
	Lessons []*types.Lesson `json:"lessons"`
	Total   int             `json:"total"`
}

// handleListLessons serves GET /v1/lessons?q=...&topic=...&difficulty=...&limit=...
func (s *Server) handleListLessons(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	maxResults := 0
	if raw := q.Get("limit"); raw != "" {
		var err error
		maxResults, err = strconv.Atoi(raw)
		if err != nil || maxResults < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", "limit must be a positive integer")
			return
		}
	}

	lessons, err := s.store.Retrieve(r.Context(), store.QueryOptions{
		Query:      q.Get("q"),
		Topic:      q.Get("topic"),
		Difficulty: q.Get("difficulty"),
		MaxResults: maxResults,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	if lessons == nil {
		lessons = []*types.Lesson{}
	}

	writeJSON(w, http.StatusOK, listLessonsResponse{Lessons: lessons, Total: len(lessons)})
}

// providersFor selects the provider subset for an engine parameter (R2.2).
func (s *Server) providersFor(engine string) ([]search.Provider, error) {
	if engine == "all" {
		return s.providers, nil
	}
	for _, p := range s.providers {
		if p.Name() == engine {
			return []search.Provider{p}, nil
		}
	}
	return nil, fmt.Errorf("unknown engine %q: use google, bing, or all", engine)
}

// cacheSet serializes v into the cache. Failures degrade to a future miss.
func (s *Server) cacheSet(ctx context.Context, c cache.Cache, key string, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.Set(ctx, key, body); err != nil {
		fmt.Fprintf(s.logOut, "warning: cache write failed: %v\n", err)
	}
}
