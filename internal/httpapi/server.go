// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httpapi exposes the search, scrape, and lesson operations over HTTP.
// Implements: prd006-http-api (R1-R5);
//
//	docs/ARCHITECTURE § Service Interface.
package httpapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/pdiddy/edu-engine/internal/cache"
	"github.com/pdiddy/edu-engine/internal/lesson"
	"github.com/pdiddy/edu-engine/internal/search"
	"github.com/pdiddy/edu-engine/internal/store"
	"github.com/pdiddy/edu-engine/pkg/types"
)

const requestIDHeader = "X-Request-Id"

const (
	defaultReadTimeout     = 15 * time.Second
	defaultWriteTimeout    = 60 * time.Second
	defaultShutdownTimeout = 10 * time.Second
)

// Server serves the edu-engine HTTP API (R1.1).
type Server struct {
	cfg       types.ServiceConfig
	providers []search.Provider
	backend   lesson.AIBackend
	store     *store.Store
	caches    *cache.Caches
	logOut    io.Writer

	// scrapeClient fetches pages for /v1/scrape and lesson generation,
	// bounded by the scrape timeout rather than the search timeout.
	scrapeClient *http.Client

	httpServer *http.Server
}

// NewServer wires the API handlers to their dependencies. logOut receives
// access log lines and provider warnings.
func NewServer(cfg types.ServiceConfig, providers []search.Provider, backend lesson.AIBackend,
	st *store.Store, caches *cache.Caches, logOut io.Writer) *Server {
	if caches == nil {
		caches = &cache.Caches{Search: cache.Nop{}, Scrape: cache.Nop{}, Lesson: cache.Nop{}}
	}
	if logOut == nil {
		logOut = io.Discard
	}

	s := &Server{
		cfg:          cfg,
		providers:    providers,
		backend:      backend,
		store:        st,
		caches:       caches,
		scrapeClient: &http.Client{Timeout: cfg.Scrape.Timeout},
		logOut:       logOut,
	}

	readTimeout := cfg.Server.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = defaultReadTimeout
	}
	writeTimeout := cfg.Server.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = defaultWriteTimeout
	}

	s.httpServer = &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      handlers.LoggingHandler(logOut, s.Router()),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}

	return s
}

// Router builds the API route table (R1.2).
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(requestIDMiddleware)

	methodNotAllowed := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	})

	v1 := r.PathPrefix("/v1").Subrouter()
	// Subrouters do not inherit the root's MethodNotAllowedHandler.
	v1.MethodNotAllowedHandler = methodNotAllowed
	v1.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	v1.HandleFunc("/search", s.handleSearch).Methods(http.MethodGet)
	v1.HandleFunc("/scrape", s.handleScrape).Methods(http.MethodGet)
	v1.HandleFunc("/lessons", s.handleCreateLesson).Methods(http.MethodPost)
	v1.HandleFunc("/lessons", s.handleListLessons).Methods(http.MethodGet)
	v1.HandleFunc("/lessons/{id}", s.handleGetLesson).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "no such endpoint")
	})
	r.MethodNotAllowedHandler = methodNotAllowed

	return r
}

// Start serves until ctx is cancelled, then drains connections within the
// configured shutdown timeout (R1.3).
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		fmt.Fprintf(s.logOut, "listening on %s\n", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownTimeout := s.cfg.Server.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = defaultShutdownTimeout
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	fmt.Fprintln(s.logOut, "shutting down")
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return <-errCh
}

// requestIDMiddleware tags every request with an ID, preserving one supplied
// by the client (R1.4).
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}
