// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cache provides response caching for search, scrape, and lesson
// operations. Implements: prd005-cache (R1-R4);
//
//	docs/ARCHITECTURE § Response Cache.
//
// Three drivers are supported: "off" disables caching, "sqlite" stores
// entries alongside the lesson index, and "redis" uses a shared server so
// multiple instances can pool their caches.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pdiddy/edu-engine/pkg/types"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache miss")

const (
	defaultSearchTTL = 15 * time.Minute
	defaultScrapeTTL = 24 * time.Hour
	defaultLessonTTL = 24 * time.Hour
)

// Cache stores serialized responses keyed by request fingerprint.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get returns the cached value for key, or ErrMiss.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key with the TTL configured for its kind.
	Set(ctx context.Context, key string, value []byte) error

	// Close releases any underlying resources.
	Close() error
}

// Kind namespaces cache keys by operation so each kind carries its own TTL
// (R2.1).
type Kind string

const (
	KindSearch Kind = "search"
	KindScrape Kind = "scrape"
	KindLesson Kind = "lesson"
)

// Key builds a cache key: the kind prefix plus the SHA-256 of the request
// fingerprint. Fingerprint parts are lowercased so "Photosynthesis" and
// "photosynthesis" share an entry (R2.2).
func Key(kind Kind, parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(strings.ToLower(strings.TrimSpace(p))))
		h.Write([]byte{0})
	}
	return string(kind) + ":" + hex.EncodeToString(h.Sum(nil))
}

// Caches holds one kind-scoped cache per operation.
type Caches struct {
	Search Cache
	Scrape Cache
	Lesson Cache

	closer func() error
}

// Close releases the shared backing store, if any.
func (c *Caches) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer()
}

// ttlStore is the shared backing store behind the sqlite and redis drivers.
type ttlStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Close() error
}

// kindCache binds a TTL to a shared store, giving each kind its own expiry.
type kindCache struct {
	store ttlStore
	ttl   time.Duration
}

func (k kindCache) Get(ctx context.Context, key string) ([]byte, error) {
	return k.store.Get(ctx, key)
}

func (k kindCache) Set(ctx context.Context, key string, value []byte) error {
	return k.store.SetTTL(ctx, key, value, k.ttl)
}

// Close is a no-op; the shared store is closed through Caches.Close.
func (k kindCache) Close() error { return nil }

// New builds the kind-scoped caches for the configured driver (R1.1).
func New(cfg types.CacheConfig) (*Caches, error) {
	searchTTL := cfg.SearchTTL
	if searchTTL <= 0 {
		searchTTL = defaultSearchTTL
	}
	scrapeTTL := cfg.ScrapeTTL
	if scrapeTTL <= 0 {
		scrapeTTL = defaultScrapeTTL
	}
	lessonTTL := cfg.LessonTTL
	if lessonTTL <= 0 {
		lessonTTL = defaultLessonTTL
	}

	var (
		store ttlStore
		err   error
	)

	switch cfg.Driver {
	case types.CacheOff, "":
		return &Caches{Search: Nop{}, Scrape: Nop{}, Lesson: Nop{}}, nil
	case types.CacheSQLite:
		store, err = newSQLiteStore(cfg)
	case types.CacheRedis:
		store, err = newRedisStore(cfg)
	default:
		return nil, fmt.Errorf("unknown cache driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	return &Caches{
		Search: kindCache{store, searchTTL},
		Scrape: kindCache{store, scrapeTTL},
		Lesson: kindCache{store, lessonTTL},
		closer: store.Close,
	}, nil
}

// Nop is the disabled cache: every Get misses and every Set succeeds.
type Nop struct{}

func (Nop) Get(ctx context.Context, key string) ([]byte, error)     { return nil, ErrMiss }
func (Nop) Set(ctx context.Context, key string, value []byte) error { return nil }
func (Nop) Close() error                                            { return nil }
