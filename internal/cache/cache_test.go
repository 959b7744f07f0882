// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/pdiddy/edu-engine/pkg/types"
)

func TestKey(t *testing.T) {
	k1 := Key(KindSearch, "photosynthesis", "google")
	k2 := Key(KindSearch, "Photosynthesis ", "GOOGLE")
	if k1 != k2 {
		t.Errorf("keys differ for equivalent fingerprints: %s vs %s", k1, k2)
	}
	if !strings.HasPrefix(k1, "search:") {
		t.Errorf("key %s missing kind prefix", k1)
	}

	k3 := Key(KindScrape, "photosynthesis", "google")
	if k1 == k3 {
		t.Error("different kinds produced the same key")
	}

	k4 := Key(KindSearch, "photosynthesis", "bing")
	if k1 == k4 {
		t.Error("different fingerprints produced the same key")
	}

	// Part boundaries matter: ["ab","c"] must differ from ["a","bc"].
	if Key(KindSearch, "ab", "c") == Key(KindSearch, "a", "bc") {
		t.Error("part boundaries not preserved in key")
	}
}

func TestNopCache(t *testing.T) {
	var c Cache = Nop{}
	ctx := context.Background()

	if err := c.Set(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, err := c.Get(ctx, "k"); !errors.Is(err, ErrMiss) {
		t.Errorf("got %v, want ErrMiss", err)
	}
}

func TestNewOffDriver(t *testing.T) {
	for _, driver := range []types.CacheDriver{types.CacheOff, ""} {
		caches, err := New(types.CacheConfig{Driver: driver})
		if err != nil {
			t.Fatalf("New(%q): %v", driver, err)
		}
		if _, ok := caches.Search.(Nop); !ok {
			t.Errorf("driver %q: expected Nop cache", driver)
		}
		caches.Close()
	}
}

func TestNewUnknownDriver(t *testing.T) {
	if _, err := New(types.CacheConfig{Driver: "memcached"}); err == nil {
		t.Error("expected error for unknown driver")
	}
}

func TestNewRedisRequiresAddress(t *testing.T) {
	_, err := New(types.CacheConfig{Driver: types.CacheRedis})
	if err == nil {
		t.Error("expected error for redis driver without address")
	}
}

func TestSQLiteCacheRoundTrip(t *testing.T) {
	caches, err := New(types.CacheConfig{
		Driver:  types.CacheSQLite,
		DataDir: t.TempDir(),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer caches.Close()

	ctx := context.Background()
	key := Key(KindSearch, "photosynthesis")

	if _, err := caches.Search.Get(ctx, key); !errors.Is(err, ErrMiss) {
		t.Fatalf("got %v before Set, want ErrMiss", err)
	}

	if err := caches.Search.Set(ctx, key, []byte(`{"articles":[]}`)); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, err := caches.Search.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != `{"articles":[]}` {
		t.Errorf("got %q", got)
	}
}

func TestSQLiteCacheOverwrite(t *testing.T) {
	caches, err := New(types.CacheConfig{
		Driver:  types.CacheSQLite,
		DataDir: t.TempDir(),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer caches.Close()

	ctx := context.Background()
	key := Key(KindScrape, "https://example.com")

	if err := caches.Scrape.Set(ctx, key, []byte("first")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := caches.Scrape.Set(ctx, key, []byte("second")); err != nil {
		t.Fatalf("Set (overwrite): %v", err)
	}

	got, err := caches.Scrape.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "second" {
		t.Errorf("got %q, want %q", got, "second")
	}
}

func TestSQLiteCacheExpiry(t *testing.T) {
	store, err := newSQLiteStore(types.CacheConfig{
		Driver:  types.CacheSQLite,
		DataDir: t.TempDir(),
	})
	if err != nil {
		t.Fatalf("newSQLiteStore: %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	// A zero TTL expires immediately.
	if err := store.SetTTL(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("SetTTL: %v", err)
	}
	if _, err := store.Get(ctx, "k"); !errors.Is(err, ErrMiss) {
		t.Errorf("got %v for expired entry, want ErrMiss", err)
	}

	if err := store.SetTTL(ctx, "k2", []byte("v2"), time.Hour); err != nil {
		t.Fatalf("SetTTL: %v", err)
	}
	if _, err := store.Get(ctx, "k2"); err != nil {
		t.Errorf("Get unexpired entry: %v", err)
	}
}

func TestSQLiteCachePrunesExpired(t *testing.T) {
	store, err := newSQLiteStore(types.CacheConfig{
		Driver:  types.CacheSQLite,
		DataDir: t.TempDir(),
	})
	if err != nil {
		t.Fatalf("newSQLiteStore: %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	if err := store.SetTTL(ctx, "dead", []byte("v"), -time.Hour); err != nil {
		t.Fatalf("SetTTL: %v", err)
	}
	// The next Set prunes rows whose expiry has passed.
	if err := store.SetTTL(ctx, "live", []byte("v"), time.Hour); err != nil {
		t.Fatalf("SetTTL: %v", err)
	}

	var n int
	if err := store.db.QueryRow(`SELECT count(*) FROM entries WHERE key = 'dead'`).Scan(&n); err != nil {
		t.Fatalf("counting rows: %v", err)
	}
	if n != 0 {
		t.Error("expired entry was not pruned")
	}
}
