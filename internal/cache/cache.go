// Package cache implements the client-side query cache: list reads are
// keyed by (entity kind, serialized filters), served from the store
// while fresh, served stale with a background revalidation once the
// freshness window passes, and dropped wholesale when a mutation
// touches their kind.
package cache

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// FetchFunc loads the authoritative value on a miss or revalidation.
type FetchFunc func(ctx context.Context) ([]byte, error)

// TTLFunc resolves the freshness window for an entity kind.
type TTLFunc func(kind string) time.Duration

// revalidateTimeout bounds background refreshes, which run detached
// from the triggering caller's context.
const revalidateTimeout = 30 * time.Second

// Cache coordinates reads between the store and the backend.
type Cache struct {
	store  Store
	ttlFor TTLFunc
	group  singleflight.Group
	log    zerolog.Logger

	// mu guards epochs and serializes store writes against
	// invalidation. epochs advances per kind on every Invalidate; a
	// fetch that started under an older epoch must not write back, or a
	// pre-mutation payload would re-enter the store looking fresh.
	mu     sync.Mutex
	epochs map[string]uint64

	wg  sync.WaitGroup
	now func() time.Time // test hook
}

// New creates a cache over the given store. ttlFor resolves the
// per-kind freshness window.
func New(store Store, ttlFor TTLFunc, log zerolog.Logger) *Cache {
	return &Cache{
		store:  store,
		ttlFor: ttlFor,
		epochs: make(map[string]uint64),
		log:    log.With().Str("component", "cache").Logger(),
		now:    time.Now,
	}
}

// Key builds the cache key for a kind and its serialized filter set.
// The "?" separator is always present so kind prefixes cannot collide
// ("alunos?" never matches "alunos-extra?...").
func Key(kind, query string) string {
	return kind + "?" + query
}

// Fetch returns the cached value for (kind, query), using the kind's
// configured freshness window.
func (c *Cache) Fetch(ctx context.Context, kind, query string, fetch FetchFunc) ([]byte, error) {
	return c.FetchTTL(ctx, kind, query, c.ttlFor(kind), fetch)
}

// FetchTTL is Fetch with an explicit freshness window (derived stats
// reads use a longer one than plain lists).
//
// Semantics:
//   - fresh hit: cached bytes, no network.
//   - stale hit: cached bytes immediately; one background revalidation
//     replaces the entry.
//   - miss: synchronous fetch; concurrent callers for the same key
//     share the single in-flight request.
func (c *Cache) FetchTTL(ctx context.Context, kind, query string, ttl time.Duration, fetch FetchFunc) ([]byte, error) {
	key := Key(kind, query)

	entry, err := c.store.Get(ctx, key)
	if err != nil {
		// A degraded store must not take reads down; fall through to a fetch.
		c.log.Warn().Err(err).Str("key", key).Msg("cache store read failed")
		entry = nil
	}

	if entry != nil {
		age := c.now().Sub(entry.FetchedAt)
		if age < ttl {
			c.log.Debug().Str("key", key).Dur("age", age).Msg("cache hit")
			return entry.Data, nil
		}
		c.log.Debug().Str("key", key).Dur("age", age).Msg("cache stale, revalidating")
		c.revalidate(kind, key, fetch)
		return entry.Data, nil
	}

	epoch := c.epoch(kind)
	data, err, _ := c.group.Do(flightKey(key, epoch), func() (any, error) {
		data, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		c.put(ctx, kind, key, epoch, data)
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return data.([]byte), nil
}

// Invalidate drops every cached query of the given kind and advances
// the kind's epoch, so a fetch already in flight cannot write its
// pre-mutation payload back. The next read of any of those keys forces
// a fetch.
func (c *Cache) Invalidate(ctx context.Context, kind string) error {
	c.log.Debug().Str("kind", kind).Msg("invalidating cached queries")

	c.mu.Lock()
	defer c.mu.Unlock()
	c.epochs[kind]++
	return c.store.DeletePrefix(ctx, kind+"?")
}

// Wait blocks until in-flight background revalidations finish.
func (c *Cache) Wait() { c.wg.Wait() }

func (c *Cache) epoch(kind string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epochs[kind]
}

// flightKey scopes singleflight to the current epoch: a read issued
// after an invalidation never joins a fetch that started before it.
func flightKey(key string, epoch uint64) string {
	return key + "#" + strconv.FormatUint(epoch, 10)
}

func (c *Cache) revalidate(kind, key string, fetch FetchFunc) {
	epoch := c.epoch(kind)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), revalidateTimeout)
		defer cancel()

		_, _, _ = c.group.Do(flightKey(key, epoch), func() (any, error) {
			data, err := fetch(ctx)
			if err != nil {
				// Keep serving the stale entry; the next stale read retries.
				c.log.Warn().Err(err).Str("key", key).Msg("background revalidation failed")
				return nil, err
			}
			c.put(ctx, kind, key, epoch, data)
			return data, nil
		})
	}()
}

// put writes a fetched payload back unless an invalidation of the kind
// landed after the fetch began, in which case the payload predates the
// mutation and is dropped.
func (c *Cache) put(ctx context.Context, kind, key string, epoch uint64, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epochs[kind] != epoch {
		c.log.Debug().Str("key", key).Msg("discarding cache write superseded by invalidation")
		return
	}
	if err := c.store.Set(ctx, key, &Entry{Data: data, FetchedAt: c.now()}); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache store write failed")
	}
}
