// Package cache provides the short-lived response cache that sits in front of
// the LinkAce API.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// Defaults for a cache built without options.
const (
	DefaultTTL      = 60 * time.Second
	DefaultMaxItems = 4096
)

// Fetcher performs the real request on a cache miss.
type Fetcher func(ctx context.Context) (any, error)

type entry struct {
	payload   any
	fetchedAt time.Time
}

// ResponseCache memoizes API responses by request key for a fixed TTL.
// Expiry is checked lazily on read; nothing sweeps in the background.
// Concurrent misses for one key share a single fetch.
type ResponseCache struct {
	entries *lru.Cache[string, entry]
	ttl     time.Duration
	now     func() time.Time
	group   singleflight.Group

	// mu orders stores against Purge. A fetch started before a purge
	// belongs to an older generation and is never stored.
	mu  sync.Mutex
	gen uint64
}

// Option configures a ResponseCache.
type Option func(*ResponseCache)

// WithTTL sets how long an entry is served after it was fetched.
func WithTTL(ttl time.Duration) Option {
	return func(c *ResponseCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *ResponseCache) {
		c.now = now
	}
}

// New creates a cache holding at most maxItems entries.
func New(maxItems int, opts ...Option) (*ResponseCache, error) {
	if maxItems <= 0 {
		maxItems = DefaultMaxItems
	}
	entries, err := lru.New[string, entry](maxItems)
	if err != nil {
		return nil, err
	}
	c := &ResponseCache{
		entries: entries,
		ttl:     DefaultTTL,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// RequestKey derives the cache key for a request from its path and query
// parameters. url.Values.Encode sorts by key, so the result is deterministic.
func RequestKey(path string, params url.Values) string {
	if len(params) == 0 {
		return path
	}
	return path + "?" + params.Encode()
}

// Get returns the cached payload for key, or calls fetch and caches its
// result. A failed fetch is returned unchanged and nothing is stored.
//
// A shared fetch runs detached from the caller that started it, so one
// caller giving up never fails the others; each caller still stops waiting
// when its own ctx is done. Fetchers are expected to bound their own run
// time, as the API client does with its request timeout.
func (c *ResponseCache) Get(ctx context.Context, key string, fetch Fetcher) (any, error) {
	if payload, ok := c.lookup(key); ok {
		slog.Debug("cache hit", slog.String("key", key))
		return payload, nil
	}

	gen := c.generation()
	fetchCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(flightKey(gen, key), func() (any, error) {
		if payload, ok := c.lookup(key); ok {
			return payload, nil
		}
		payload, err := fetch(fetchCtx)
		if err != nil {
			return nil, err
		}
		c.store(gen, key, payload)
		return payload, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		slog.Debug("cache miss",
			slog.String("key", key),
			slog.Bool("shared", res.Shared),
			slog.Bool("failed", res.Err != nil),
		)
		return res.Val, res.Err
	}
}

func flightKey(gen uint64, key string) string {
	return strconv.FormatUint(gen, 10) + "|" + key
}

func (c *ResponseCache) generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

func (c *ResponseCache) store(gen uint64, key string, payload any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		slog.Debug("dropping response fetched before purge", slog.String("key", key))
		return
	}
	c.entries.Add(key, entry{payload: payload, fetchedAt: c.now()})
}

// lookup returns a live entry, dropping it if it has expired.
func (c *ResponseCache) lookup(key string) (any, bool) {
	e, ok := c.entries.Get(key)
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.fetchedAt) >= c.ttl {
		c.entries.Remove(key)
		return nil, false
	}
	return e.payload, true
}

// Purge drops every entry. Keys do not include the API location or
// credentials, so the cache must be purged when those change. Fetches
// still running from before the purge are neither stored nor shared with
// later callers.
func (c *ResponseCache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.entries.Purge()
}

// Len returns the current number of entries, expired ones included.
func (c *ResponseCache) Len() int {
	return c.entries.Len()
}

// TTL returns the configured time-to-live.
func (c *ResponseCache) TTL() time.Duration {
	return c.ttl
}

// Fetch is a typed wrapper around Get.
func Fetch[T any](ctx context.Context, c *ResponseCache, key string, fetch func(context.Context) (T, error)) (T, error) {
	var zero T
	v, err := c.Get(ctx, key, func(ctx context.Context) (any, error) {
		out, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		return out, nil
	})
	if err != nil {
		return zero, err
	}
	out, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("cached value for %q has type %T", key, v)
	}
	return out, nil
}
