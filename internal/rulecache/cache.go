package rulecache

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/listinglens/listinglens/internal/audit"
	"github.com/listinglens/listinglens/internal/ruleset"
)

// DefaultTTL is the freshness window for merged rulesets. Source
// configuration changes infrequently, so minutes, not seconds.
const DefaultTTL = 10 * time.Minute

type entry struct {
	value     *ruleset.RuleSet
	fetchedAt time.Time
}

// Cache memoizes merged rulesets per context with lazy, TTL-based refresh.
// Concurrent callers for the same key are coalesced into a single
// resolution; stale entries are refreshed on next access, never proactively.
type Cache struct {
	inner     audit.RuleSetProvider
	ttl       time.Duration
	now       func() time.Time
	onResolve func(cached bool)

	mu      sync.Mutex
	entries map[string]entry
	group   singleflight.Group
}

// New wraps a provider with memoization. A non-positive ttl falls back to
// DefaultTTL.
func New(inner audit.RuleSetProvider, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		inner:   inner,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]entry),
	}
}

// OnResolve registers fn to observe every resolution. cached reports whether
// a fresh entry served the call without going through the wrapped provider.
// Register during wiring, before the cache starts serving.
func (c *Cache) OnResolve(fn func(cached bool)) {
	c.onResolve = fn
}

func (c *Cache) report(cached bool) {
	if c.onResolve != nil {
		c.onResolve(cached)
	}
}

func key(rctx ruleset.Context) string {
	parts := []string{rctx.AppID, rctx.Category, rctx.Locale, rctx.OrgID}
	for i, p := range parts {
		if p == "" {
			parts[i] = "default"
		}
	}
	return strings.Join(parts, "|")
}

// Resolve returns the cached ruleset when fresh, otherwise resolves through
// the wrapped provider. At most one resolution per key is in flight at a
// time.
func (c *Cache) Resolve(ctx context.Context, rctx ruleset.Context) (*ruleset.RuleSet, error) {
	k := key(rctx)

	c.mu.Lock()
	if e, ok := c.entries[k]; ok && c.now().Sub(e.fetchedAt) < c.ttl {
		c.mu.Unlock()
		c.report(true)
		return e.value, nil
	}
	c.mu.Unlock()

	v, err, _ := c.group.Do(k, func() (interface{}, error) {
		// Re-check under the flight: a concurrent caller may have
		// refreshed the entry while this one waited.
		c.mu.Lock()
		if e, ok := c.entries[k]; ok && c.now().Sub(e.fetchedAt) < c.ttl {
			c.mu.Unlock()
			return e.value, nil
		}
		c.mu.Unlock()

		rs, err := c.inner.Resolve(ctx, rctx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.entries[k] = entry{value: rs, fetchedAt: c.now()}
		c.mu.Unlock()
		return rs, nil
	})
	if err != nil {
		return nil, err
	}
	c.report(false)
	return v.(*ruleset.RuleSet), nil
}

// Invalidate drops one context's entry; the next access re-resolves.
func (c *Cache) Invalidate(rctx ruleset.Context) {
	c.mu.Lock()
	delete(c.entries, key(rctx))
	c.mu.Unlock()
}

// Len reports the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
