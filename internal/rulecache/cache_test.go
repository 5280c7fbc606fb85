package rulecache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/listinglens/listinglens/internal/ruleset"
)

type countingProvider struct {
	calls int64
	delay time.Duration
}

func (p *countingProvider) Resolve(_ context.Context, rctx ruleset.Context) (*ruleset.RuleSet, error) {
	atomic.AddInt64(&p.calls, 1)
	if p.delay > 0 {
		time.Sleep(p.delay)
	}
	return &ruleset.RuleSet{Context: rctx}, nil
}

func TestCacheHitWithinTTL(t *testing.T) {
	p := &countingProvider{}
	c := New(p, time.Minute)
	rctx := ruleset.Context{AppID: "app-1", OrgID: "acme"}

	first, err := c.Resolve(context.Background(), rctx)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	second, err := c.Resolve(context.Background(), rctx)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if first != second {
		t.Fatalf("expected the cached ruleset instance")
	}
	if got := atomic.LoadInt64(&p.calls); got != 1 {
		t.Fatalf("provider calls = %d, want 1", got)
	}
}

func TestCacheExpiresAfterTTL(t *testing.T) {
	p := &countingProvider{}
	c := New(p, time.Minute)
	rctx := ruleset.Context{AppID: "app-1"}

	now := time.Now()
	c.now = func() time.Time { return now }

	if _, err := c.Resolve(context.Background(), rctx); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	now = now.Add(2 * time.Minute)
	if _, err := c.Resolve(context.Background(), rctx); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if got := atomic.LoadInt64(&p.calls); got != 2 {
		t.Fatalf("provider calls = %d, want 2 after expiry", got)
	}
}

func TestCacheKeysAreContextSpecific(t *testing.T) {
	p := &countingProvider{}
	c := New(p, time.Minute)

	ctxs := []ruleset.Context{
		{AppID: "app-1", OrgID: "acme"},
		{AppID: "app-1", OrgID: "globex"},
		{AppID: "app-2", OrgID: "acme"},
	}
	for _, rctx := range ctxs {
		if _, err := c.Resolve(context.Background(), rctx); err != nil {
			t.Fatalf("resolve: %v", err)
		}
	}

	if got := atomic.LoadInt64(&p.calls); got != 3 {
		t.Fatalf("provider calls = %d, want one per distinct context", got)
	}
	if c.Len() != 3 {
		t.Fatalf("Len = %d, want 3", c.Len())
	}
}

func TestCacheCoalescesConcurrentResolves(t *testing.T) {
	p := &countingProvider{delay: 50 * time.Millisecond}
	c := New(p, time.Minute)
	rctx := ruleset.Context{AppID: "app-1"}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.Resolve(context.Background(), rctx); err != nil {
				t.Errorf("resolve: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := atomic.LoadInt64(&p.calls); got != 1 {
		t.Fatalf("provider calls = %d, want 1 coalesced resolution", got)
	}
}

func TestCacheReportsResolveOutcomes(t *testing.T) {
	p := &countingProvider{}
	c := New(p, time.Minute)
	rctx := ruleset.Context{AppID: "app-1", OrgID: "acme"}

	var cached, resolved int
	c.OnResolve(func(hit bool) {
		if hit {
			cached++
		} else {
			resolved++
		}
	})

	if _, err := c.Resolve(context.Background(), rctx); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if _, err := c.Resolve(context.Background(), rctx); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if resolved != 1 || cached != 1 {
		t.Fatalf("observer saw resolved=%d cached=%d, want 1 and 1", resolved, cached)
	}

	c.Invalidate(rctx)
	if _, err := c.Resolve(context.Background(), rctx); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved != 2 {
		t.Fatalf("resolved = %d, want 2 after invalidation", resolved)
	}
}

func TestCacheInvalidate(t *testing.T) {
	p := &countingProvider{}
	c := New(p, time.Minute)
	rctx := ruleset.Context{AppID: "app-1"}

	if _, err := c.Resolve(context.Background(), rctx); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	c.Invalidate(rctx)
	if _, err := c.Resolve(context.Background(), rctx); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if got := atomic.LoadInt64(&p.calls); got != 2 {
		t.Fatalf("provider calls = %d, want 2 after invalidation", got)
	}
}
