package cache_test

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/sandrolain/goformula/pkg/cache"
	"github.com/sandrolain/goformula/pkg/parser"
	"github.com/sandrolain/goformula/pkg/types"
)

func mustCompile(t *testing.T, formula string) *types.Expression {
	t.Helper()
	expr, err := parser.Compile(formula)
	if err != nil {
		t.Fatalf("compile %q: %v", formula, err)
	}
	return expr
}

func TestCacheNew(t *testing.T) {
	c := cache.New(10)
	if got := c.Len(); got != 0 {
		t.Fatalf("expected empty cache, got %d", got)
	}
	if got := c.Capacity(); got != 10 {
		t.Fatalf("expected capacity 10, got %d", got)
	}
}

func TestCacheDefaultCapacity(t *testing.T) {
	for _, capacity := range []int{0, -5} {
		c := cache.New(capacity)
		if got := c.Capacity(); got != cache.DefaultCapacity {
			t.Fatalf("New(%d): expected default capacity %d, got %d", capacity, cache.DefaultCapacity, got)
		}
	}
}

func TestCacheSetGet(t *testing.T) {
	c := cache.New(4)
	expr := mustCompile(t, "width * height")
	c.Set("width * height", expr)
	if got := c.Len(); got != 1 {
		t.Fatalf("expected 1 entry, got %d", got)
	}
	got, ok := c.Get("width * height")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if got != expr {
		t.Fatal("expected same expression pointer")
	}
}

func TestCacheMiss(t *testing.T) {
	c := cache.New(4)
	if _, ok := c.Get("missing"); ok {
		t.Fatal("expected cache miss")
	}
}

func TestCacheLRUEviction(t *testing.T) {
	c := cache.New(3)
	for _, k := range []string{"a", "b", "c"} {
		c.Set(k, mustCompile(t, k))
	}
	// Touch "a" so "b" becomes the least recently used.
	if _, ok := c.Get("a"); !ok {
		t.Fatal(`expected "a" to be cached`)
	}
	c.Set("d", mustCompile(t, "d"))

	if got := c.Len(); got != 3 {
		t.Fatalf("expected 3 entries after eviction, got %d", got)
	}
	if _, ok := c.Get("b"); ok {
		t.Fatal(`expected "b" to be evicted (LRU)`)
	}
	for _, k := range []string{"a", "c", "d"} {
		if _, ok := c.Get(k); !ok {
			t.Fatalf("expected %q to survive", k)
		}
	}
	if got := c.Stats().Evictions; got != 1 {
		t.Fatalf("expected 1 eviction, got %d", got)
	}
}

func TestCacheInvalidate(t *testing.T) {
	c := cache.New(4)
	c.Set("k", mustCompile(t, "x"))
	c.Invalidate("k")
	if _, ok := c.Get("k"); ok {
		t.Fatal("expected miss after Invalidate")
	}
	c.Invalidate("never-set")
}

func TestCacheClear(t *testing.T) {
	c := cache.New(4)
	for _, k := range []string{"a", "b", "c"} {
		c.Set(k, mustCompile(t, k))
	}
	c.Clear()
	if got := c.Len(); got != 0 {
		t.Fatalf("expected 0 after Clear, got %d", got)
	}
}

func TestCacheGetOrCompile(t *testing.T) {
	c := cache.New(4)
	callCount := 0
	compileFn := func() (*types.Expression, error) {
		callCount++
		return parser.Compile("ceil(a / 3)")
	}

	expr1, hit, err := c.GetOrCompile("ceil(a / 3)", compileFn)
	if err != nil || expr1 == nil {
		t.Fatalf("first GetOrCompile: %v", err)
	}
	if hit {
		t.Fatal("expected first call to miss")
	}

	expr2, hit, err := c.GetOrCompile("ceil(a / 3)", compileFn)
	if err != nil || expr2 == nil {
		t.Fatalf("second GetOrCompile: %v", err)
	}
	if !hit {
		t.Fatal("expected second call to hit")
	}
	if callCount != 1 {
		t.Fatalf("expected 1 compile call, got %d", callCount)
	}
	if expr1 != expr2 {
		t.Fatal("expected same pointer from cache")
	}

	stats := c.Stats()
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Fatalf("expected 1 hit and 1 miss, got %+v", stats)
	}
}

func TestCacheGetOrCompileErrorNotCached(t *testing.T) {
	c := cache.New(4)
	boom := errors.New("boom")
	calls := 0
	for i := 0; i < 2; i++ {
		_, _, err := c.GetOrCompile("k", func() (*types.Expression, error) {
			calls++
			return nil, boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("expected boom, got %v", err)
		}
	}
	if calls != 2 {
		t.Fatalf("expected failures to be recompiled, got %d calls", calls)
	}
	if c.Len() != 0 {
		t.Fatalf("expected no cached entry, got %d", c.Len())
	}
}

func TestCacheSetUpdate(t *testing.T) {
	c := cache.New(4)
	expr1 := mustCompile(t, "a")
	expr2 := mustCompile(t, "b")
	c.Set("k", expr1)
	c.Set("k", expr2)
	got, ok := c.Get("k")
	if !ok {
		t.Fatal("expected hit after overwrite")
	}
	if got != expr2 {
		t.Fatal("expected updated expression pointer")
	}
	if c.Len() != 1 {
		t.Fatalf("expected 1 entry after overwrite, got %d", c.Len())
	}
}

func TestCacheConcurrentAccess(t *testing.T) {
	c := cache.New(16)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("x + %d", (g+i)%32)
				expr, _, err := c.GetOrCompile(key, func() (*types.Expression, error) {
					return parser.Compile(key)
				})
				if err != nil {
					t.Errorf("compile %q: %v", key, err)
					return
				}
				if expr.Source() != key {
					t.Errorf("got expression %q for key %q", expr.Source(), key)
					return
				}
			}
		}(g)
	}
	wg.Wait()

	if got := c.Len(); got > c.Capacity() {
		t.Fatalf("cache grew past capacity: %d > %d", got, c.Capacity())
	}
}
