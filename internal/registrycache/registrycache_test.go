package registrycache

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Bhargavvvv2912/depagent/internal/engine"
)

type countingRegistry struct {
	latestCalls int
	rangeCalls  int
	version     engine.Version
}

func (r *countingRegistry) Latest(ctx context.Context, name string) (engine.Version, bool) {
	r.latestCalls++
	return r.version, true
}

func (r *countingRegistry) Range(ctx context.Context, name string, lo, hi engine.Version) []engine.Version {
	r.rangeCalls++
	return []engine.Version{r.version}
}

func TestCacheMemoizesLatestWithinSameEpoch(t *testing.T) {
	inner := &countingRegistry{version: engine.ParseVersion("1.2.3")}
	path := filepath.Join(t.TempDir(), "cache.db")
	c, err := Open(path, inner, 42)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer c.Close()

	for i := 0; i < 3; i++ {
		v, ok := c.Latest(context.Background(), "foo")
		if !ok || v.String() != "1.2.3" {
			t.Fatalf("Latest() = (%v, %v), want (1.2.3, true)", v, ok)
		}
	}
	if inner.latestCalls != 1 {
		t.Errorf("inner.latestCalls = %d, want 1 (subsequent lookups should hit the cache)", inner.latestCalls)
	}
}

func TestCacheMissesOnEpochChange(t *testing.T) {
	inner := &countingRegistry{version: engine.ParseVersion("1.0.0")}
	path := filepath.Join(t.TempDir(), "cache.db")

	c1, err := Open(path, inner, 1)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	c1.Latest(context.Background(), "foo")
	c1.Close()

	c2, err := Open(path, inner, 2)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer c2.Close()
	c2.Latest(context.Background(), "foo")

	if inner.latestCalls != 2 {
		t.Errorf("inner.latestCalls = %d, want 2 (a new epoch must not reuse a stale cache entry)", inner.latestCalls)
	}
}

func TestCacheMemoizesRangeByInterval(t *testing.T) {
	inner := &countingRegistry{version: engine.ParseVersion("1.0.0")}
	path := filepath.Join(t.TempDir(), "cache.db")
	c, err := Open(path, inner, 1)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer c.Close()

	lo, hi := engine.ParseVersion("1.0.0"), engine.ParseVersion("2.0.0")
	c.Range(context.Background(), "foo", lo, hi)
	c.Range(context.Background(), "foo", lo, hi)
	if inner.rangeCalls != 1 {
		t.Errorf("inner.rangeCalls = %d, want 1 (same interval should hit the cache)", inner.rangeCalls)
	}

	c.Range(context.Background(), "foo", lo, engine.ParseVersion("3.0.0"))
	if inner.rangeCalls != 2 {
		t.Errorf("inner.rangeCalls = %d, want 2 (a different interval must not reuse the cached entry)", inner.rangeCalls)
	}
}
