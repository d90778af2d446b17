// Package registrycache memoizes engine.Registry lookups in a BoltDB file,
// the direct descendant of golang-dep's internal/gps/source_cache_bolt.go
// boltCache: a single top-level bucket holding one entry per package,
// stamped with the epoch of the run that wrote it; an entry from another
// epoch is ignored and overwritten, so a later invocation never serves
// another run's stale "latest" answer. This is
// the concrete realization of spec.md §4.B's "may be cached per run."
package registrycache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/boltdb/bolt"
	"github.com/pkg/errors"

	"github.com/Bhargavvvv2912/depagent/internal/engine"
)

var bucketName = []byte("registry")

// Cache wraps an engine.Registry with a BoltDB-backed memoization layer.
type Cache struct {
	inner engine.Registry
	db    *bolt.DB
	epoch int64
}

// Open opens (creating if absent) a BoltDB file at path and wraps inner.
// epoch should be a value unique to this run (e.g. its start time) so
// cached entries from a prior run are never mistaken for current ones.
func Open(path string, inner engine.Registry, epoch int64) (*Cache, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "opening registry cache %q", path)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	}); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "initializing registry cache bucket")
	}
	return &Cache{inner: inner, db: db, epoch: epoch}, nil
}

// Close releases the underlying BoltDB file.
func (c *Cache) Close() error {
	return c.db.Close()
}

type entry struct {
	Epoch     int64    `json:"epoch"`
	Latest    string   `json:"latest"`
	HasLatest bool     `json:"has_latest"`
	Range     []string `json:"range,omitempty"` // only meaningful for a specific (lo, hi) pair
	RangeLo   string   `json:"range_lo,omitempty"`
	RangeHi   string   `json:"range_hi,omitempty"`
}

// Latest implements engine.Registry, consulting the cache before falling
// through to the wrapped registry.
func (c *Cache) Latest(ctx context.Context, name string) (engine.Version, bool) {
	key := engine.Normalize(name)

	if e, ok := c.get(key); ok && e.Epoch == c.epoch && e.HasLatest {
		return engine.ParseVersion(e.Latest), true
	}

	v, ok := c.inner.Latest(ctx, name)

	e, _ := c.get(key)
	e.Epoch = c.epoch
	e.HasLatest = ok
	if ok {
		e.Latest = v.String()
	}
	c.put(key, e)

	return v, ok
}

// Range implements engine.Registry. The interval scan in healing's Stage 2
// typically re-queries the same (pkg, current, target) pair at most once
// per healing invocation, so a cached range is served only for the
// identical (lo, hi) pair; each package keeps just its most recent range.
func (c *Cache) Range(ctx context.Context, name string, lo, hi engine.Version) []engine.Version {
	key := engine.Normalize(name)

	if e, ok := c.get(key); ok && e.Epoch == c.epoch && e.RangeLo == lo.String() && e.RangeHi == hi.String() {
		out := make([]engine.Version, 0, len(e.Range))
		for _, raw := range e.Range {
			out = append(out, engine.ParseVersion(raw))
		}
		return out
	}

	versions := c.inner.Range(ctx, name, lo, hi)

	e, _ := c.get(key)
	e.Epoch = c.epoch
	e.RangeLo = lo.String()
	e.RangeHi = hi.String()
	e.Range = make([]string, len(versions))
	for i, v := range versions {
		e.Range[i] = v.String()
	}
	c.put(key, e)

	return versions
}

func (c *Cache) get(key string) (entry, bool) {
	var e entry
	var found bool
	_ = c.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName)
		raw := b.Get([]byte(key))
		if raw == nil {
			return nil
		}
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil
		}
		found = true
		return nil
	})
	return e, found
}

func (c *Cache) put(key string, e entry) {
	raw, err := json.Marshal(e)
	if err != nil {
		return
	}
	_ = c.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName)
		return b.Put([]byte(key), raw)
	})
}
