// Package decisioncache memoizes admission decisions by content fingerprint.
// Entries carry their own expiry; an expired entry is never returned and is
// dropped on access or by Sweep. The cache never consults the stores.
package decisioncache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/hashicorp/golang-lru/v2/simplelru"

	"github.com/maegy2011/yt-sub000/internal/admission/common/clock"
	"github.com/maegy2011/yt-sub000/internal/admission/common/log"
	"github.com/maegy2011/yt-sub000/internal/admission/domain"
)

// DefaultShards is the shard count used when New is given zero.
const DefaultShards = 16

type entry struct {
	result    domain.FilterResult
	expiresAt time.Time
}

// shard is one LRU and the lock serializing access to it.
type shard struct {
	mu  sync.Mutex
	lru *simplelru.LRU[string, entry]
}

// Cache is a sharded, TTL-bounded LRU of FilterResults with hit/miss/eviction
// counters. A Cache built with size <= 0 is disabled: it stores nothing and
// every Get is a miss.
type Cache struct {
	shards    []*shard
	clock     clock.Clock
	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

// newLRU is swapped in tests to simulate construction failures.
var newLRU = func(size int, onEvict simplelru.EvictCallback[string, entry]) (*simplelru.LRU[string, entry], error) {
	return simplelru.NewLRU(size, onEvict)
}

// New creates a cache holding about size entries spread over shards.
func New(size, shards int, clk clock.Clock) (*Cache, error) {
	if clk == nil {
		clk = clock.RealClock{}
	}
	c := &Cache{clock: clk}
	if size <= 0 {
		return c, nil
	}
	if shards <= 0 {
		shards = DefaultShards
	}
	shards = min(shards, size)
	per := (size + shards - 1) / shards

	c.shards = make([]*shard, shards)
	for i := range c.shards {
		l, err := newLRU(per, func(string, entry) { c.evictions.Add(1) })
		if err != nil {
			return nil, err
		}
		c.shards[i] = &shard{lru: l}
	}
	return c, nil
}

func (c *Cache) shardFor(fp string) *shard {
	return c.shards[xxhash.Sum64String(fp)%uint64(len(c.shards))]
}

// Get returns the cached result with Cached set, or a miss when the entry is
// absent or expired. Expired entries are removed.
func (c *Cache) Get(fp string) (domain.FilterResult, bool) {
	if len(c.shards) == 0 {
		c.misses.Add(1)
		return domain.FilterResult{}, false
	}
	now := c.clock.Now()
	s := c.shardFor(fp)

	s.mu.Lock()
	e, ok := s.lru.Get(fp)
	if ok && !now.Before(e.expiresAt) {
		s.lru.Remove(fp)
		ok = false
	}
	s.mu.Unlock()

	if !ok {
		c.misses.Add(1)
		return domain.FilterResult{}, false
	}
	c.hits.Add(1)
	r := e.result
	r.Cached = true
	return r, true
}

// Put stores or overwrites the result for fp for ttl. A non-positive ttl is
// ignored.
func (c *Cache) Put(fp string, r domain.FilterResult, ttl time.Duration) {
	if len(c.shards) == 0 || ttl <= 0 {
		return
	}
	r.Cached = false
	e := entry{result: r, expiresAt: c.clock.Now().Add(ttl)}
	s := c.shardFor(fp)
	s.mu.Lock()
	s.lru.Add(fp, e)
	s.mu.Unlock()
}

// Len returns the number of stored entries, expired ones included until
// they are swept.
func (c *Cache) Len() int {
	n := 0
	for _, s := range c.shards {
		s.mu.Lock()
		n += s.lru.Len()
		s.mu.Unlock()
	}
	return n
}

// Purge drops every entry and keeps the counters.
func (c *Cache) Purge() {
	for _, s := range c.shards {
		s.mu.Lock()
		s.lru.Purge()
		s.mu.Unlock()
	}
}

// Reset drops every entry and zeroes hit, miss and eviction counters.
func (c *Cache) Reset() {
	c.Purge()
	c.hits.Store(0)
	c.misses.Store(0)
	c.evictions.Store(0)
}

// Stats returns cumulative hit/miss/eviction counters. Evictions include
// capacity drops, expiry removals and purged entries.
func (c *Cache) Stats() (hits, misses, evictions uint64) {
	return c.hits.Load(), c.misses.Load(), c.evictions.Load()
}

// Sweep removes expired entries and returns how many it dropped.
func (c *Cache) Sweep() int {
	now := c.clock.Now()
	dropped := 0
	for _, s := range c.shards {
		s.mu.Lock()
		for _, k := range s.lru.Keys() {
			if e, ok := s.lru.Peek(k); ok && !now.Before(e.expiresAt) {
				s.lru.Remove(k)
				dropped++
			}
		}
		s.mu.Unlock()
	}
	return dropped
}

// Run sweeps every interval until ctx is done.
func (c *Cache) Run(ctx context.Context, interval time.Duration, logger log.Logger) {
	if len(c.shards) == 0 || interval <= 0 {
		return
	}
	if logger == nil {
		logger = log.GetLogger()
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := c.Sweep(); n > 0 {
				logger.Debug(map[string]any{"dropped": n, "size": c.Len()}, "decision_cache_swept")
			}
		}
	}
}
