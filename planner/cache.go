package planner

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Options are the plan-affecting toggles a caller passes alongside a
// query's source text; they participate in the cache key because two
// identical query texts compiled under different toggles must not share
// a plan.
type Options struct {
	EnableIntersectionMerging bool
	EnableNestedStepReuse     bool
}

// PlanCache caches ExecutablePlans keyed by a query's source text and
// compile options, avoiding repeated annotation/compilation for
// identical queries. Keying on source text rather than the ir.Block
// itself sidesteps structurally hashing a pointer-heavy IR graph - the
// caller already has the text before it builds a Block, so this is the
// cheaper and more natural identity to hash.
type PlanCache struct {
	mu    sync.RWMutex
	cache map[uint64]*cachedPlan

	hits   int64
	misses int64

	maxSize int
	ttl     time.Duration
}

type cachedPlan struct {
	plan      *ExecutablePlan
	timestamp time.Time
}

// NewPlanCache returns a cache holding at most maxSize live entries,
// each expiring after ttl. Non-positive values fall back to defaults of
// 1000 entries and a 5 minute TTL.
func NewPlanCache(maxSize int, ttl time.Duration) *PlanCache {
	if maxSize <= 0 {
		maxSize = 1000
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &PlanCache{
		cache:   make(map[uint64]*cachedPlan),
		maxSize: maxSize,
		ttl:     ttl,
	}
}

// GetWithOptions returns the cached plan for (queryText, opts), or
// ok=false on a miss or an expired entry. A nil receiver always misses,
// so callers may leave plan caching disabled by passing a nil *PlanCache.
func (c *PlanCache) GetWithOptions(queryText string, opts Options) (*ExecutablePlan, bool) {
	if c == nil {
		return nil, false
	}
	key := computeKey(queryText, opts)

	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.cache[key]
	if !ok {
		atomic.AddInt64(&c.misses, 1)
		return nil, false
	}
	if time.Since(entry.timestamp) > c.ttl {
		// Lazy eviction: don't upgrade to a write lock on the read path.
		atomic.AddInt64(&c.misses, 1)
		return nil, false
	}
	atomic.AddInt64(&c.hits, 1)
	return entry.plan, true
}

// SetWithOptions stores plan under the key for (queryText, opts),
// evicting expired and then oldest entries if the cache is full.
func (c *PlanCache) SetWithOptions(queryText string, plan *ExecutablePlan, opts Options) {
	if c == nil || plan == nil {
		return
	}
	key := computeKey(queryText, opts)

	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.cache) >= c.maxSize {
		c.evictExpired()
		if len(c.cache) >= c.maxSize {
			c.evictOldest()
		}
	}
	c.cache[key] = &cachedPlan{plan: plan, timestamp: time.Now()}
}

// Clear empties the cache and resets hit/miss counters.
func (c *PlanCache) Clear() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = make(map[uint64]*cachedPlan)
	atomic.StoreInt64(&c.hits, 0)
	atomic.StoreInt64(&c.misses, 0)
}

// Stats reports cumulative hit/miss counts and the current entry count.
func (c *PlanCache) Stats() (hits, misses int64, size int) {
	if c == nil {
		return 0, 0, 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return atomic.LoadInt64(&c.hits), atomic.LoadInt64(&c.misses), len(c.cache)
}

func computeKey(queryText string, opts Options) uint64 {
	h := xxhash.New()
	fmt.Fprintf(h, "Q:%s;IM:%v;NR:%v", queryText, opts.EnableIntersectionMerging, opts.EnableNestedStepReuse)
	return h.Sum64()
}

func (c *PlanCache) evictExpired() {
	now := time.Now()
	for key, entry := range c.cache {
		if now.Sub(entry.timestamp) > c.ttl {
			delete(c.cache, key)
		}
	}
}

func (c *PlanCache) evictOldest() {
	var oldestKey uint64
	var oldestTime time.Time
	found := false

	for key, entry := range c.cache {
		if !found || entry.timestamp.Before(oldestTime) {
			oldestKey, oldestTime, found = key, entry.timestamp, true
		}
	}
	if found {
		delete(c.cache, oldestKey)
	}
}
