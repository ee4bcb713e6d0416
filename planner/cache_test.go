package planner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPlanCacheHitAfterSet(t *testing.T) {
	cache := NewPlanCache(10, time.Minute)
	plan := &ExecutablePlan{Steps: []Step{&CollectingStep{Kind: CollectingSort}}}

	cache.SetWithOptions("match $x isa person;", plan, Options{})
	got, ok := cache.GetWithOptions("match $x isa person;", Options{})
	require.True(t, ok)
	require.Same(t, plan, got)

	hits, misses, size := cache.Stats()
	require.Equal(t, int64(1), hits)
	require.Equal(t, int64(0), misses)
	require.Equal(t, 1, size)
}

func TestPlanCacheMissOnDifferentOptions(t *testing.T) {
	cache := NewPlanCache(10, time.Minute)
	plan := &ExecutablePlan{}
	cache.SetWithOptions("match $x isa person;", plan, Options{EnableIntersectionMerging: true})

	_, ok := cache.GetWithOptions("match $x isa person;", Options{EnableIntersectionMerging: false})
	require.False(t, ok)
}

func TestPlanCacheExpiresAfterTTL(t *testing.T) {
	cache := NewPlanCache(10, time.Millisecond)
	plan := &ExecutablePlan{}
	cache.SetWithOptions("q", plan, Options{})
	time.Sleep(5 * time.Millisecond)

	_, ok := cache.GetWithOptions("q", Options{})
	require.False(t, ok)
}

func TestPlanCacheEvictsOldestWhenFull(t *testing.T) {
	cache := NewPlanCache(2, time.Minute)
	cache.SetWithOptions("a", &ExecutablePlan{}, Options{})
	time.Sleep(time.Millisecond)
	cache.SetWithOptions("b", &ExecutablePlan{}, Options{})
	time.Sleep(time.Millisecond)
	cache.SetWithOptions("c", &ExecutablePlan{}, Options{})

	_, hasA := cache.GetWithOptions("a", Options{})
	_, hasC := cache.GetWithOptions("c", Options{})
	require.False(t, hasA, "oldest entry should have been evicted once the cache hit maxSize")
	require.True(t, hasC)

	_, _, size := cache.Stats()
	require.LessOrEqual(t, size, 2)
}

func TestPlanCacheClearResetsStatsAndEntries(t *testing.T) {
	cache := NewPlanCache(10, time.Minute)
	cache.SetWithOptions("q", &ExecutablePlan{}, Options{})
	cache.GetWithOptions("q", Options{})
	cache.GetWithOptions("missing", Options{})

	cache.Clear()

	hits, misses, size := cache.Stats()
	require.Zero(t, hits)
	require.Zero(t, misses)
	require.Zero(t, size)
}

func TestNilPlanCacheAlwaysMisses(t *testing.T) {
	var cache *PlanCache
	_, ok := cache.GetWithOptions("q", Options{})
	require.False(t, ok)

	cache.SetWithOptions("q", &ExecutablePlan{}, Options{})

	hits, misses, size := cache.Stats()
	require.Zero(t, hits)
	require.Zero(t, misses)
	require.Zero(t, size)
}
