package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lovableswim/swim-api/internal/repository"
)

func TestQueryKey(t *testing.T) {
	assert.Equal(t, "query:sessions:all", QueryKey(ScopeSessions, nil))

	a := QueryKey(ScopeSessions, map[string]string{"instructor": "i1"})
	b := QueryKey(ScopeSessions, map[string]string{"instructor": "i2"})
	assert.True(t, strings.HasPrefix(a, "query:sessions:"))
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, QueryKey(ScopeSessions, map[string]string{"instructor": "i1"}))
}

func TestCachedQueryHitsAndInvalidates(t *testing.T) {
	metrics := NewMetricsService()
	queries := NewQueryCache(NewCacheService(repository.NewMemoryCacheRepository(), metrics, time.Minute, nil, true), nil)
	ctx := context.Background()
	loads := 0
	load := func(context.Context) ([]string, error) {
		loads++
		return []string{"a", "b"}, nil
	}

	v, hit, err := cachedQuery(ctx, queries, QueryKey(ScopePackages, nil), load)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, []string{"a", "b"}, v)

	v, hit, err = cachedQuery(ctx, queries, QueryKey(ScopePackages, nil), load)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []string{"a", "b"}, v)
	assert.Equal(t, 1, loads)

	queries.Invalidate(ctx, ScopePackages)
	_, hit, err = cachedQuery(ctx, queries, QueryKey(ScopePackages, nil), load)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 2, loads)
	assert.InDelta(t, 1.0/3, metrics.Snapshot().CacheHitRatio, 0.001)
}

func TestCachedQueryDoesNotCacheErrors(t *testing.T) {
	queries := NewQueryCache(NewCacheService(repository.NewMemoryCacheRepository(), nil, time.Minute, nil, true), nil)
	ctx := context.Background()
	boom := errors.New("boom")

	_, _, err := cachedQuery(ctx, queries, "query:test:all", func(context.Context) (int, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)

	v, hit, err := cachedQuery(ctx, queries, "query:test:all", func(context.Context) (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 7, v)
}

func TestCachedQueryCollapsesConcurrentLoads(t *testing.T) {
	queries := NewQueryCache(nil, nil)
	ctx := context.Background()
	var loads int32
	release := make(chan struct{})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, _, err := cachedQuery(ctx, queries, "query:test:all", func(context.Context) (int, error) {
				atomic.AddInt32(&loads, 1)
				<-release
				return 42, nil
			})
			assert.NoError(t, err)
			assert.Equal(t, 42, v)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	assert.Equal(t, int32(1), atomic.LoadInt32(&loads))
}

func TestCachedQueryIgnoresCallerCancellation(t *testing.T) {
	queries := NewQueryCache(NewCacheService(repository.NewMemoryCacheRepository(), nil, time.Minute, nil, true), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	v, _, err := cachedQuery(ctx, queries, "query:test:all", func(ctx context.Context) (int, error) {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		return 3, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, v)
}

func TestCachedQueryDropsLoadRacingInvalidate(t *testing.T) {
	queries := NewQueryCache(NewCacheService(repository.NewMemoryCacheRepository(), nil, time.Minute, nil, true), nil)
	ctx := context.Background()
	key := QueryKey(ScopeSessions, nil)
	loads := 0

	v, _, err := cachedQuery(ctx, queries, key, func(ctx context.Context) (string, error) {
		loads++
		// A write lands while the read is in flight.
		queries.Invalidate(ctx, ScopeSessions)
		return "stale", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "stale", v)

	v, hit, err := cachedQuery(ctx, queries, key, func(context.Context) (string, error) {
		loads++
		return "fresh", nil
	})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, "fresh", v)
	assert.Equal(t, 2, loads)
}

func TestScopeOf(t *testing.T) {
	assert.Equal(t, ScopeSessions, scopeOf(QueryKey(ScopeSessions, map[string]string{"a": "b"})))
	assert.Equal(t, "odd", scopeOf("odd"))
}
