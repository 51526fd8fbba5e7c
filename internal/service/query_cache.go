package service

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Query scopes. Each write invalidates the scopes whose listings it changes.
const (
	ScopeClassTypes = "class_types"
	ScopePackages   = "packages"
	ScopeSessions   = "sessions"
	ScopeSettings   = "settings"
	ScopeSchedule   = "schedule"
)

// QueryCache caches read results by key and collapses concurrent identical
// reads into one storage call.
type QueryCache struct {
	cache  *CacheService
	group  singleflight.Group
	logger *zap.Logger

	mu          sync.Mutex
	generations map[string]uint64
}

// NewQueryCache builds a query cache on top of the cache service. A nil or
// disabled cache still de-duplicates in-flight reads.
func NewQueryCache(cache *CacheService, logger *zap.Logger) *QueryCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueryCache{cache: cache, logger: logger, generations: map[string]uint64{}}
}

// QueryKey builds the cache key for a scope and its parameters.
func QueryKey(scope string, params interface{}) string {
	if params == nil {
		return fmt.Sprintf("query:%s:all", scope)
	}
	raw, err := json.Marshal(params)
	if err != nil {
		return fmt.Sprintf("query:%s:%v", scope, params)
	}
	sum := sha1.Sum(raw)
	return fmt.Sprintf("query:%s:%s", scope, hex.EncodeToString(sum[:8]))
}

// Invalidate drops every cached query of the given scopes. Loads of those
// scopes that are still in flight no longer write their result back.
func (q *QueryCache) Invalidate(ctx context.Context, scopes ...string) {
	if q == nil {
		return
	}
	for _, scope := range scopes {
		q.bump(scope)
		if err := q.cache.Invalidate(ctx, fmt.Sprintf("query:%s:*", scope)); err != nil {
			q.logger.Warn("query invalidation failed", zap.String("scope", scope), zap.Error(err))
		}
	}
}

func (q *QueryCache) generation(scope string) uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.generations[scope]
}

func (q *QueryCache) bump(scope string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.generations[scope]++
}

// scopeOf extracts the scope from a key built by QueryKey.
func scopeOf(key string) string {
	parts := strings.SplitN(key, ":", 3)
	if len(parts) < 2 {
		return key
	}
	return parts[1]
}

// cachedQuery returns the cached value for key or loads it once for all
// concurrent callers. The shared load is detached from the first caller's
// cancellation. The second result reports a cache hit.
func cachedQuery[T any](ctx context.Context, q *QueryCache, key string, load func(context.Context) (T, error)) (T, bool, error) {
	if q == nil {
		v, err := load(ctx)
		return v, false, err
	}

	var cached T
	if hit, err := q.cache.Get(ctx, key, &cached); err == nil && hit {
		return cached, true, nil
	}

	scope := scopeOf(key)
	gen := q.generation(scope)
	v, err, _ := q.group.Do(fmt.Sprintf("%s@%d", key, gen), func() (interface{}, error) {
		loadCtx := context.WithoutCancel(ctx)
		loaded, err := load(loadCtx)
		if err != nil {
			return nil, err
		}
		if q.generation(scope) == gen {
			_ = q.cache.Set(loadCtx, key, loaded, 0)
		}
		return loaded, nil
	})
	if err != nil {
		var zero T
		return zero, false, err
	}
	return v.(T), false, nil
}
