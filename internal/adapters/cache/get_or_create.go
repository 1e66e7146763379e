package cache

import (
	"context"
	"fmt"

	"github.com/steplings/progression/internal/logging"
)

// GetOrCreate returns the cached value for key, or creates it with create.
//
// Concurrent callers for the same key wait for the first one to finish
// instead of calling create themselves.
//
// Returns data, created, error
func GetOrCreate[T any](ctx context.Context, cache Cache[T], key string, create func() (T, error)) (T, bool, error) {
	// Clean up the cache if we claim an entry, but don't set it
	// This allows other callers to try again
	claimed := false
	set := false
	defer func() {
		if claimed && !set {
			cache.delete(key)
		}
	}()

	logger := logging.FromContext(ctx).With("cacheKey", key)

	for {
		if err := ctx.Err(); err != nil {
			var empty T
			return empty, false, fmt.Errorf("gave up waiting for cache entry: %w", err)
		}

		result := cache.getOrClaim(key)

		if result.claimed {
			claimed = true

			logger.InfoContext(ctx, "Getting cache entry", "cache", "miss")

			data, err := create()
			if err != nil {
				var empty T
				return empty, false, fmt.Errorf("failed to create cache entry: %w", err)
			}

			cache.set(key, data)
			set = true

			return data, true, nil
		}

		if result.valid {
			logger.InfoContext(ctx, "Getting cache entry", "cache", "hit")
			return result.data, false, nil
		}

		logger.InfoContext(ctx, "Waiting for cache")
		cache.wait()
	}
}
