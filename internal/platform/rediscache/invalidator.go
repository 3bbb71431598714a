// Package rediscache implements the task-list cache invalidation
// collaborator on top of Redis. The rescheduling engine only depends on the
// InvalidateByPattern capability; this package is the one place that knows
// the cache lives in Redis.
package rediscache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// scanBatchSize is the COUNT hint passed to SCAN.
const scanBatchSize = 100

// NewClient creates and returns a new Redis client.
func NewClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  1 * time.Second,
		WriteTimeout: 1 * time.Second,
		PoolSize:     10,
	})
}

// Invalidator deletes cached task-list entries by key pattern.
type Invalidator struct {
	client *redis.Client
	logger *slog.Logger
}

// NewInvalidator creates an Invalidator over the given client.
// If logger is nil, a default logger will be used.
func NewInvalidator(client *redis.Client, logger *slog.Logger) *Invalidator {
	if client == nil {
		panic("client cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Invalidator{
		client: client,
		logger: logger.With(slog.String("component", "cache_invalidator")),
	}
}

// InvalidateByPattern removes every key matching the glob-style pattern,
// scanning in batches to avoid blocking Redis. Returns the first error
// encountered; callers treat failures as log-only.
func (i *Invalidator) InvalidateByPattern(ctx context.Context, pattern string) error {
	var cursor uint64
	var deleted int

	for {
		keys, next, err := i.client.Scan(ctx, cursor, pattern, scanBatchSize).Result()
		if err != nil {
			return fmt.Errorf("redis scan for pattern %q: %w", pattern, err)
		}

		if len(keys) > 0 {
			if err := i.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("redis del for pattern %q: %w", pattern, err)
			}
			deleted += len(keys)
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	i.logger.Debug("invalidated cache keys",
		slog.String("pattern", pattern),
		slog.Int("deleted", deleted))

	return nil
}
