package events

import (
	"context"
	"fmt"
	"log/slog"
)

// PatternInvalidator is the cache capability the handler needs. The redis
// implementation lives in platform/rediscache; tests use fakes.
type PatternInvalidator interface {
	InvalidateByPattern(ctx context.Context, pattern string) error
}

// CacheInvalidationHandler applies invalidation events against a cache.
type CacheInvalidationHandler struct {
	invalidator PatternInvalidator
	logger      *slog.Logger
}

// NewCacheInvalidationHandler creates a handler over the given invalidator.
func NewCacheInvalidationHandler(invalidator PatternInvalidator, logger *slog.Logger) *CacheInvalidationHandler {
	if invalidator == nil {
		panic("invalidator cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CacheInvalidationHandler{
		invalidator: invalidator,
		logger:      logger.With("component", "cache_invalidation_handler"),
	}
}

// HandleEvent implements EventHandler.
func (h *CacheInvalidationHandler) HandleEvent(ctx context.Context, event *CacheInvalidationEvent) error {
	if err := h.invalidator.InvalidateByPattern(ctx, event.Pattern); err != nil {
		return fmt.Errorf("cache invalidation for pattern %q: %w", event.Pattern, err)
	}
	return nil
}

// LoggingInvalidationHandler records invalidation events without a cache
// backend. Used when no Redis address is configured.
type LoggingInvalidationHandler struct {
	logger *slog.Logger
}

// NewLoggingInvalidationHandler creates a log-only handler.
func NewLoggingInvalidationHandler(logger *slog.Logger) *LoggingInvalidationHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingInvalidationHandler{
		logger: logger.With("component", "logging_invalidation_handler"),
	}
}

// HandleEvent implements EventHandler.
func (h *LoggingInvalidationHandler) HandleEvent(_ context.Context, event *CacheInvalidationEvent) error {
	h.logger.Debug("cache invalidation requested with no cache configured",
		"event_id", event.ID,
		"pattern", event.Pattern)
	return nil
}
