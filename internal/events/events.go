// Package events decouples the rescheduling engine from the cache
// collaborator: the executor emits invalidation events after commit, and a
// handler backed by the cache implementation consumes them. Failures stay on
// the cache side and never surface as operation failures.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// CacheInvalidationEvent asks the cache collaborator to drop every key
// matching Pattern. Patterns are student-scoped task-list keys, e.g.
// "tasks:ST001:*".
type CacheInvalidationEvent struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Pattern is the key pattern whose entries should be invalidated
	Pattern string `json:"pattern"`

	// CreatedAt is the timestamp when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// NewCacheInvalidationEvent creates a new CacheInvalidationEvent for the
// given key pattern.
func NewCacheInvalidationEvent(pattern string) *CacheInvalidationEvent {
	return &CacheInvalidationEvent{
		ID:        uuid.New(),
		Pattern:   pattern,
		CreatedAt: time.Now().UTC(),
	}
}

// EventHandler defines an interface for components that can handle events.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *CacheInvalidationEvent) error
}

// EventEmitter defines an interface for components that can emit events.
// This allows the executor to publish invalidations without direct knowledge
// of the cache implementation.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	EmitEvent(ctx context.Context, event *CacheInvalidationEvent)
}
