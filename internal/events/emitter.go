package events

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// handlerTimeout bounds how long a single handler may spend on one event.
const handlerTimeout = 5 * time.Second

// InMemoryEventEmitter is a simple implementation of the EventEmitter
// interface that stores registered handlers in memory and dispatches events
// to them asynchronously. Dispatch is fire-and-forget: handler errors are
// logged, never returned, so a failed cache invalidation cannot fail the
// reschedule operation that triggered it.
type InMemoryEventEmitter struct {
	handlers []EventHandler
	mu       sync.RWMutex
	wg       sync.WaitGroup
	logger   *slog.Logger
}

// NewInMemoryEventEmitter creates a new instance of InMemoryEventEmitter.
func NewInMemoryEventEmitter(logger *slog.Logger) *InMemoryEventEmitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &InMemoryEventEmitter{
		handlers: make([]EventHandler, 0),
		logger:   logger.With("component", "in_memory_event_emitter"),
	}
}

// RegisterHandler adds a new event handler to receive events.
func (e *InMemoryEventEmitter) RegisterHandler(handler EventHandler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers = append(e.handlers, handler)
	e.logger.Debug("registered new event handler", "handler_count", len(e.handlers))
}

// EmitEvent publishes the given event to all registered handlers on a
// separate goroutine. The dispatch context is detached from the caller's so
// that a finished request cannot cancel an in-flight invalidation.
func (e *InMemoryEventEmitter) EmitEvent(ctx context.Context, event *CacheInvalidationEvent) {
	e.mu.RLock()
	handlers := make([]EventHandler, len(e.handlers))
	copy(handlers, e.handlers)
	e.mu.RUnlock()

	log := e.logger
	log.Debug("emitting event",
		"event_id", event.ID,
		"pattern", event.Pattern,
		"handler_count", len(handlers))

	if len(handlers) == 0 {
		log.Warn("no handlers registered for event",
			"event_id", event.ID,
			"pattern", event.Pattern)
		return
	}

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()

		dispatchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), handlerTimeout)
		defer cancel()

		for i, handler := range handlers {
			if err := handler.HandleEvent(dispatchCtx, event); err != nil {
				log.Error("handler failed to process event",
					"error", err,
					"handler_index", i,
					"event_id", event.ID,
					"pattern", event.Pattern)
			}
		}
	}()
}

// Wait blocks until all in-flight dispatches have finished. Used during
// shutdown and in tests.
func (e *InMemoryEventEmitter) Wait() {
	e.wg.Wait()
}
