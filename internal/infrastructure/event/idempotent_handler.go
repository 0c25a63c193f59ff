package event

import (
	"context"
	"time"

	"github.com/merch/byom/internal/domain/shared"
	"go.uber.org/zap"
)

// DefaultEventDedupTTL is how long a handled event ID is remembered
const DefaultEventDedupTTL = 24 * time.Hour

// IdempotentHandler wraps an EventHandler so each event ID is handled once,
// even if the event is published more than once.
type IdempotentHandler struct {
	handler shared.EventHandler
	store   shared.IdempotencyStore
	ttl     time.Duration
	name    string
	logger  *zap.Logger
}

// NewIdempotentHandler wraps handler. name scopes the dedup keys so two
// handlers may both see the same event.
func NewIdempotentHandler(name string, handler shared.EventHandler, store shared.IdempotencyStore, ttl time.Duration, logger *zap.Logger) *IdempotentHandler {
	if ttl <= 0 {
		ttl = DefaultEventDedupTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IdempotentHandler{handler: handler, store: store, ttl: ttl, name: name, logger: logger}
}

// EventTypes returns the wrapped handler's event types
func (h *IdempotentHandler) EventTypes() []string {
	return h.handler.EventTypes()
}

// Handle runs the wrapped handler unless the event was already handled.
// A failed handler releases the key so a redelivery is processed again.
func (h *IdempotentHandler) Handle(ctx context.Context, ev shared.DomainEvent) error {
	key := "event:" + h.name + ":" + ev.EventID().String()
	fresh, err := h.store.MarkProcessed(ctx, key, h.ttl)
	if err != nil {
		// duplicate handling beats dropping the event
		h.logger.Warn("Idempotency check failed, handling event anyway",
			zap.String("event_id", ev.EventID().String()),
			zap.Error(err),
		)
	} else if !fresh {
		h.logger.Debug("Duplicate event skipped",
			zap.String("event_id", ev.EventID().String()),
			zap.String("event_type", ev.EventType()),
		)
		return nil
	}

	if err := h.handler.Handle(ctx, ev); err != nil {
		if relErr := h.store.Release(ctx, key); relErr != nil {
			h.logger.Warn("Failed to release idempotency key", zap.String("key", key), zap.Error(relErr))
		}
		return err
	}
	return nil
}

var _ shared.EventHandler = (*IdempotentHandler)(nil)
