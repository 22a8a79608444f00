package eventing

import (
	"context"
	"fmt"
)

// ProcessedStore remembers which envelopes a consumer has handled.
type ProcessedStore interface {
	HasProcessed(ctx context.Context, eventID, consumerName string) (bool, error)
	MarkProcessed(ctx context.Context, eventID, consumerName string) error
}

// Handler handles a decoded event of type T.
type Handler[T any] func(ctx context.Context, event T) error

// Subscribe registers handler as consumerName for events of type T. Values and
// pointers of T are both accepted. With a non-nil store each envelope reaches the
// consumer at most once.
func Subscribe[T any](bus Bus, consumerName string, handler Handler[T], store ProcessedStore) {
	eventType := EventTypeOf[T]()
	var h EventHandler = func(ctx context.Context, event any) error {
		switch typed := event.(type) {
		case T:
			return handler(ctx, typed)
		case *T:
			if typed != nil {
				return handler(ctx, *typed)
			}
		}
		return fmt.Errorf("%w: %s expects %s, got %T", ErrInvalidEventType, consumerName, eventType, event)
	}
	if store != nil {
		h = Once(consumerName, h, store)
	}
	bus.Subscribe(eventType, h)
}

// Once skips envelopes consumerName already handled. Events published without an
// envelope in the context are always handled. A failed handler leaves the envelope
// unmarked so the next delivery retries it.
func Once(consumerName string, handler EventHandler, store ProcessedStore) EventHandler {
	return func(ctx context.Context, event any) error {
		env, ok := EnvelopeFromContext(ctx)
		if !ok || env.EventID == "" {
			return handler(ctx, event)
		}
		done, err := store.HasProcessed(ctx, env.EventID, consumerName)
		if err != nil {
			return fmt.Errorf("eventing: %s processed check: %w", consumerName, err)
		}
		if done {
			return nil
		}
		if err := handler(ctx, event); err != nil {
			return err
		}
		return store.MarkProcessed(ctx, env.EventID, consumerName)
	}
}
