package eventing

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Dispatcher sends outbox events to the in-process bus.
type Dispatcher struct {
	bus      Bus
	outbox   OutboxStore
	registry *Registry
	logger   logrus.FieldLogger
}

// OutboxStore provides access to outbox records.
type OutboxStore interface {
	ListPending(ctx context.Context, limit int) ([]OutboxRecord, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string) error
}

// OutboxRecord represents a pending outbox entry.
type OutboxRecord struct {
	ID       string
	Envelope Envelope
}

// NewDispatcher constructs a dispatcher.
func NewDispatcher(bus Bus, outbox OutboxStore, registry *Registry, logger logrus.FieldLogger) *Dispatcher {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Dispatcher{bus: bus, outbox: outbox, registry: registry, logger: logger}
}

// Dispatch pulls pending outbox messages and delivers them.
func (d *Dispatcher) Dispatch(ctx context.Context, limit int) error {
	if d == nil || d.outbox == nil || d.bus == nil || d.registry == nil {
		return nil
	}
	if limit <= 0 {
		limit = 50
	}
	records, err := d.outbox.ListPending(ctx, limit)
	if err != nil {
		return err
	}

	for _, record := range records {
		env := record.Envelope
		entry := d.logger.WithFields(logrus.Fields{
			"outbox_id":  record.ID,
			"event_id":   env.EventID,
			"event_type": env.EventType,
		})
		payload, err := d.registry.DecodePayload(env)
		if err != nil {
			entry.WithError(err).Error("outbox decode failed")
			_ = d.outbox.MarkFailed(ctx, record.ID)
			continue
		}

		ctxWithEnv := WithEnvelope(ctx, env)
		if err := d.bus.Publish(ctxWithEnv, payload); err != nil {
			entry.WithError(err).Error("outbox delivery failed")
			_ = d.outbox.MarkFailed(ctx, record.ID)
			continue
		}

		_ = d.outbox.MarkSent(ctx, record.ID)
	}
	return nil
}
