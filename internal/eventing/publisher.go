package eventing

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
)

const relayBatch = 20

// OutboxWriter inserts outbox records. Stores backed by a database also hand out
// writers bound to an open transaction.
type OutboxWriter interface {
	Insert(ctx context.Context, env Envelope) (string, error)
}

// Publisher stages events in an outbox and relays pending records to the bus.
type Publisher struct {
	outbox   OutboxWriter
	dispatch *Dispatcher
	tenantID string
	logger   logrus.FieldLogger
}

// NewPublisher constructs a publisher. tenantID is used when the context carries none.
func NewPublisher(outbox OutboxWriter, dispatch *Dispatcher, tenantID string, logger logrus.FieldLogger) *Publisher {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Publisher{outbox: outbox, dispatch: dispatch, tenantID: tenantID, logger: logger}
}

// Stage builds the envelope for event from ctx metadata and writes it through writer,
// or through the publisher's own outbox when writer is nil. Nothing is relayed.
func (p *Publisher) Stage(ctx context.Context, writer OutboxWriter, event Event) (Envelope, error) {
	if p == nil {
		return Envelope{}, errors.New("eventing: nil publisher")
	}
	if writer == nil {
		writer = p.outbox
	}
	if writer == nil {
		return Envelope{}, errors.New("eventing: no outbox writer")
	}
	env, err := BuildEnvelope(event, MetaFromContext(ctx, p.tenantID))
	if err != nil {
		return Envelope{}, err
	}
	if _, err := writer.Insert(ctx, env); err != nil {
		return Envelope{}, err
	}
	return env, nil
}

// Publish stages event in the publisher's outbox and relays it.
func (p *Publisher) Publish(ctx context.Context, event Event) error {
	env, err := p.Stage(ctx, nil, event)
	if err != nil {
		return err
	}
	if err := p.Relay(ctx); err != nil {
		p.logger.WithError(err).WithField("event_type", env.EventType).Warn("outbox relay failed")
	}
	return nil
}

// Relay dispatches pending outbox records. Undelivered records stay pending for the
// next dispatch run.
func (p *Publisher) Relay(ctx context.Context) error {
	if p == nil || p.dispatch == nil {
		return nil
	}
	return p.dispatch.Dispatch(ctx, relayBatch)
}
