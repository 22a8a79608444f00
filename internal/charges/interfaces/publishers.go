package interfaces

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"condo-billing/internal/charges/application"
	"condo-billing/internal/eventing"
)

// OutboxPublisher relays charge events that the announcement repository staged in
// the outbox. Records it cannot deliver are picked up by the dispatch loop.
type OutboxPublisher struct {
	publisher *eventing.Publisher
}

// NewOutboxPublisher constructs an outbox publisher.
func NewOutboxPublisher(publisher *eventing.Publisher) *OutboxPublisher {
	return &OutboxPublisher{publisher: publisher}
}

// PublishChargeIssued relays pending outbox records, including the issued event.
func (p *OutboxPublisher) PublishChargeIssued(ctx context.Context, event application.ChargeIssued) error {
	return p.relay(ctx, event.AnnouncementID)
}

// PublishChargeVoided relays pending outbox records, including the voided event.
func (p *OutboxPublisher) PublishChargeVoided(ctx context.Context, event application.ChargeVoided) error {
	return p.relay(ctx, event.AnnouncementID)
}

func (p *OutboxPublisher) relay(ctx context.Context, announcementID string) error {
	if p == nil || p.publisher == nil {
		return nil
	}
	if err := p.publisher.Relay(ctx); err != nil {
		return fmt.Errorf("relay events of announcement %s: %w", announcementID, err)
	}
	return nil
}

// LoggingPublisher logs charge events.
type LoggingPublisher struct {
	logger logrus.FieldLogger
}

// NewLoggingPublisher constructs a logging publisher.
func NewLoggingPublisher(logger logrus.FieldLogger) *LoggingPublisher {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &LoggingPublisher{logger: logger}
}

// PublishChargeIssued logs the event.
func (p *LoggingPublisher) PublishChargeIssued(ctx context.Context, event application.ChargeIssued) error {
	_ = ctx
	if p == nil {
		return errors.New("charge publisher: nil publisher")
	}
	p.logger.WithFields(logrus.Fields{
		"announcement_id": event.AnnouncementID,
		"building_id":     event.BuildingID,
		"units":           event.UnitCount,
		"total":           event.TotalAmount,
		"currency":        event.Currency,
	}).Info("charge issued event")
	return nil
}

// PublishChargeVoided logs the event.
func (p *LoggingPublisher) PublishChargeVoided(ctx context.Context, event application.ChargeVoided) error {
	_ = ctx
	if p == nil {
		return errors.New("charge publisher: nil publisher")
	}
	p.logger.WithFields(logrus.Fields{
		"announcement_id": event.AnnouncementID,
		"building_id":     event.BuildingID,
		"reason":          event.Reason,
	}).Info("charge voided event")
	return nil
}
