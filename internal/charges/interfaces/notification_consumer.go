package interfaces

import (
	"context"

	"github.com/sirupsen/logrus"

	"condo-billing/internal/charges/application"
	"condo-billing/internal/eventing"
)

const notificationConsumerName = "charges.notification"

// NotificationConsumer hands issued charges to resident notification.
type NotificationConsumer struct {
	logger logrus.FieldLogger
}

// NewNotificationConsumer constructs a consumer.
func NewNotificationConsumer(logger logrus.FieldLogger) *NotificationConsumer {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &NotificationConsumer{logger: logger}
}

// Subscribe registers the consumer on bus. store may be nil.
func (c *NotificationConsumer) Subscribe(bus eventing.Bus, store eventing.ProcessedStore) {
	eventing.Subscribe[application.ChargeIssued](bus, notificationConsumerName, c.HandleChargeIssued, store)
}

// HandleChargeIssued logs the notification hand-off for an issued charge.
func (c *NotificationConsumer) HandleChargeIssued(ctx context.Context, issued application.ChargeIssued) error {
	fields := logrus.Fields{
		"announcement_id": issued.AnnouncementID,
		"building_id":     issued.BuildingID,
		"units":           issued.UnitCount,
		"resident_units":  issued.ResidentUnits,
	}
	if env, found := eventing.EnvelopeFromContext(ctx); found {
		fields["event_id"] = env.EventID
		fields["tenant_id"] = env.TenantID
		fields["correlation_id"] = env.CorrelationID
	}
	c.logger.WithFields(fields).Info("charge notification queued")
	return nil
}
