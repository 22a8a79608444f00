package application

import (
	"context"
	"time"

	"github.com/google/uuid"

	charges "condo-billing/internal/charges/domain"
)

// AggregateAnnouncement names charge announcements in event envelopes.
const AggregateAnnouncement = "charge_announcement"

// ChargeIssued is stored together with a new announcement and its records.
type ChargeIssued struct {
	AnnouncementID string
	TenantID       string
	BuildingID     string
	Title          string
	Kind           charges.ChargeKind
	TotalAmount    float64
	Currency       string
	UnitCount      int
	ResidentUnits  int
	Recurrence     *charges.Recurrence
	OccurredAt     time.Time
}

// Aggregate identifies the announcement the event belongs to.
func (e ChargeIssued) Aggregate() (string, string) { return AggregateAnnouncement, e.AnnouncementID }

// ChargeVoided is stored together with the void state of an announcement.
type ChargeVoided struct {
	AnnouncementID string
	TenantID       string
	BuildingID     string
	Reason         string
	OccurredAt     time.Time
}

// Aggregate identifies the announcement the event belongs to.
func (e ChargeVoided) Aggregate() (string, string) { return AggregateAnnouncement, e.AnnouncementID }

// UnitProvider loads the units of a building.
type UnitProvider interface {
	ListUnits(ctx context.Context, buildingID string) ([]charges.Unit, error)
}

// AnnouncementRepository persists announcements with their unit records. Create and
// MarkVoided store the given event atomically with the state change, so a failed
// write leaves neither behind.
type AnnouncementRepository interface {
	Create(ctx context.Context, announcement *charges.Announcement, records []charges.UnitChargeRecord, event ChargeIssued) error
	GetByID(ctx context.Context, tenantID, id string) (*charges.Announcement, error)
	ListRecords(ctx context.Context, announcementID string) ([]charges.UnitChargeRecord, error)
	ListByBuilding(ctx context.Context, tenantID, buildingID string, limit int) ([]charges.Announcement, error)
	MarkVoided(ctx context.Context, announcement *charges.Announcement, event ChargeVoided) error
}

// ChargePublisher is handed lifecycle events once they are stored. Its failures do
// not undo the stored change.
type ChargePublisher interface {
	PublishChargeIssued(ctx context.Context, event ChargeIssued) error
	PublishChargeVoided(ctx context.Context, event ChargeVoided) error
}

// BuildingSettings are the per-building charge settings.
type BuildingSettings struct {
	Tolerance float64
	Currency  string
}

// SettingsFunc resolves settings for a building.
type SettingsFunc func(buildingID string) BuildingSettings

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock uses time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// IDGenerator produces announcement ids.
type IDGenerator interface {
	NewID() string
}

// UUIDGenerator produces random UUIDs.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string { return uuid.NewString() }
