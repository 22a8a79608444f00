package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"condo-billing/internal/auth"
	"condo-billing/internal/charges/application"
	charges "condo-billing/internal/charges/domain"
	"condo-billing/internal/eventing"
)

// UnitRepository is an in-memory unit store for demo/testing.
type UnitRepository struct {
	mu    sync.RWMutex
	units map[string][]charges.Unit
}

// NewUnitRepository constructs a repository.
func NewUnitRepository() *UnitRepository {
	return &UnitRepository{units: make(map[string][]charges.Unit)}
}

// Put replaces the units of a building.
func (r *UnitRepository) Put(buildingID string, units ...charges.Unit) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.units[buildingID] = append([]charges.Unit(nil), units...)
}

// ListUnits returns a copy of the building's units in insertion order.
func (r *UnitRepository) ListUnits(ctx context.Context, buildingID string) ([]charges.Unit, error) {
	_ = ctx
	if buildingID == "" {
		return nil, charges.ErrEmptyBuildingID
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]charges.Unit(nil), r.units[buildingID]...), nil
}

// AnnouncementRepository is an in-memory announcement store for demo/testing.
type AnnouncementRepository struct {
	mu            sync.RWMutex
	announcements map[string]charges.Announcement
	records       map[string][]charges.UnitChargeRecord
	events        *eventing.Publisher
}

// AnnouncementOption configures an AnnouncementRepository.
type AnnouncementOption func(*AnnouncementRepository)

// WithOutbox stages lifecycle events in the publisher's outbox. A change is only
// kept when its event was staged.
func WithOutbox(events *eventing.Publisher) AnnouncementOption {
	return func(r *AnnouncementRepository) {
		r.events = events
	}
}

// NewAnnouncementRepository constructs a repository.
func NewAnnouncementRepository(opts ...AnnouncementOption) *AnnouncementRepository {
	r := &AnnouncementRepository{
		announcements: make(map[string]charges.Announcement),
		records:       make(map[string][]charges.UnitChargeRecord),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create stores an announcement with its records and event.
func (r *AnnouncementRepository) Create(ctx context.Context, announcement *charges.Announcement, records []charges.UnitChargeRecord, event application.ChargeIssued) error {
	if announcement == nil || announcement.ID == "" {
		return charges.ErrEmptyAnnouncementID
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.announcements[announcement.ID]; exists {
		return errors.New("memory: announcement already exists")
	}
	if err := r.stage(ctx, announcement, event); err != nil {
		return err
	}
	r.announcements[announcement.ID] = *announcement
	r.records[announcement.ID] = append([]charges.UnitChargeRecord(nil), records...)
	return nil
}

// GetByID loads an announcement scoped to a tenant.
func (r *AnnouncementRepository) GetByID(ctx context.Context, tenantID, id string) (*charges.Announcement, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	announcement, ok := r.announcements[id]
	if !ok || announcement.TenantID != tenantID {
		return nil, charges.ErrAnnouncementNotFound
	}
	return &announcement, nil
}

// ListRecords returns the records of an announcement.
func (r *AnnouncementRepository) ListRecords(ctx context.Context, announcementID string) ([]charges.UnitChargeRecord, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]charges.UnitChargeRecord(nil), r.records[announcementID]...), nil
}

// ListByBuilding returns announcements newest first.
func (r *AnnouncementRepository) ListByBuilding(ctx context.Context, tenantID, buildingID string, limit int) ([]charges.Announcement, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]charges.Announcement, 0)
	for _, announcement := range r.announcements {
		if announcement.TenantID != tenantID || announcement.BuildingID != buildingID {
			continue
		}
		result = append(result, announcement)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID > result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// MarkVoided persists the void state of an announcement with its event.
func (r *AnnouncementRepository) MarkVoided(ctx context.Context, announcement *charges.Announcement, event application.ChargeVoided) error {
	if announcement == nil {
		return charges.ErrEmptyAnnouncementID
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.announcements[announcement.ID]
	if !ok || stored.TenantID != announcement.TenantID {
		return charges.ErrAnnouncementNotFound
	}
	if stored.Status == charges.AnnouncementStatusVoided {
		return charges.ErrAnnouncementVoided
	}
	if err := r.stage(ctx, announcement, event); err != nil {
		return err
	}
	stored.Status = announcement.Status
	stored.VoidReason = announcement.VoidReason
	stored.VoidedAt = announcement.VoidedAt
	r.announcements[announcement.ID] = stored
	return nil
}

func (r *AnnouncementRepository) stage(ctx context.Context, announcement *charges.Announcement, event eventing.Event) error {
	if r.events == nil {
		return nil
	}
	ctx = eventing.WithBuildingID(eventing.WithTenantID(ctx, announcement.TenantID), announcement.BuildingID)
	_, err := r.events.Stage(ctx, nil, event)
	return err
}

// BuildingRepository maps buildings to tenants.
type BuildingRepository struct {
	mu      sync.RWMutex
	tenants map[string]string
}

// NewBuildingRepository constructs a repository.
func NewBuildingRepository() *BuildingRepository {
	return &BuildingRepository{tenants: make(map[string]string)}
}

// Put registers a building under a tenant.
func (r *BuildingRepository) Put(tenantID, buildingID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tenants[buildingID] = tenantID
}

// EnsureBuildingTenant implements auth.BuildingTenantChecker.
func (r *BuildingRepository) EnsureBuildingTenant(ctx context.Context, tenantID, buildingID string) error {
	_ = ctx
	r.mu.RLock()
	owner, ok := r.tenants[buildingID]
	r.mu.RUnlock()
	if !ok {
		return auth.ErrNotFound
	}
	if owner != tenantID {
		return auth.ErrTenantMismatch
	}
	return nil
}
