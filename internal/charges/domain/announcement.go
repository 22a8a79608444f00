package charges

import (
	"errors"
	"strings"
	"time"
)

const (
	AnnouncementStatusIssued = "issued"
	AnnouncementStatusVoided = "voided"
)

var (
	// ErrEmptyAnnouncementID is returned when an announcement has no id.
	ErrEmptyAnnouncementID = errors.New("charges: empty announcement id")
	// ErrEmptyBuildingID is returned when an announcement has no building.
	ErrEmptyBuildingID = errors.New("charges: empty building id")
	// ErrAnnouncementNotFound is returned when an announcement does not exist.
	ErrAnnouncementNotFound = errors.New("charges: announcement not found")
	// ErrAnnouncementVoided is returned when mutating a voided announcement.
	ErrAnnouncementVoided = errors.New("charges: announcement voided")
	// ErrNoTargetUnits is returned when issuing a charge that addresses no unit.
	ErrNoTargetUnits = errors.New("charges: no target units")
)

// Announcement is an issued charge announcement and the totals of its records.
type Announcement struct {
	ID          string      `json:"id"`
	TenantID    string      `json:"tenant_id"`
	BuildingID  string      `json:"building_id"`
	Title       string      `json:"title"`
	Category    string      `json:"category,omitempty"`
	Kind        ChargeKind  `json:"charge_kind"`
	PayerPolicy PayerPolicy `json:"payer_policy"`
	TargetScope TargetScope `json:"target_scope"`
	TotalAmount float64     `json:"total_amount"`
	Currency    string      `json:"currency"`
	Status      string      `json:"status"`
	Recurrence  *Recurrence `json:"recurrence,omitempty"`
	VoidReason  string      `json:"void_reason,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	VoidedAt    *time.Time  `json:"voided_at,omitempty"`
}

// NewAnnouncement builds an issued announcement from a successful aggregation.
func NewAnnouncement(id, tenantID, buildingID, title, currency string, req ChargeRequest, result *Result, now time.Time) (*Announcement, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrEmptyAnnouncementID
	}
	if strings.TrimSpace(buildingID) == "" {
		return nil, ErrEmptyBuildingID
	}
	if result == nil || len(result.Records) == 0 {
		return nil, ErrNoTargetUnits
	}
	return &Announcement{
		ID:          id,
		TenantID:    tenantID,
		BuildingID:  buildingID,
		Title:       title,
		Category:    req.Category,
		Kind:        req.Kind,
		PayerPolicy: req.PayerPolicy,
		TargetScope: req.TargetScope,
		TotalAmount: result.TotalAmount,
		Currency:    currency,
		Status:      AnnouncementStatusIssued,
		Recurrence:  result.Recurrence,
		CreatedAt:   now.UTC(),
	}, nil
}

// Void marks the announcement voided. Voiding twice is a no-op.
func (a *Announcement) Void(reason string, now time.Time) {
	if a == nil || a.Status == AnnouncementStatusVoided {
		return
	}
	a.Status = AnnouncementStatusVoided
	a.VoidReason = reason
	voidedAt := now.UTC()
	a.VoidedAt = &voidedAt
}

// PayerSummary splits the records of an announcement by responsible party.
type PayerSummary struct {
	OwnerTotal    float64 `json:"owner_total"`
	OwnerUnits    int     `json:"owner_units"`
	ResidentTotal float64 `json:"resident_total"`
	ResidentUnits int     `json:"resident_units"`
}

// SummarizeByPayer totals records per payer.
func SummarizeByPayer(records []UnitChargeRecord) PayerSummary {
	var owner, resident []float64
	for _, record := range records {
		if record.Payer == PayerResident {
			resident = append(resident, record.Amount)
			continue
		}
		owner = append(owner, record.Amount)
	}
	return PayerSummary{
		OwnerTotal:    SumAmounts(owner...),
		OwnerUnits:    len(owner),
		ResidentTotal: SumAmounts(resident...),
		ResidentUnits: len(resident),
	}
}
