package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"condo-billing/internal/charges/application"
	charges "condo-billing/internal/charges/domain"
	"condo-billing/internal/eventing"
)

// TxOutbox hands out outbox writers bound to a transaction.
type TxOutbox interface {
	WithTx(tx *sql.Tx) eventing.OutboxWriter
}

// AnnouncementRepository persists charge announcements and their records.
type AnnouncementRepository struct {
	db     *sql.DB
	events *eventing.Publisher
	outbox TxOutbox
}

// AnnouncementOption configures an AnnouncementRepository.
type AnnouncementOption func(*AnnouncementRepository)

// WithOutbox stages lifecycle events in outbox inside the transaction of the change.
func WithOutbox(events *eventing.Publisher, outbox TxOutbox) AnnouncementOption {
	return func(r *AnnouncementRepository) {
		r.events = events
		r.outbox = outbox
	}
}

// NewAnnouncementRepository constructs a repository.
func NewAnnouncementRepository(db *sql.DB, opts ...AnnouncementOption) *AnnouncementRepository {
	r := &AnnouncementRepository{db: db}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create inserts the announcement, its records and its event in one transaction.
func (r *AnnouncementRepository) Create(ctx context.Context, announcement *charges.Announcement, records []charges.UnitChargeRecord, event application.ChargeIssued) error {
	if r == nil || r.db == nil {
		return errors.New("announcement repo: nil db")
	}
	if announcement == nil {
		return errors.New("announcement repo: nil announcement")
	}
	recurrence, err := marshalRecurrence(announcement.Recurrence)
	if err != nil {
		return err
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
INSERT INTO charge_announcements (
	id, tenant_id, building_id, title, category, charge_kind, payer_policy, target_scope,
	total_amount, currency, status, recurrence, void_reason, created_at
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14
)`,
		announcement.ID, announcement.TenantID, announcement.BuildingID, announcement.Title, announcement.Category,
		string(announcement.Kind), string(announcement.PayerPolicy), string(announcement.TargetScope),
		announcement.TotalAmount, announcement.Currency, announcement.Status, recurrence, announcement.VoidReason,
		announcement.CreatedAt,
	)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	for i, record := range records {
		_, err := tx.ExecContext(ctx, `
INSERT INTO charge_records (
	announcement_id, position, unit_id, unit_number, amount, payer
) VALUES ($1,$2,$3,$4,$5,$6)`,
			announcement.ID, i, record.UnitID, record.UnitNumber, record.Amount, string(record.Payer))
		if err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	if err := r.stage(ctx, tx, announcement, event); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// GetByID fetches an announcement scoped to a tenant.
func (r *AnnouncementRepository) GetByID(ctx context.Context, tenantID, id string) (*charges.Announcement, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("announcement repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT id, tenant_id, building_id, title, category, charge_kind, payer_policy, target_scope,
	total_amount, currency, status, recurrence, void_reason, created_at, voided_at
FROM charge_announcements
WHERE tenant_id = $1 AND id = $2
LIMIT 1`, tenantID, id)
	announcement, err := scanAnnouncement(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, charges.ErrAnnouncementNotFound
	}
	return announcement, err
}

// ListRecords returns the records of an announcement in issue order.
func (r *AnnouncementRepository) ListRecords(ctx context.Context, announcementID string) ([]charges.UnitChargeRecord, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("announcement repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT unit_id, unit_number, amount, payer
FROM charge_records
WHERE announcement_id = $1
ORDER BY position ASC`, announcementID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []charges.UnitChargeRecord
	for rows.Next() {
		var record charges.UnitChargeRecord
		var payer string
		if err := rows.Scan(&record.UnitID, &record.UnitNumber, &record.Amount, &payer); err != nil {
			return nil, err
		}
		record.Payer = charges.Payer(payer)
		result = append(result, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ListByBuilding returns the newest announcements of a building.
func (r *AnnouncementRepository) ListByBuilding(ctx context.Context, tenantID, buildingID string, limit int) ([]charges.Announcement, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("announcement repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, tenant_id, building_id, title, category, charge_kind, payer_policy, target_scope,
	total_amount, currency, status, recurrence, void_reason, created_at, voided_at
FROM charge_announcements
WHERE tenant_id = $1 AND building_id = $2
ORDER BY created_at DESC, id DESC
LIMIT $3`, tenantID, buildingID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]charges.Announcement, 0)
	for rows.Next() {
		announcement, err := scanAnnouncement(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *announcement)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// MarkVoided persists the void state of an announcement and its event in one transaction.
func (r *AnnouncementRepository) MarkVoided(ctx context.Context, announcement *charges.Announcement, event application.ChargeVoided) error {
	if r == nil || r.db == nil {
		return errors.New("announcement repo: nil db")
	}
	if announcement == nil {
		return errors.New("announcement repo: nil announcement")
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `
UPDATE charge_announcements
SET status = $1, void_reason = $2, voided_at = $3
WHERE id = $4 AND tenant_id = $5 AND status <> $1`,
		announcement.Status, announcement.VoidReason, announcement.VoidedAt, announcement.ID, announcement.TenantID)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	if affected == 0 {
		_ = tx.Rollback()
		return charges.ErrAnnouncementVoided
	}
	if err := r.stage(ctx, tx, announcement, event); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (r *AnnouncementRepository) stage(ctx context.Context, tx *sql.Tx, announcement *charges.Announcement, event eventing.Event) error {
	if r.events == nil || r.outbox == nil {
		return nil
	}
	ctx = eventing.WithBuildingID(eventing.WithTenantID(ctx, announcement.TenantID), announcement.BuildingID)
	_, err := r.events.Stage(ctx, r.outbox.WithTx(tx), event)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAnnouncement(row rowScanner) (*charges.Announcement, error) {
	var announcement charges.Announcement
	var kind, policy, scope string
	var recurrence []byte
	var voidedAt sql.NullTime
	if err := row.Scan(
		&announcement.ID, &announcement.TenantID, &announcement.BuildingID, &announcement.Title, &announcement.Category,
		&kind, &policy, &scope, &announcement.TotalAmount, &announcement.Currency, &announcement.Status,
		&recurrence, &announcement.VoidReason, &announcement.CreatedAt, &voidedAt,
	); err != nil {
		return nil, err
	}
	announcement.Kind = charges.ChargeKind(kind)
	announcement.PayerPolicy = charges.PayerPolicy(policy)
	announcement.TargetScope = charges.TargetScope(scope)
	announcement.CreatedAt = announcement.CreatedAt.UTC()
	if voidedAt.Valid {
		at := voidedAt.Time.UTC()
		announcement.VoidedAt = &at
	}
	if len(recurrence) > 0 {
		var value charges.Recurrence
		if err := json.Unmarshal(recurrence, &value); err != nil {
			return nil, err
		}
		announcement.Recurrence = &value
	}
	return &announcement, nil
}

func marshalRecurrence(recurrence *charges.Recurrence) ([]byte, error) {
	if recurrence == nil {
		return nil, nil
	}
	return json.Marshal(recurrence)
}
