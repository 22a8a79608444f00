package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"condo-billing/internal/auth"
	charges "condo-billing/internal/charges/domain"
)

// UnitRepository loads units from Postgres.
type UnitRepository struct {
	db *sql.DB
}

// NewUnitRepository constructs a repository.
func NewUnitRepository(db *sql.DB) *UnitRepository {
	return &UnitRepository{db: db}
}

// ListUnits returns the units of a building ordered by unit number.
func (r *UnitRepository) ListUnits(ctx context.Context, buildingID string) ([]charges.Unit, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("unit repo: nil db")
	}
	if buildingID == "" {
		return nil, charges.ErrEmptyBuildingID
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, unit_number, area, resident_count, parking_count, storage_area,
	owner_type, tenant_name, is_occupied
FROM units
WHERE building_id = $1
ORDER BY unit_number ASC, id ASC`, buildingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []charges.Unit
	for rows.Next() {
		var unit charges.Unit
		var ownerType string
		if err := rows.Scan(
			&unit.ID, &unit.UnitNumber, &unit.Area, &unit.ResidentCount, &unit.ParkingCount, &unit.StorageArea,
			&ownerType, &unit.TenantName, &unit.IsOccupied,
		); err != nil {
			return nil, err
		}
		unit.OwnerType = charges.OwnerType(strings.ToLower(strings.TrimSpace(ownerType)))
		result = append(result, unit)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// BuildingRepository resolves building ownership.
type BuildingRepository struct {
	db *sql.DB
}

// NewBuildingRepository constructs a repository.
func NewBuildingRepository(db *sql.DB) *BuildingRepository {
	return &BuildingRepository{db: db}
}

// EnsureBuildingTenant implements auth.BuildingTenantChecker.
func (r *BuildingRepository) EnsureBuildingTenant(ctx context.Context, tenantID, buildingID string) error {
	if r == nil || r.db == nil {
		return errors.New("building repo: nil db")
	}
	var owner string
	err := r.db.QueryRowContext(ctx, `SELECT tenant_id FROM buildings WHERE id = $1`, buildingID).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return auth.ErrNotFound
	}
	if err != nil {
		return err
	}
	if owner != tenantID {
		return auth.ErrTenantMismatch
	}
	return nil
}
