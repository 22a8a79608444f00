package auth

import (
	"context"
	"errors"
)

var (
	// ErrTenantMismatch indicates the resource belongs to a different tenant.
	ErrTenantMismatch = errors.New("auth: tenant mismatch")
	// ErrNotFound indicates the resource does not exist.
	ErrNotFound = errors.New("auth: resource not found")
)

// BuildingTenantChecker validates building ownership by tenant.
type BuildingTenantChecker interface {
	EnsureBuildingTenant(ctx context.Context, tenantID, buildingID string) error
}
