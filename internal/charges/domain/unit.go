package charges

import "strings"

// OwnerType describes who holds a unit relative to who lives in it.
type OwnerType string

const (
	OwnerTypeResident OwnerType = "resident"
	OwnerTypeLandlord OwnerType = "landlord"
	OwnerTypeEmpty    OwnerType = "empty"
)

// Unit is a billable physical unit in a building.
type Unit struct {
	ID            string    `json:"id" yaml:"id"`
	UnitNumber    string    `json:"unit_number" yaml:"unit_number"`
	Area          float64   `json:"area" yaml:"area"`
	ResidentCount float64   `json:"resident_count" yaml:"resident_count"`
	ParkingCount  float64   `json:"parking_count" yaml:"parking_count"`
	StorageArea   float64   `json:"storage_area" yaml:"storage_area"`
	OwnerType     OwnerType `json:"owner_type,omitempty" yaml:"owner_type,omitempty"`
	TenantName    string    `json:"tenant_name,omitempty" yaml:"tenant_name,omitempty"`
	IsOccupied    bool      `json:"is_occupied" yaml:"is_occupied"`
}

// HasTenant reports whether a paying resident distinct from the owner occupies the unit.
func (u Unit) HasTenant() bool {
	return u.OwnerType == OwnerTypeLandlord && strings.TrimSpace(u.TenantName) != ""
}
