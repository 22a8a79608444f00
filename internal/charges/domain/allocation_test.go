package charges

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolvePayer_DecisionTable(t *testing.T) {
	cases := []struct {
		policy    PayerPolicy
		ownerType OwnerType
		tenant    bool
		want      Payer
	}{
		{PayerPolicyOwner, OwnerTypeResident, true, PayerOwner},
		{PayerPolicyOwner, OwnerTypeResident, false, PayerOwner},
		{PayerPolicyOwner, OwnerTypeLandlord, true, PayerOwner},
		{PayerPolicyOwner, OwnerTypeLandlord, false, PayerOwner},
		{PayerPolicyOwner, OwnerTypeEmpty, true, PayerOwner},
		{PayerPolicyOwner, OwnerTypeEmpty, false, PayerOwner},
		{PayerPolicyOwner, "", true, PayerOwner},
		{PayerPolicyOwner, "", false, PayerOwner},
		{PayerPolicyResident, OwnerTypeResident, true, PayerOwner},
		{PayerPolicyResident, OwnerTypeResident, false, PayerOwner},
		{PayerPolicyResident, OwnerTypeLandlord, true, PayerResident},
		{PayerPolicyResident, OwnerTypeLandlord, false, PayerOwner},
		{PayerPolicyResident, OwnerTypeEmpty, true, PayerOwner},
		{PayerPolicyResident, OwnerTypeEmpty, false, PayerOwner},
		{PayerPolicyResident, "", true, PayerOwner},
		{PayerPolicyResident, "", false, PayerOwner},
		{"tenant", OwnerTypeLandlord, true, PayerOwner},
		{"", OwnerTypeLandlord, true, PayerOwner},
	}

	for _, tc := range cases {
		unit := Unit{ID: "u1", OwnerType: tc.ownerType}
		if tc.tenant {
			unit.TenantName = "Tenant Name"
		}
		got := ResolvePayer(unit, tc.policy)
		assert.Equalf(t, tc.want, got, "policy=%q ownerType=%q tenant=%v", tc.policy, tc.ownerType, tc.tenant)
	}
}

func TestResolvePayer_LandlordWithTenant(t *testing.T) {
	unit := Unit{ID: "u1", OwnerType: OwnerTypeLandlord, TenantName: "Jane"}
	assert.Equal(t, PayerResident, ResolvePayer(unit, PayerPolicyResident))
}

func TestResolvePayer_LandlordWithoutTenant(t *testing.T) {
	unit := Unit{ID: "u1", OwnerType: OwnerTypeLandlord}
	assert.Equal(t, PayerOwner, ResolvePayer(unit, PayerPolicyResident))
}

func TestResolvePayer_IgnoresOccupancyAndAttributes(t *testing.T) {
	base := Unit{ID: "u1", OwnerType: OwnerTypeLandlord, TenantName: "Jane"}
	variant := base
	variant.IsOccupied = !base.IsOccupied
	variant.Area = 120
	variant.ResidentCount = 4
	assert.Equal(t, ResolvePayer(base, PayerPolicyResident), ResolvePayer(variant, PayerPolicyResident))
}

func TestResolvePayer_BlankTenantNameIsNoTenant(t *testing.T) {
	unit := Unit{ID: "u1", OwnerType: OwnerTypeLandlord, TenantName: "   "}
	assert.Equal(t, PayerOwner, ResolvePayer(unit, PayerPolicyResident))
}
