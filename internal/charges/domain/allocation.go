package charges

// ResolvePayer decides who is billed for unit under policy.
//
// A resident policy bills the tenant only when a landlord-owned unit has one;
// an owner who lives in the unit, a vacant unit and a landlord without a tenant
// all leave the owner as the de-facto resident.
func ResolvePayer(unit Unit, policy PayerPolicy) Payer {
	if policy != PayerPolicyResident {
		return PayerOwner
	}
	if unit.HasTenant() {
		return PayerResident
	}
	return PayerOwner
}
