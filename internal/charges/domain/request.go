package charges

import "time"

// ChargeKind selects how per-unit amounts are derived.
type ChargeKind string

const (
	ChargeKindFixed   ChargeKind = "fixed"
	ChargeKindCustom  ChargeKind = "custom"
	ChargeKindFormula ChargeKind = "formula"
)

// Valid returns true when the kind is supported.
func (k ChargeKind) Valid() bool {
	switch k {
	case ChargeKindFixed, ChargeKindCustom, ChargeKindFormula:
		return true
	default:
		return false
	}
}

// CategoryConstruction marks announcements that are always priced by formula rules.
const CategoryConstruction = "construction"

// PayerPolicy is the billing party preference declared on an announcement.
type PayerPolicy string

const (
	PayerPolicyOwner    PayerPolicy = "owner"
	PayerPolicyResident PayerPolicy = "resident"
)

// Payer is the party resolved as financially responsible for one unit.
type Payer string

const (
	PayerOwner    Payer = "owner"
	PayerResident Payer = "resident"
)

// TargetScope selects which units an announcement addresses.
type TargetScope string

const (
	TargetScopeAll      TargetScope = "all"
	TargetScopeOccupied TargetScope = "occupied"
	TargetScopeEmpty    TargetScope = "empty"
	TargetScopeCustom   TargetScope = "custom"
)

// ConditionType gates a formula parameter on the unit attribute value.
type ConditionType string

const (
	ConditionAlways   ConditionType = "always"
	ConditionMoreThan ConditionType = "more_than"
	ConditionLessThan ConditionType = "less_than"
	ConditionEqual    ConditionType = "equal"
)

// Valid returns true when the condition type is supported.
func (c ConditionType) Valid() bool {
	switch c {
	case ConditionAlways, ConditionMoreThan, ConditionLessThan, ConditionEqual:
		return true
	default:
		return false
	}
}

// FormulaParameter is one optional per-attribute pricing rule.
// Amount is a rate per unit of the attribute, not a flat addend.
type FormulaParameter struct {
	Enabled        bool          `json:"enabled" yaml:"enabled"`
	Amount         float64       `json:"amount" yaml:"amount"`
	ConditionType  ConditionType `json:"condition_type" yaml:"condition_type"`
	ConditionValue *float64      `json:"condition_value,omitempty" yaml:"condition_value,omitempty"`
}

// FormulaSpec prices a unit as a base amount plus gated per-attribute contributions.
type FormulaSpec struct {
	BaseAmount     float64          `json:"base_amount" yaml:"base_amount"`
	PerPerson      FormulaParameter `json:"per_person" yaml:"per_person"`
	PerArea        FormulaParameter `json:"per_area" yaml:"per_area"`
	PerParking     FormulaParameter `json:"per_parking" yaml:"per_parking"`
	PerStorageArea FormulaParameter `json:"per_storage_area" yaml:"per_storage_area"`
}

// Recurrence is opaque scheduling data carried through the engine untouched.
type Recurrence struct {
	DayOfMonth int        `json:"day_of_month" yaml:"day_of_month"`
	EndDate    *time.Time `json:"end_date,omitempty" yaml:"end_date,omitempty"`
}

// ChargeRequest is a fully materialized billing announcement.
type ChargeRequest struct {
	Kind            ChargeKind         `json:"charge_kind" yaml:"charge_kind"`
	Category        string             `json:"category,omitempty" yaml:"category,omitempty"`
	PayerPolicy     PayerPolicy        `json:"payer_policy" yaml:"payer_policy"`
	TargetScope     TargetScope        `json:"target_scope" yaml:"target_scope"`
	SelectedUnitIDs []string           `json:"selected_unit_ids,omitempty" yaml:"selected_unit_ids,omitempty"`
	Amount          *float64           `json:"amount,omitempty" yaml:"amount,omitempty"`
	CustomAmounts   map[string]float64 `json:"custom_amounts,omitempty" yaml:"custom_amounts,omitempty"`
	Formula         *FormulaSpec       `json:"formula,omitempty" yaml:"formula,omitempty"`
	Recurrence      *Recurrence        `json:"recurrence,omitempty" yaml:"recurrence,omitempty"`
}

// UsesFormula reports whether formula rules price this request.
func (r ChargeRequest) UsesFormula() bool {
	return r.Kind == ChargeKindFormula || r.Category == CategoryConstruction
}

// UnitChargeRecord is the finalized charge for one targeted unit.
type UnitChargeRecord struct {
	UnitID     string  `json:"unit_id"`
	UnitNumber string  `json:"unit_number"`
	Amount     float64 `json:"amount"`
	Payer      Payer   `json:"payer"`
}

// Result is the successful outcome of an aggregation.
type Result struct {
	Records     []UnitChargeRecord `json:"records"`
	TotalAmount float64            `json:"total_amount"`
	Recurrence  *Recurrence        `json:"recurrence,omitempty"`
}
