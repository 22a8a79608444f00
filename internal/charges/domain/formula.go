package charges

import "github.com/shopspring/decimal"

// Formula parameter names, as used in error map fields.
const (
	ParamPerPerson      = "perPerson"
	ParamPerArea        = "perArea"
	ParamPerParking     = "perParking"
	ParamPerStorageArea = "perStorageArea"
)

// FormulaTerm binds one formula parameter to the unit attribute it prices.
type FormulaTerm struct {
	Name      string
	Parameter FormulaParameter
	Attribute func(Unit) float64
}

type termBinding struct {
	name      string
	parameter func(FormulaSpec) FormulaParameter
	attribute func(Unit) float64
}

// Adding a priced attribute is a new row here plus a FormulaSpec field.
var termBindings = []termBinding{
	{
		name:      ParamPerPerson,
		parameter: func(f FormulaSpec) FormulaParameter { return f.PerPerson },
		attribute: func(u Unit) float64 { return u.ResidentCount },
	},
	{
		name:      ParamPerArea,
		parameter: func(f FormulaSpec) FormulaParameter { return f.PerArea },
		attribute: func(u Unit) float64 { return u.Area },
	},
	{
		name:      ParamPerParking,
		parameter: func(f FormulaSpec) FormulaParameter { return f.PerParking },
		attribute: func(u Unit) float64 { return u.ParkingCount },
	},
	{
		name:      ParamPerStorageArea,
		parameter: func(f FormulaSpec) FormulaParameter { return f.PerStorageArea },
		attribute: func(u Unit) float64 { return u.StorageArea },
	},
}

// Terms returns every parameter of the formula bound to its unit attribute.
func (f FormulaSpec) Terms() []FormulaTerm {
	terms := make([]FormulaTerm, 0, len(termBindings))
	for _, binding := range termBindings {
		terms = append(terms, FormulaTerm{
			Name:      binding.name,
			Parameter: binding.parameter(f),
			Attribute: binding.attribute,
		})
	}
	return terms
}

// Condition returns the effective condition type; an unset condition means always.
func (p FormulaParameter) Condition() ConditionType {
	if p.ConditionType == "" {
		return ConditionAlways
	}
	return p.ConditionType
}

// Matches evaluates the parameter condition against an attribute value.
// Equality is exact; a comparison without a condition value never matches.
func (p FormulaParameter) Matches(value float64) bool {
	condition := p.Condition()
	if condition == ConditionAlways {
		return true
	}
	if p.ConditionValue == nil {
		return false
	}
	threshold := *p.ConditionValue
	switch condition {
	case ConditionMoreThan:
		return value > threshold
	case ConditionLessThan:
		return value < threshold
	case ConditionEqual:
		return value == threshold
	default:
		return false
	}
}

// Contribution returns amount * attribute when the term is enabled and its condition holds.
func (t FormulaTerm) Contribution(unit Unit) decimal.Decimal {
	if !t.Parameter.Enabled || t.Attribute == nil {
		return decimal.Zero
	}
	value := t.Attribute(unit)
	if !t.Parameter.Matches(value) {
		return decimal.Zero
	}
	return toDecimal(t.Parameter.Amount).Mul(toDecimal(value))
}

// ComputeFormulaAmount prices one unit: base amount plus every matching contribution.
func ComputeFormulaAmount(unit Unit, formula FormulaSpec) float64 {
	return formulaAmount(unit, formula).InexactFloat64()
}

func formulaAmount(unit Unit, formula FormulaSpec) decimal.Decimal {
	total := toDecimal(formula.BaseAmount)
	for _, term := range formula.Terms() {
		total = total.Add(term.Contribution(unit))
	}
	return total
}
