package charges

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// DefaultTolerance is the absolute currency gap allowed when reconciling custom splits.
const DefaultTolerance = 1.0

// Validate checks the structural and numeric invariants of req against its targets.
// perUnit holds the amount computed for each targeted unit id; for custom charges it
// is the source of the reconciled total and falls back to req.CustomAmounts when nil.
// Every independent failure is reported; an empty map means valid.
func Validate(req ChargeRequest, targets []Unit, perUnit map[string]float64, tolerance float64) ErrorMap {
	errs := ValidateRequest(req)
	if req.Kind != ChargeKindCustom {
		return errs
	}
	if tolerance < 0 || math.IsNaN(tolerance) {
		tolerance = 0
	}
	validateCustomEntries(req, targets, errs)
	if _, invalid := errs[FieldAmount]; !invalid {
		validateReconciliation(req, targets, perUnit, tolerance, errs)
	}
	return errs
}

// ValidateRequest checks the parts of req that do not depend on the targeted units.
func ValidateRequest(req ChargeRequest) ErrorMap {
	errs := ErrorMap{}
	switch req.Kind {
	case ChargeKindFixed, ChargeKindCustom:
		validateDeclaredAmount(req, errs)
	case ChargeKindFormula:
	default:
		errs.Add(FieldChargeKind, fmt.Errorf("%w: %q", ErrInvalidChargeKind, req.Kind))
	}

	if req.UsesFormula() {
		validateFormula(req.Formula, errs)
	}
	return errs
}

func validateDeclaredAmount(req ChargeRequest, errs ErrorMap) {
	if req.Amount == nil {
		errs.Add(FieldAmount, fmt.Errorf("%w: amount is required", ErrInvalidAmount))
		return
	}
	if !positiveAmount(*req.Amount) {
		errs.Add(FieldAmount, fmt.Errorf("%w: amount must be positive", ErrInvalidAmount))
	}
}

func validateCustomEntries(req ChargeRequest, targets []Unit, errs ErrorMap) {
	var missing []string
	for _, unit := range targets {
		amount, ok := req.CustomAmounts[unit.ID]
		if !ok || !positiveAmount(amount) {
			missing = append(missing, unit.ID)
		}
	}
	if len(missing) > 0 {
		errs.Add(FieldCustomAmounts, &MissingCustomAmountError{UnitIDs: missing})
	}
}

func validateReconciliation(req ChargeRequest, targets []Unit, perUnit map[string]float64, tolerance float64, errs ErrorMap) {
	amounts := perUnit
	if amounts == nil {
		amounts = req.CustomAmounts
	}
	values := make([]decimal.Decimal, 0, len(targets))
	for _, unit := range targets {
		if amount, ok := amounts[unit.ID]; ok && isFinite(amount) {
			values = append(values, toDecimal(amount))
		}
	}
	computed := sumDecimals(values)
	declared := toDecimal(*req.Amount)
	difference := computed.Sub(declared)
	if difference.Abs().GreaterThan(toDecimal(tolerance)) {
		errs.Add(FieldReconciliation, &ReconciliationMismatchError{
			DeclaredTotal: declared.InexactFloat64(),
			ComputedTotal: computed.InexactFloat64(),
			Difference:    difference.InexactFloat64(),
		})
	}
}

func validateFormula(formula *FormulaSpec, errs ErrorMap) {
	if formula == nil {
		errs.Add(FieldFormula, ErrFormulaRequired)
		return
	}
	if !positiveAmount(formula.BaseAmount) {
		errs.Add(FieldBaseAmount, fmt.Errorf("%w: base amount must be positive", ErrInvalidAmount))
	}
	for _, term := range formula.Terms() {
		param := term.Parameter
		if !param.Enabled {
			continue
		}
		prefix := FieldFormula + "." + term.Name
		if !positiveAmount(param.Amount) {
			errs.Add(prefix+".amount", fmt.Errorf("%w: %s amount must be positive", ErrInvalidAmount, term.Name))
		}
		condition := param.Condition()
		if !condition.Valid() {
			errs.Add(prefix+".conditionType", fmt.Errorf("%w: %q", ErrInvalidCondition, param.ConditionType))
			continue
		}
		if condition != ConditionAlways && (param.ConditionValue == nil || !isFinite(*param.ConditionValue)) {
			errs.Add(prefix+".conditionValue", &ConditionValueRequiredError{Parameter: term.Name})
		}
	}
}

func positiveAmount(value float64) bool {
	return value > 0 && isFinite(value)
}

func isFinite(value float64) bool {
	return !math.IsNaN(value) && !math.IsInf(value, 0)
}
