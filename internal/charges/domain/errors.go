package charges

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrEmptySelection is returned when a custom scope selects no units.
	ErrEmptySelection = errors.New("charges: empty unit selection")
	// ErrInvalidScope is returned for an unrecognized target scope.
	ErrInvalidScope = errors.New("charges: invalid target scope")
	// ErrInvalidAmount is returned when an amount is missing or not positive.
	ErrInvalidAmount = errors.New("charges: invalid amount")
	// ErrMissingCustomAmount is returned when targeted units lack a custom amount.
	ErrMissingCustomAmount = errors.New("charges: missing custom amount")
	// ErrReconciliationMismatch is returned when custom amounts do not sum to the declared total.
	ErrReconciliationMismatch = errors.New("charges: reconciliation mismatch")
	// ErrConditionValueRequired is returned when a comparison condition has no value.
	ErrConditionValueRequired = errors.New("charges: condition value required")
	// ErrInvalidCondition is returned for an unrecognized condition type.
	ErrInvalidCondition = errors.New("charges: invalid condition type")
	// ErrInvalidChargeKind is returned for an unrecognized charge kind.
	ErrInvalidChargeKind = errors.New("charges: invalid charge kind")
	// ErrFormulaRequired is returned when a formula charge carries no formula.
	ErrFormulaRequired = errors.New("charges: formula required")
)

// Error map fields.
const (
	FieldChargeKind      = "chargeKind"
	FieldTargetScope     = "targetScope"
	FieldSelectedUnitIDs = "selectedUnitIds"
	FieldAmount          = "amount"
	FieldCustomAmounts   = "customAmounts"
	FieldReconciliation  = "reconciliation"
	FieldFormula         = "formula"
	FieldBaseAmount      = "formula.baseAmount"
)

// MissingCustomAmountError lists every targeted unit without a positive custom amount.
type MissingCustomAmountError struct {
	UnitIDs []string
}

func (e *MissingCustomAmountError) Error() string {
	return fmt.Sprintf("%s for units: %s", ErrMissingCustomAmount.Error(), strings.Join(e.UnitIDs, ", "))
}

func (e *MissingCustomAmountError) Unwrap() error { return ErrMissingCustomAmount }

// ReconciliationMismatchError carries the totals so callers can display the gap.
type ReconciliationMismatchError struct {
	DeclaredTotal float64
	ComputedTotal float64
	Difference    float64
}

func (e *ReconciliationMismatchError) Error() string {
	return fmt.Sprintf("%s: declared %.2f, computed %.2f, difference %.2f",
		ErrReconciliationMismatch.Error(), e.DeclaredTotal, e.ComputedTotal, e.Difference)
}

func (e *ReconciliationMismatchError) Unwrap() error { return ErrReconciliationMismatch }

// ConditionValueRequiredError names the formula parameter missing its condition value.
type ConditionValueRequiredError struct {
	Parameter string
}

func (e *ConditionValueRequiredError) Error() string {
	return fmt.Sprintf("%s for %s", ErrConditionValueRequired.Error(), e.Parameter)
}

func (e *ConditionValueRequiredError) Unwrap() error { return ErrConditionValueRequired }

// ErrorMap collects independent validation failures keyed by request field.
// An empty map means the request is valid.
type ErrorMap map[string]error

// Error joins all failures in field order.
func (m ErrorMap) Error() string {
	fields := m.Fields()
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+m[field].Error())
	}
	return strings.Join(parts, "; ")
}

// Add records err under field, keeping the first error per field.
func (m ErrorMap) Add(field string, err error) {
	if err == nil {
		return
	}
	if _, exists := m[field]; exists {
		return
	}
	m[field] = err
}

// Merge copies every entry of other that is not already present.
func (m ErrorMap) Merge(other ErrorMap) {
	for field, err := range other {
		m.Add(field, err)
	}
}

// Fields returns the failing fields sorted by name.
func (m ErrorMap) Fields() []string {
	fields := make([]string, 0, len(m))
	for field := range m {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fields
}

// Messages renders the map as field -> message.
func (m ErrorMap) Messages() map[string]string {
	out := make(map[string]string, len(m))
	for field, err := range m {
		out[field] = err.Error()
	}
	return out
}

// Is lets errors.Is match any contained error.
func (m ErrorMap) Is(target error) bool {
	for _, err := range m {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// As lets errors.As reach the typed error stored under any field.
func (m ErrorMap) As(target any) bool {
	for _, field := range m.Fields() {
		if errors.As(m[field], target) {
			return true
		}
	}
	return false
}

// AsErrorMap extracts an ErrorMap from err.
func AsErrorMap(err error) (ErrorMap, bool) {
	var m ErrorMap
	if errors.As(err, &m) {
		return m, true
	}
	return nil, false
}
