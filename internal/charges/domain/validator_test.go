package charges

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoUnits() []Unit {
	return []Unit{{ID: "u1", UnitNumber: "101"}, {ID: "u2", UnitNumber: "102"}}
}

func TestValidate_CustomReconciliationMismatch(t *testing.T) {
	req := ChargeRequest{
		Kind:          ChargeKindCustom,
		Amount:        floatPtr(99000),
		CustomAmounts: map[string]float64{"u1": 50000, "u2": 50000},
	}

	errs := Validate(req, twoUnits(), nil, 1)
	require.Len(t, errs, 1)

	var mismatch *ReconciliationMismatchError
	require.True(t, errors.As(errs[FieldReconciliation], &mismatch))
	assert.Equal(t, 99000.0, mismatch.DeclaredTotal)
	assert.Equal(t, 100000.0, mismatch.ComputedTotal)
	assert.Equal(t, 1000.0, mismatch.Difference)
	assert.ErrorIs(t, errs, ErrReconciliationMismatch)
}

func TestValidate_CustomReconciliationSuccess(t *testing.T) {
	req := ChargeRequest{
		Kind:          ChargeKindCustom,
		Amount:        floatPtr(100000),
		CustomAmounts: map[string]float64{"u1": 50000, "u2": 50000},
	}

	assert.Empty(t, Validate(req, twoUnits(), nil, 1))
}

func TestValidate_CustomWithinTolerance(t *testing.T) {
	req := ChargeRequest{
		Kind:          ChargeKindCustom,
		Amount:        floatPtr(100001),
		CustomAmounts: map[string]float64{"u1": 50000, "u2": 50000},
	}
	assert.Empty(t, Validate(req, twoUnits(), nil, 1))

	errs := Validate(req, twoUnits(), nil, 0.5)
	assert.ErrorIs(t, errs, ErrReconciliationMismatch)
}

func TestValidate_CustomCollectsAllMissingUnits(t *testing.T) {
	units := append(twoUnits(), Unit{ID: "u3"}, Unit{ID: "u4"})
	req := ChargeRequest{
		Kind:          ChargeKindCustom,
		Amount:        floatPtr(100000),
		CustomAmounts: map[string]float64{"u1": 100000, "u3": 0, "u4": -5},
	}

	errs := Validate(req, units, nil, 1)
	var missing *MissingCustomAmountError
	require.True(t, errors.As(errs[FieldCustomAmounts], &missing))
	assert.Equal(t, []string{"u2", "u3", "u4"}, missing.UnitIDs)
	assert.ErrorIs(t, errs[FieldCustomAmounts], ErrMissingCustomAmount)
}

func TestValidate_CustomIgnoresEntriesOutsideTargets(t *testing.T) {
	req := ChargeRequest{
		Kind:          ChargeKindCustom,
		Amount:        floatPtr(100000),
		CustomAmounts: map[string]float64{"u1": 50000, "u2": 50000, "u9": 70000},
	}
	assert.Empty(t, Validate(req, twoUnits(), nil, 1))
}

func TestValidate_CustomRequiresDeclaredAmount(t *testing.T) {
	req := ChargeRequest{
		Kind:          ChargeKindCustom,
		CustomAmounts: map[string]float64{"u1": 50000, "u2": 50000},
	}

	errs := Validate(req, twoUnits(), nil, 1)
	assert.ErrorIs(t, errs[FieldAmount], ErrInvalidAmount)
	assert.NotContains(t, errs, FieldReconciliation)
}

func TestValidate_FixedAmount(t *testing.T) {
	for _, amount := range []*float64{nil, floatPtr(0), floatPtr(-10)} {
		errs := Validate(ChargeRequest{Kind: ChargeKindFixed, Amount: amount}, twoUnits(), nil, 1)
		assert.ErrorIs(t, errs[FieldAmount], ErrInvalidAmount)
	}
	assert.Empty(t, Validate(ChargeRequest{Kind: ChargeKindFixed, Amount: floatPtr(25000)}, twoUnits(), nil, 1))
}

func TestValidate_FormulaConditionValueRequired(t *testing.T) {
	req := ChargeRequest{
		Kind: ChargeKindFormula,
		Formula: &FormulaSpec{
			BaseAmount: 10000,
			PerPerson:  FormulaParameter{Enabled: true, Amount: 500, ConditionType: ConditionMoreThan},
			PerArea:    FormulaParameter{Enabled: true, Amount: 10, ConditionType: ConditionAlways},
			PerParking: FormulaParameter{Enabled: false, Amount: 0, ConditionType: ConditionEqual},
		},
	}

	errs := Validate(req, twoUnits(), nil, 1)
	require.Len(t, errs, 1)
	var condErr *ConditionValueRequiredError
	require.True(t, errors.As(errs["formula.perPerson.conditionValue"], &condErr))
	assert.Equal(t, ParamPerPerson, condErr.Parameter)
	assert.ErrorIs(t, errs, ErrConditionValueRequired)
}

func TestValidate_FormulaStructure(t *testing.T) {
	req := ChargeRequest{
		Kind: ChargeKindFormula,
		Formula: &FormulaSpec{
			BaseAmount:     0,
			PerParking:     FormulaParameter{Enabled: true, Amount: 0, ConditionType: ConditionAlways},
			PerStorageArea: FormulaParameter{Enabled: true, Amount: 5, ConditionType: "between"},
		},
	}

	errs := Validate(req, twoUnits(), nil, 1)
	assert.ErrorIs(t, errs[FieldBaseAmount], ErrInvalidAmount)
	assert.ErrorIs(t, errs["formula.perParking.amount"], ErrInvalidAmount)
	assert.ErrorIs(t, errs["formula.perStorageArea.conditionType"], ErrInvalidCondition)
	assert.Len(t, errs, 3)
}

func TestValidate_FormulaMissing(t *testing.T) {
	errs := Validate(ChargeRequest{Kind: ChargeKindFormula}, twoUnits(), nil, 1)
	assert.ErrorIs(t, errs[FieldFormula], ErrFormulaRequired)
}

func TestValidate_ConstructionCategoryChecksFormula(t *testing.T) {
	req := ChargeRequest{
		Kind:     ChargeKindFixed,
		Category: CategoryConstruction,
		Amount:   floatPtr(1000),
		Formula:  &FormulaSpec{BaseAmount: -1},
	}

	errs := Validate(req, twoUnits(), nil, 1)
	assert.ErrorIs(t, errs[FieldBaseAmount], ErrInvalidAmount)
}

func TestValidate_InvalidKind(t *testing.T) {
	errs := Validate(ChargeRequest{Kind: "barter"}, twoUnits(), nil, 1)
	assert.ErrorIs(t, errs[FieldChargeKind], ErrInvalidChargeKind)
}

func TestErrorMap_Messages(t *testing.T) {
	errs := ErrorMap{}
	errs.Add(FieldAmount, ErrInvalidAmount)
	errs.Add(FieldAmount, ErrInvalidScope)
	errs.Add(FieldTargetScope, ErrInvalidScope)
	errs.Add("ignored", nil)

	assert.Equal(t, []string{FieldAmount, FieldTargetScope}, errs.Fields())
	assert.Equal(t, map[string]string{
		FieldAmount:      ErrInvalidAmount.Error(),
		FieldTargetScope: ErrInvalidScope.Error(),
	}, errs.Messages())
	assert.Equal(t, "amount: charges: invalid amount; targetScope: charges: invalid target scope", errs.Error())

	got, ok := AsErrorMap(errs)
	require.True(t, ok)
	assert.Len(t, got, 2)
}
