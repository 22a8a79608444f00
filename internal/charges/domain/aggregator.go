package charges

import (
	"errors"

	"github.com/shopspring/decimal"
)

type aggregateConfig struct {
	tolerance float64
}

// AggregateOption configures an aggregation.
type AggregateOption func(*aggregateConfig)

// WithTolerance overrides the custom split reconciliation tolerance.
func WithTolerance(tolerance float64) AggregateOption {
	return func(cfg *aggregateConfig) {
		cfg.tolerance = tolerance
	}
}

// Aggregate selects the targeted units, prices each of them, resolves its payer and
// validates the whole request. It returns either the complete record list or an
// ErrorMap; records are never returned alongside errors.
func Aggregate(req ChargeRequest, units []Unit, opts ...AggregateOption) (*Result, error) {
	cfg := aggregateConfig{tolerance: DefaultTolerance}
	for _, opt := range opts {
		opt(&cfg)
	}

	errs := ErrorMap{}
	targets, err := SelectTargets(units, req.TargetScope, req.SelectedUnitIDs)
	if err != nil {
		// Unit-level checks are meaningless without a selection.
		errs.Add(selectionField(err), err)
		errs.Merge(ValidateRequest(req))
		return nil, errs
	}

	amounts := make([]decimal.Decimal, len(targets))
	perUnit := make(map[string]float64, len(targets))
	for i, unit := range targets {
		amounts[i] = unitAmount(req, unit)
		perUnit[unit.ID] = amounts[i].InexactFloat64()
	}

	errs.Merge(Validate(req, targets, perUnit, cfg.tolerance))
	if len(errs) > 0 {
		return nil, errs
	}

	records := make([]UnitChargeRecord, len(targets))
	for i, unit := range targets {
		records[i] = UnitChargeRecord{
			UnitID:     unit.ID,
			UnitNumber: unit.UnitNumber,
			Amount:     amounts[i].InexactFloat64(),
			Payer:      ResolvePayer(unit, req.PayerPolicy),
		}
	}

	total := sumDecimals(amounts)
	if req.Kind == ChargeKindFixed {
		total = toDecimal(*req.Amount).Mul(decimal.NewFromInt(int64(len(targets))))
	}

	return &Result{
		Records:     records,
		TotalAmount: total.InexactFloat64(),
		Recurrence:  req.Recurrence,
	}, nil
}

func unitAmount(req ChargeRequest, unit Unit) decimal.Decimal {
	switch req.Kind {
	case ChargeKindFixed:
		if req.Amount != nil && isFinite(*req.Amount) {
			return toDecimal(*req.Amount)
		}
	case ChargeKindCustom:
		if amount, ok := req.CustomAmounts[unit.ID]; ok && isFinite(amount) {
			return toDecimal(amount)
		}
	case ChargeKindFormula:
		if req.Formula != nil {
			return formulaAmount(unit, *req.Formula)
		}
	}
	return decimal.Zero
}

func selectionField(err error) string {
	if errors.Is(err, ErrEmptySelection) {
		return FieldSelectedUnitIDs
	}
	return FieldTargetScope
}
