package charges

import (
	"math"

	"github.com/shopspring/decimal"
)

// toDecimal maps non-finite values to zero; decimal cannot represent them.
func toDecimal(value float64) decimal.Decimal {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(value)
}

func sumDecimals(values []decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, value := range values {
		total = total.Add(value)
	}
	return total
}

// SumAmounts adds amounts in decimal to avoid binary rounding drift.
func SumAmounts(amounts ...float64) float64 {
	total := decimal.Zero
	for _, amount := range amounts {
		total = total.Add(toDecimal(amount))
	}
	return total.InexactFloat64()
}
