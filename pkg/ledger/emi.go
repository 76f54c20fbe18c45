package ledger

import (
	"math"

	"github.com/shopspring/decimal"
)

const (
	monthsPerYear = 12

	MaxTenureYears  = 50
	MaxInterestRate = 1000 // annual percent
)

var (
	hundred     = decimal.NewFromInt(100)
	twelve      = decimal.NewFromInt(monthsPerYear)
	maxRate     = decimal.NewFromInt(MaxInterestRate)
	centsPlaces = int32(2)
)

// MonthlyRate converts a nominal annual percent to a monthly fraction: 12 -> 0.01.
func MonthlyRate(annualRatePercent decimal.Decimal) decimal.Decimal {
	return annualRatePercent.Div(twelve).Div(hundred)
}

// ComputeEMI returns the fixed monthly installment and the total interest payable for a
// reducing-balance loan. Both are rounded to cents; total interest is derived from the
// rounded installment so that emi*n == principal + totalInterest.
//
// A zero rate splits the principal evenly. A tenure below one month has no schedule and
// yields zeros.
func ComputeEMI(principal, annualRatePercent decimal.Decimal, tenureMonths int) (emi, totalInterest decimal.Decimal) {
	if tenureMonths <= 0 {
		return decimal.Zero, decimal.Zero
	}

	n := decimal.NewFromInt(int64(tenureMonths))
	r := MonthlyRate(annualRatePercent)

	if r.IsZero() {
		emi = principal.Div(n)
	} else {
		// P * r * (1+r)^n / ((1+r)^n - 1); the power is taken in float64, money stays decimal.
		factor := decimal.NewFromFloat(math.Pow(1+r.InexactFloat64(), float64(tenureMonths)))
		emi = principal.Mul(r).Mul(factor).Div(factor.Sub(decimal.NewFromInt(1)))
	}

	emi = emi.Round(centsPlaces)
	totalInterest = emi.Mul(n).Sub(principal)
	return emi, totalInterest
}
