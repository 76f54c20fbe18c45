package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestComputeEMI(t *testing.T) {
	tests := []struct {
		name         string
		principal    string
		rate         string
		months       int
		wantEMI      string
		wantInterest string
	}{
		{"one year at twelve percent", "100000", "12", 12, "8884.88", "6618.56"},
		{"zero rate splits evenly", "12000", "0", 12, "1000", "0"},
		{"single installment", "5000", "12", 1, "5050", "50"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			emi, interest := ComputeEMI(decimal.RequireFromString(tt.principal), decimal.RequireFromString(tt.rate), tt.months)

			assert.True(t, emi.Equal(decimal.RequireFromString(tt.wantEMI)), "emi: got %s", emi)
			assert.True(t, interest.Equal(decimal.RequireFromString(tt.wantInterest)), "interest: got %s", interest)
		})
	}
}

func TestComputeEMI_TotalsReconcile(t *testing.T) {
	principal := decimal.NewFromInt(250000)
	emi, interest := ComputeEMI(principal, decimal.RequireFromString("8.5"), 240)

	n := decimal.NewFromInt(240)
	assert.True(t, emi.Mul(n).Equal(principal.Add(interest)))
	assert.True(t, emi.Equal(emi.Round(2)), "emi %s carries more than two decimals", emi)
}

func TestComputeEMI_NoTenure(t *testing.T) {
	for _, months := range []int{0, -3} {
		emi, interest := ComputeEMI(decimal.NewFromInt(1000), decimal.Zero, months)
		assert.True(t, emi.IsZero())
		assert.True(t, interest.IsZero())

		emi, interest = ComputeEMI(decimal.NewFromInt(1000), decimal.NewFromInt(12), months)
		assert.True(t, emi.IsZero())
		assert.True(t, interest.IsZero())
	}
}

func TestMonthlyRate(t *testing.T) {
	assert.True(t, MonthlyRate(decimal.NewFromInt(12)).Equal(decimal.RequireFromString("0.01")))
	assert.True(t, MonthlyRate(decimal.Zero).IsZero())
}
