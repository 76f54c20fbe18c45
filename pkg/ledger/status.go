package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mcclellann/moneymap/pkg/models"
)

// InstallmentCadenceDays is the fixed spacing of due dates counted from loan creation.
// It is not a calendar month.
const InstallmentCadenceDays = 30

// NextDueDate returns the instant the next installment falls due after monthsPaid
// installments: createdAt + 30*(monthsPaid+1) days. Large counts exceed time.Duration, so
// the days go through AddDate.
func NextDueDate(createdAt time.Time, monthsPaid int) time.Time {
	return createdAt.AddDate(0, 0, InstallmentCadenceDays*(monthsPaid+1))
}

// LoanStatus projects a loan's progress from its payments as of today. It has no side
// effects; the same inputs always give the same output.
func LoanStatus(loan *models.Loan, payments []*models.Payment, today time.Time) models.LoanStatus {
	amountPaid := decimal.Zero
	for _, p := range payments {
		amountPaid = amountPaid.Add(p.Amount)
	}

	// Overpayment leaves a negative remainder. It is reported as is.
	amountLeft := loan.Principal.Add(loan.TotalInterest).Sub(amountPaid)

	monthsPaid := 0
	if loan.EMI.GreaterThan(decimal.Zero) {
		monthsPaid = int(amountPaid.Div(loan.EMI).Floor().IntPart())
	}

	monthsLeft := loan.Tenure - monthsPaid
	if monthsLeft < 0 {
		monthsLeft = 0
	}

	progress := 0
	if loan.Tenure != 0 {
		progress = monthsPaid * 100 / loan.Tenure
	}

	nextDue := models.NewDate(NextDueDate(loan.CreatedAt, monthsPaid).UTC())

	return models.LoanStatus{
		AmountPaid:  amountPaid,
		AmountLeft:  amountLeft,
		MonthsPaid:  monthsPaid,
		MonthsLeft:  monthsLeft,
		ProgressPct: progress,
		NextDue:     nextDue,
		DaysToDue:   models.NewDate(today.UTC()).DaysUntil(nextDue),
	}
}
