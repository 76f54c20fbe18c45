package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DateLayout is the wire and storage format for calendar dates.
const DateLayout = "2006-01-02"

// DefaultLoanName is used when a loan is created without a name.
const DefaultLoanName = "My Loan"

type User struct {
	ID           uuid.UUID  `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
}

type LoginEvent struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	LoginTime time.Time `json:"login_time"`
	IPAddress string    `json:"ip_address"`
}

type EntryType string

const (
	EntryTypeIncome  EntryType = "income"
	EntryTypeExpense EntryType = "expense"
)

type Category struct {
	ID     uuid.UUID `json:"id"`
	UserID uuid.UUID `json:"user_id"`
	Name   string    `json:"name"`
	Type   EntryType `json:"type"`
}

type Budget struct {
	ID           uuid.UUID       `json:"id"`
	UserID       uuid.UUID       `json:"user_id"`
	CategoryID   *uuid.UUID      `json:"category_id,omitempty"`
	CategoryName string          `json:"category_name,omitempty"`
	Month        string          `json:"month"` // YYYY-MM
	Amount       decimal.Decimal `json:"amount"`
}

// Transaction is an entry in the user's income/expense ledger.
type Transaction struct {
	ID           uuid.UUID       `json:"id"`
	UserID       uuid.UUID       `json:"user_id"`
	CategoryID   *uuid.UUID      `json:"category_id,omitempty"`
	CategoryName string          `json:"category,omitempty"`
	Type         EntryType       `json:"type"`
	Amount       decimal.Decimal `json:"amount"`
	Note         string          `json:"note"`
	Date         Date            `json:"date"`
	CreatedAt    time.Time       `json:"created_at"`
}

// Loan is immutable after creation. EMI and TotalInterest are derived once from
// Principal, Rate and Tenure and never recomputed.
type Loan struct {
	ID            uuid.UUID       `json:"id"`
	UserID        uuid.UUID       `json:"user_id"`
	Name          string          `json:"loan_name"`
	Principal     decimal.Decimal `json:"principal"`
	Rate          decimal.Decimal `json:"rate"`   // nominal annual percent, e.g. 12.5
	Tenure        int             `json:"tenure"` // months
	EMI           decimal.Decimal `json:"emi"`
	TotalInterest decimal.Decimal `json:"total_int"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Payment is one recorded installment against a loan.
type Payment struct {
	ID        uuid.UUID       `json:"id"`
	LoanID    uuid.UUID       `json:"loan_id"`
	Amount    decimal.Decimal `json:"amount"`
	PaidDate  Date            `json:"paid_date"`
	Note      string          `json:"note"`
	CreatedAt time.Time       `json:"created_at"`
}

// LoanStatus is the progress projection derived from a loan and its payments.
type LoanStatus struct {
	AmountPaid  decimal.Decimal `json:"amount_paid"`
	AmountLeft  decimal.Decimal `json:"amount_left"`
	MonthsPaid  int             `json:"months_paid"`
	MonthsLeft  int             `json:"months_left"`
	ProgressPct int             `json:"progress_pct"`
	NextDue     Date            `json:"next_due"`
	DaysToDue   int             `json:"days_to_due"`
}

// PaidOff reports whether the loan is settled. It is never persisted.
func (s LoanStatus) PaidOff() bool {
	return s.AmountLeft.LessThanOrEqual(decimal.Zero) || s.MonthsLeft == 0
}

// LoanWithStatus is a loan enriched with its projection for API responses.
type LoanWithStatus struct {
	*Loan
	LoanStatus
}
