package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mcclellann/moneymap/pkg/defaults"
	"github.com/mcclellann/moneymap/pkg/logger"
	"github.com/mcclellann/moneymap/pkg/models"
	"github.com/mcclellann/moneymap/pkg/store"
)

// ErrValidation marks caller input the ledger refuses to act on.
var ErrValidation = errors.New("validation failed")

const (
	MaxLoanNameLength = 150
	MaxNoteLength     = 255
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Storage is the subset of store.Storage the ledger needs.
type Storage interface {
	store.LoanStore
	GetCategoryByName(ctx context.Context, userID uuid.UUID, name string, entryType models.EntryType) (*models.Category, error)
	CreateTransaction(ctx context.Context, transaction *models.Transaction) error
}

// Ledger handles the business logic for loans and their payments.
type Ledger struct {
	storage Storage
	now     func() time.Time
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// NewLedger creates a new Ledger with a given Storage implementation.
func NewLedger(s Storage, opts ...Option) *Ledger {
	l := &Ledger{
		storage: s,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LoanInput describes a new loan. TenureYears is converted to months.
type LoanInput struct {
	Name        string
	Principal   decimal.Decimal
	Rate        decimal.Decimal // nominal annual percent
	TenureYears int
}

func (in LoanInput) validate() error {
	if !in.Principal.IsPositive() {
		return invalid("principal must be positive")
	}
	if in.Rate.IsNegative() {
		return invalid("rate must not be negative")
	}
	if in.Rate.GreaterThan(maxRate) {
		return invalid("rate exceeds the maximum of %d%%", MaxInterestRate)
	}
	if in.TenureYears <= 0 {
		return invalid("tenure must be a positive number of years")
	}
	if in.TenureYears > MaxTenureYears {
		return invalid("tenure exceeds the maximum of %d years", MaxTenureYears)
	}
	return nil
}

// CreateLoan computes the EMI schedule for a new loan and stores it for userID.
func (l *Ledger) CreateLoan(ctx context.Context, userID uuid.UUID, in LoanInput) (*models.Loan, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = models.DefaultLoanName
	}
	if utf8.RuneCountInString(name) > MaxLoanNameLength {
		return nil, invalid("loan name exceeds %d characters", MaxLoanNameLength)
	}

	tenure := in.TenureYears * monthsPerYear
	emi, totalInterest := ComputeEMI(in.Principal, in.Rate, tenure)

	loan := &models.Loan{
		ID:            uuid.New(),
		UserID:        userID,
		Name:          name,
		Principal:     in.Principal,
		Rate:          in.Rate,
		Tenure:        tenure,
		EMI:           emi,
		TotalInterest: totalInterest,
		CreatedAt:     l.now().UTC(),
	}

	if err := l.storage.CreateLoan(ctx, loan); err != nil {
		return nil, fmt.Errorf("failed to store loan: %w", err)
	}

	logger.Info(ctx, "loan created",
		zap.String("loan_id", loan.ID.String()),
		zap.String("user_id", userID.String()),
		zap.String("emi", emi.StringFixed(2)),
		zap.Int("tenure_months", tenure))

	return loan, nil
}

// PaymentInput describes one installment payment.
type PaymentInput struct {
	Amount decimal.Decimal
	Date   models.Date
	Note   string
}

func (in PaymentInput) validate() error {
	if !in.Amount.IsPositive() {
		return invalid("amount must be positive")
	}
	if in.Date.IsZero() {
		return invalid("date is required")
	}
	if utf8.RuneCountInString(in.Note) > MaxNoteLength {
		return invalid("note exceeds %d characters", MaxNoteLength)
	}
	return nil
}

// RecordPayment appends a payment to a loan owned by userID, then mirrors it into the
// user's expense ledger. The payment row is authoritative: a failed mirror is logged and
// does not fail the call.
func (l *Ledger) RecordPayment(ctx context.Context, userID, loanID uuid.UUID, in PaymentInput) (*models.Payment, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	loan, err := l.storage.GetLoan(ctx, userID, loanID)
	if err != nil {
		return nil, err
	}

	payment := &models.Payment{
		ID:        uuid.New(),
		LoanID:    loan.ID,
		Amount:    in.Amount,
		PaidDate:  in.Date,
		Note:      strings.TrimSpace(in.Note),
		CreatedAt: l.now().UTC(),
	}
	if err := l.storage.CreatePayment(ctx, payment); err != nil {
		return nil, fmt.Errorf("failed to store payment: %w", err)
	}

	if err := l.mirrorPayment(ctx, loan, payment); err != nil {
		logger.Warn(ctx, "failed to mirror loan payment into ledger",
			zap.String("loan_id", loan.ID.String()),
			zap.String("user_id", userID.String()),
			zap.Error(err))
	}

	return payment, nil
}

// mirrorPayment writes the expense transaction that documents a payment.
func (l *Ledger) mirrorPayment(ctx context.Context, loan *models.Loan, payment *models.Payment) error {
	var categoryID *uuid.UUID
	category, err := l.storage.GetCategoryByName(ctx, loan.UserID, defaults.InsuranceCategory, models.EntryTypeExpense)
	switch {
	case err == nil:
		categoryID = &category.ID
	case errors.Is(err, store.ErrCategoryNotFound):
	default:
		logger.Warn(ctx, "category lookup failed, mirroring payment uncategorised", zap.Error(err))
	}

	return l.storage.CreateTransaction(ctx, &models.Transaction{
		ID:         uuid.New(),
		UserID:     loan.UserID,
		CategoryID: categoryID,
		Type:       models.EntryTypeExpense,
		Amount:     payment.Amount,
		Note:       "EMI Paid: " + loan.Name,
		Date:       payment.PaidDate,
		CreatedAt:  payment.CreatedAt,
	})
}

// GetLoan returns one of userID's loans with its progress projection.
func (l *Ledger) GetLoan(ctx context.Context, userID, loanID uuid.UUID) (*models.LoanWithStatus, error) {
	loan, err := l.storage.GetLoan(ctx, userID, loanID)
	if err != nil {
		return nil, err
	}
	return l.withStatus(ctx, loan)
}

// ListLoans returns all of userID's loans with their progress projections.
func (l *Ledger) ListLoans(ctx context.Context, userID uuid.UUID) ([]*models.LoanWithStatus, error) {
	loans, err := l.storage.GetLoansForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]*models.LoanWithStatus, 0, len(loans))
	for _, loan := range loans {
		enriched, err := l.withStatus(ctx, loan)
		if err != nil {
			return nil, err
		}
		out = append(out, enriched)
	}
	return out, nil
}

func (l *Ledger) withStatus(ctx context.Context, loan *models.Loan) (*models.LoanWithStatus, error) {
	payments, err := l.storage.GetPaymentsForLoan(ctx, loan.UserID, loan.ID)
	if err != nil {
		return nil, err
	}
	return &models.LoanWithStatus{
		Loan:       loan,
		LoanStatus: LoanStatus(loan, payments, l.now()),
	}, nil
}

// GetPayments returns the payment history of a loan, most recent first. Unknown loans
// give an empty history.
func (l *Ledger) GetPayments(ctx context.Context, userID, loanID uuid.UUID) ([]*models.Payment, error) {
	return l.storage.GetPaymentsForLoan(ctx, userID, loanID)
}

// DeleteLoan deletes a loan and all of its payments.
func (l *Ledger) DeleteLoan(ctx context.Context, userID, loanID uuid.UUID) error {
	if err := l.storage.DeleteLoan(ctx, userID, loanID); err != nil {
		return err
	}
	logger.Info(ctx, "loan deleted", zap.String("loan_id", loanID.String()), zap.String("user_id", userID.String()))
	return nil
}
