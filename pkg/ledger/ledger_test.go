package ledger

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/mcclellann/moneymap/pkg/defaults"
	"github.com/mcclellann/moneymap/pkg/logger"
	"github.com/mcclellann/moneymap/pkg/models"
	"github.com/mcclellann/moneymap/pkg/store"
)

// MockStore is a simple in-memory implementation of the Storage interface for testing.
type MockStore struct {
	loans        map[uuid.UUID]*models.Loan
	payments     []*models.Payment
	categories   []*models.Category
	transactions []*models.Transaction

	failTransactions bool
}

func NewMockStore() *MockStore {
	return &MockStore{
		loans: make(map[uuid.UUID]*models.Loan),
	}
}

func (m *MockStore) CreateLoan(_ context.Context, loan *models.Loan) error {
	m.loans[loan.ID] = loan
	return nil
}

func (m *MockStore) GetLoan(_ context.Context, userID, id uuid.UUID) (*models.Loan, error) {
	loan, ok := m.loans[id]
	if !ok || loan.UserID != userID {
		return nil, store.ErrNotFound
	}
	return loan, nil
}

func (m *MockStore) GetLoansForUser(_ context.Context, userID uuid.UUID) ([]*models.Loan, error) {
	loans := []*models.Loan{}
	for _, l := range m.loans {
		if l.UserID == userID {
			loans = append(loans, l)
		}
	}
	sort.Slice(loans, func(i, j int) bool { return loans[i].CreatedAt.After(loans[j].CreatedAt) })
	return loans, nil
}

func (m *MockStore) DeleteLoan(_ context.Context, userID, id uuid.UUID) error {
	loan, ok := m.loans[id]
	if !ok || loan.UserID != userID {
		return store.ErrNotFound
	}
	delete(m.loans, id)
	kept := m.payments[:0]
	for _, p := range m.payments {
		if p.LoanID != id {
			kept = append(kept, p)
		}
	}
	m.payments = kept
	return nil
}

func (m *MockStore) CreatePayment(_ context.Context, payment *models.Payment) error {
	m.payments = append(m.payments, payment)
	return nil
}

func (m *MockStore) GetPaymentsForLoan(_ context.Context, userID, loanID uuid.UUID) ([]*models.Payment, error) {
	payments := []*models.Payment{}
	loan, ok := m.loans[loanID]
	if !ok || loan.UserID != userID {
		return payments, nil
	}
	for _, p := range m.payments {
		if p.LoanID == loanID {
			payments = append(payments, p)
		}
	}
	return payments, nil
}

func (m *MockStore) GetCategoryByName(_ context.Context, userID uuid.UUID, name string, entryType models.EntryType) (*models.Category, error) {
	for _, c := range m.categories {
		if c.UserID == userID && c.Name == name && c.Type == entryType {
			return c, nil
		}
	}
	return nil, store.ErrCategoryNotFound
}

func (m *MockStore) CreateTransaction(_ context.Context, tx *models.Transaction) error {
	if m.failTransactions {
		return errors.New("ledger table locked")
	}
	m.transactions = append(m.transactions, tx)
	return nil
}

var fixedNow = time.Date(2024, time.January, 1, 9, 30, 0, 0, time.UTC)

func newTestLedger() (*Ledger, *MockStore) {
	s := NewMockStore()
	return NewLedger(s, WithClock(func() time.Time { return fixedNow })), s
}

func carLoan() LoanInput {
	return LoanInput{
		Name:        "Car",
		Principal:   decimal.NewFromInt(100000),
		Rate:        decimal.NewFromInt(12),
		TenureYears: 1,
	}
}

func TestCreateLoan(t *testing.T) {
	l, s := newTestLedger()
	user := uuid.New()

	loan, err := l.CreateLoan(context.Background(), user, carLoan())
	require.NoError(t, err)

	assert.Equal(t, user, loan.UserID)
	assert.Equal(t, "Car", loan.Name)
	assert.Equal(t, 12, loan.Tenure)
	assert.True(t, loan.EMI.Equal(decimal.RequireFromString("8884.88")))
	assert.True(t, loan.TotalInterest.Equal(decimal.RequireFromString("6618.56")))
	assert.Equal(t, fixedNow, loan.CreatedAt)
	assert.Contains(t, s.loans, loan.ID)
}

func TestCreateLoan_DefaultName(t *testing.T) {
	l, _ := newTestLedger()
	in := carLoan()
	in.Name = "   "

	loan, err := l.CreateLoan(context.Background(), uuid.New(), in)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultLoanName, loan.Name)
}

func TestCreateLoan_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*LoanInput)
	}{
		{"zero principal", func(in *LoanInput) { in.Principal = decimal.Zero }},
		{"negative principal", func(in *LoanInput) { in.Principal = decimal.NewFromInt(-5) }},
		{"negative rate", func(in *LoanInput) { in.Rate = decimal.NewFromInt(-1) }},
		{"rate too high", func(in *LoanInput) { in.Rate = decimal.NewFromInt(1001) }},
		{"zero tenure", func(in *LoanInput) { in.TenureYears = 0 }},
		{"tenure too long", func(in *LoanInput) { in.TenureYears = 51 }},
		{"name too long", func(in *LoanInput) {
			b := make([]byte, MaxLoanNameLength+1)
			for i := range b {
				b[i] = 'x'
			}
			in.Name = string(b)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, s := newTestLedger()
			in := carLoan()
			tt.mutate(&in)

			_, err := l.CreateLoan(context.Background(), uuid.New(), in)
			assert.ErrorIs(t, err, ErrValidation)
			assert.Empty(t, s.loans)
		})
	}
}

func TestRecordPayment_MirrorsIntoInsurance(t *testing.T) {
	l, s := newTestLedger()
	user := uuid.New()
	insurance := &models.Category{ID: uuid.New(), UserID: user, Name: defaults.InsuranceCategory, Type: models.EntryTypeExpense}
	s.categories = append(s.categories, insurance)

	loan, err := l.CreateLoan(context.Background(), user, carLoan())
	require.NoError(t, err)

	paid := models.NewDate(time.Date(2024, time.January, 28, 0, 0, 0, 0, time.UTC))
	payment, err := l.RecordPayment(context.Background(), user, loan.ID, PaymentInput{
		Amount: loan.EMI,
		Date:   paid,
		Note:   " january ",
	})
	require.NoError(t, err)
	assert.Equal(t, "january", payment.Note)
	assert.Len(t, s.payments, 1)

	require.Len(t, s.transactions, 1)
	tx := s.transactions[0]
	assert.Equal(t, "EMI Paid: Car", tx.Note)
	assert.Equal(t, models.EntryTypeExpense, tx.Type)
	assert.Equal(t, user, tx.UserID)
	assert.True(t, tx.Amount.Equal(loan.EMI))
	assert.Equal(t, paid, tx.Date)
	require.NotNil(t, tx.CategoryID)
	assert.Equal(t, insurance.ID, *tx.CategoryID)
}

func TestRecordPayment_MirrorWithoutCategory(t *testing.T) {
	l, s := newTestLedger()
	user := uuid.New()
	loan, err := l.CreateLoan(context.Background(), user, carLoan())
	require.NoError(t, err)

	_, err = l.RecordPayment(context.Background(), user, loan.ID, PaymentInput{
		Amount: decimal.NewFromInt(100),
		Date:   models.NewDate(fixedNow),
	})
	require.NoError(t, err)

	require.Len(t, s.transactions, 1)
	assert.Nil(t, s.transactions[0].CategoryID)
}

func TestRecordPayment_MirrorFailureIsIgnored(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	prev := logger.L()
	logger.Set(zap.New(core))
	t.Cleanup(func() { logger.Set(prev) })

	l, s := newTestLedger()
	s.failTransactions = true
	user := uuid.New()
	loan, err := l.CreateLoan(context.Background(), user, carLoan())
	require.NoError(t, err)

	payment, err := l.RecordPayment(context.Background(), user, loan.ID, PaymentInput{
		Amount: loan.EMI,
		Date:   models.NewDate(fixedNow),
	})
	require.NoError(t, err)
	assert.NotNil(t, payment)
	assert.Len(t, s.payments, 1)
	assert.Empty(t, s.transactions)

	warnings := logs.FilterMessage("failed to mirror loan payment into ledger").All()
	require.Len(t, warnings, 1)
	fields := warnings[0].ContextMap()
	assert.Equal(t, loan.ID.String(), fields["loan_id"])
	assert.Equal(t, user.String(), fields["user_id"])
}

func TestRecordPayment_ForeignLoan(t *testing.T) {
	l, s := newTestLedger()
	owner, other := uuid.New(), uuid.New()
	loan, err := l.CreateLoan(context.Background(), owner, carLoan())
	require.NoError(t, err)

	_, err = l.RecordPayment(context.Background(), other, loan.ID, PaymentInput{
		Amount: decimal.NewFromInt(100),
		Date:   models.NewDate(fixedNow),
	})
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Empty(t, s.payments)
	assert.Empty(t, s.transactions)
}

func TestRecordPayment_Validation(t *testing.T) {
	l, s := newTestLedger()
	user := uuid.New()
	loan, err := l.CreateLoan(context.Background(), user, carLoan())
	require.NoError(t, err)

	inputs := []PaymentInput{
		{Amount: decimal.Zero, Date: models.NewDate(fixedNow)},
		{Amount: decimal.NewFromInt(-10), Date: models.NewDate(fixedNow)},
		{Amount: decimal.NewFromInt(10)},
	}
	for _, in := range inputs {
		_, err := l.RecordPayment(context.Background(), user, loan.ID, in)
		assert.ErrorIs(t, err, ErrValidation)
	}
	assert.Empty(t, s.payments)
}

func TestListLoans_Enriched(t *testing.T) {
	l, _ := newTestLedger()
	user := uuid.New()
	loan, err := l.CreateLoan(context.Background(), user, carLoan())
	require.NoError(t, err)
	_, err = l.CreateLoan(context.Background(), uuid.New(), carLoan())
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := l.RecordPayment(context.Background(), user, loan.ID, PaymentInput{Amount: loan.EMI, Date: models.NewDate(fixedNow)})
		require.NoError(t, err)
	}

	loans, err := l.ListLoans(context.Background(), user)
	require.NoError(t, err)
	require.Len(t, loans, 1)

	got := loans[0]
	assert.Equal(t, loan.ID, got.ID)
	assert.Equal(t, 3, got.MonthsPaid)
	assert.Equal(t, 9, got.MonthsLeft)
	assert.Equal(t, 25, got.ProgressPct)
	assert.Equal(t, "2024-04-30", got.NextDue.String())
}

func TestGetLoan_NotOwned(t *testing.T) {
	l, _ := newTestLedger()
	loan, err := l.CreateLoan(context.Background(), uuid.New(), carLoan())
	require.NoError(t, err)

	_, err = l.GetLoan(context.Background(), uuid.New(), loan.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeleteLoan_RemovesPayments(t *testing.T) {
	l, s := newTestLedger()
	user := uuid.New()
	loan, err := l.CreateLoan(context.Background(), user, carLoan())
	require.NoError(t, err)
	_, err = l.RecordPayment(context.Background(), user, loan.ID, PaymentInput{Amount: loan.EMI, Date: models.NewDate(fixedNow)})
	require.NoError(t, err)

	assert.ErrorIs(t, l.DeleteLoan(context.Background(), uuid.New(), loan.ID), store.ErrNotFound)
	require.NoError(t, l.DeleteLoan(context.Background(), user, loan.ID))

	assert.Empty(t, s.payments)
	payments, err := l.GetPayments(context.Background(), user, loan.ID)
	require.NoError(t, err)
	assert.Empty(t, payments)
	// the mirrored expense survives
	assert.Len(t, s.transactions, 1)
}
