package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/mcclellann/moneymap/pkg/models"
)

var (
	// ErrNotFound is returned when a loan does not exist or is not owned by the caller.
	ErrNotFound = errors.New("loan not found")
	// ErrUserNotFound is returned when no user matches the lookup.
	ErrUserNotFound = errors.New("user not found")
	// ErrCategoryNotFound is returned when no category matches the lookup.
	ErrCategoryNotFound = errors.New("category not found")
	// ErrEmailTaken is returned when registering an email that already exists.
	ErrEmailTaken = errors.New("email already registered")
)

// UserStore persists accounts and their login history.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error
	// RecordLogin appends to the login history and stamps the user's last login.
	RecordLogin(ctx context.Context, event *models.LoginEvent) error
}

// LedgerStore persists categories, budgets and income/expense transactions.
type LedgerStore interface {
	CreateCategory(ctx context.Context, category *models.Category) error
	GetCategoryByName(ctx context.Context, userID uuid.UUID, name string, entryType models.EntryType) (*models.Category, error)
	ListCategories(ctx context.Context, userID uuid.UUID) ([]*models.Category, error)

	CreateBudget(ctx context.Context, budget *models.Budget) error
	ListBudgets(ctx context.Context, userID uuid.UUID) ([]*models.Budget, error)

	CreateTransaction(ctx context.Context, transaction *models.Transaction) error
	ListTransactions(ctx context.Context, userID uuid.UUID) ([]*models.Transaction, error)
}

// LoanStore persists loans and their payments. Every read and delete is scoped to the owning user.
type LoanStore interface {
	CreateLoan(ctx context.Context, loan *models.Loan) error
	GetLoan(ctx context.Context, userID, id uuid.UUID) (*models.Loan, error)
	GetLoansForUser(ctx context.Context, userID uuid.UUID) ([]*models.Loan, error)
	DeleteLoan(ctx context.Context, userID, id uuid.UUID) error

	CreatePayment(ctx context.Context, payment *models.Payment) error
	GetPaymentsForLoan(ctx context.Context, userID, loanID uuid.UUID) ([]*models.Payment, error)
}

// Storage defines the interface for all database operations.
type Storage interface {
	UserStore
	LedgerStore
	LoanStore

	Ping(ctx context.Context) error
	Close() error
}
