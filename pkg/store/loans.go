package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/mcclellann/moneymap/pkg/models"
)

const loanColumns = `id, user_id, loan_name, principal, rate, tenure, emi, total_int, created_at`

// CreateLoan inserts a new loan into the database.
func (s *SQLStore) CreateLoan(ctx context.Context, loan *models.Loan) error {
	_, err := s.exec(ctx,
		`INSERT INTO loans (`+loanColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		loan.ID.String(), loan.UserID.String(), loan.Name, loan.Principal, loan.Rate, loan.Tenure, loan.EMI, loan.TotalInterest, loan.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to create loan: %w", err)
	}
	return nil
}

// GetLoan retrieves a loan owned by userID. Loans owned by anyone else are reported as ErrNotFound.
func (s *SQLStore) GetLoan(ctx context.Context, userID, id uuid.UUID) (*models.Loan, error) {
	row := s.queryRow(ctx, `SELECT `+loanColumns+` FROM loans WHERE id = ? AND user_id = ?`, id.String(), userID.String())

	loan, err := scanLoan(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get loan: %w", err)
	}
	return loan, nil
}

// GetLoansForUser retrieves all loans owned by userID, oldest first.
func (s *SQLStore) GetLoansForUser(ctx context.Context, userID uuid.UUID) ([]*models.Loan, error) {
	rows, err := s.query(ctx, `SELECT `+loanColumns+` FROM loans WHERE user_id = ? ORDER BY created_at ASC`, userID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to get loans: %w", err)
	}
	defer rows.Close()

	loans := []*models.Loan{}
	for rows.Next() {
		loan, err := scanLoan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan loan row: %w", err)
		}
		loans = append(loans, loan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration: %w", err)
	}
	return loans, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLoan(row rowScanner) (*models.Loan, error) {
	var loan models.Loan
	if err := row.Scan(&loan.ID, &loan.UserID, &loan.Name, &loan.Principal, &loan.Rate, &loan.Tenure, &loan.EMI, &loan.TotalInterest, &loan.CreatedAt); err != nil {
		return nil, err
	}
	loan.CreatedAt = loan.CreatedAt.UTC()
	return &loan, nil
}

// DeleteLoan removes a loan and its payments from the database within a transaction.
func (s *SQLStore) DeleteLoan(ctx context.Context, userID, id uuid.UUID) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, s.rebind(
		`DELETE FROM emi_payments WHERE loan_id IN (SELECT id FROM loans WHERE id = ? AND user_id = ?)`),
		id.String(), userID.String())
	if err != nil {
		return fmt.Errorf("failed to delete associated payments: %w", err)
	}

	result, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM loans WHERE id = ? AND user_id = ?`), id.String(), userID.String())
	if err != nil {
		return fmt.Errorf("failed to delete loan: %w", err)
	}
	if err := requireRow(result, ErrNotFound); err != nil {
		return err
	}

	return tx.Commit()
}

// CreatePayment inserts a payment. The caller checks loan ownership first.
func (s *SQLStore) CreatePayment(ctx context.Context, payment *models.Payment) error {
	_, err := s.exec(ctx,
		`INSERT INTO emi_payments (id, loan_id, amount, paid_date, note, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		payment.ID.String(), payment.LoanID.String(), payment.Amount, payment.PaidDate.String(), payment.Note, payment.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

// GetPaymentsForLoan returns the payment history of a loan owned by userID, most recent
// paid date first. A missing or foreign loan yields an empty history.
func (s *SQLStore) GetPaymentsForLoan(ctx context.Context, userID, loanID uuid.UUID) ([]*models.Payment, error) {
	rows, err := s.query(ctx,
		`SELECT p.id, p.loan_id, p.amount, p.paid_date, p.note, p.created_at
		FROM emi_payments p JOIN loans l ON l.id = p.loan_id
		WHERE p.loan_id = ? AND l.user_id = ?
		ORDER BY p.paid_date DESC, p.created_at DESC`, loanID.String(), userID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to get payments for loan %s: %w", loanID, err)
	}
	defer rows.Close()

	payments := []*models.Payment{}
	for rows.Next() {
		var p models.Payment
		var paidDate string
		if err := rows.Scan(&p.ID, &p.LoanID, &p.Amount, &paidDate, &p.Note, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan payment row: %w", err)
		}
		if p.PaidDate, err = models.ParseDate(paidDate); err != nil {
			return nil, err
		}
		p.CreatedAt = p.CreatedAt.UTC()
		payments = append(payments, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration for loan payments: %w", err)
	}
	return payments, nil
}
