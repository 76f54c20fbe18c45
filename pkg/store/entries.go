package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/mcclellann/moneymap/pkg/models"
)

// CreateCategory inserts a category.
func (s *SQLStore) CreateCategory(ctx context.Context, category *models.Category) error {
	_, err := s.exec(ctx, `INSERT INTO categories (id, user_id, name, type) VALUES (?, ?, ?, ?)`,
		category.ID.String(), category.UserID.String(), category.Name, string(category.Type))
	if err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}
	return nil
}

// GetCategoryByName finds the user's category with the given name and type.
func (s *SQLStore) GetCategoryByName(ctx context.Context, userID uuid.UUID, name string, entryType models.EntryType) (*models.Category, error) {
	var c models.Category
	row := s.queryRow(ctx,
		`SELECT id, user_id, name, type FROM categories WHERE user_id = ? AND name = ? AND type = ? LIMIT 1`,
		userID.String(), name, string(entryType))
	if err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Type); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return &c, nil
}

// ListCategories returns the user's categories ordered by type then name.
func (s *SQLStore) ListCategories(ctx context.Context, userID uuid.UUID) ([]*models.Category, error) {
	rows, err := s.query(ctx, `SELECT id, user_id, name, type FROM categories WHERE user_id = ? ORDER BY type, name`, userID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	categories := []*models.Category{}
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Type); err != nil {
			return nil, fmt.Errorf("failed to scan category row: %w", err)
		}
		categories = append(categories, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration: %w", err)
	}
	return categories, nil
}

// CreateBudget inserts a monthly budget.
func (s *SQLStore) CreateBudget(ctx context.Context, budget *models.Budget) error {
	_, err := s.exec(ctx, `INSERT INTO budgets (id, user_id, category_id, month, amount) VALUES (?, ?, ?, ?, ?)`,
		budget.ID.String(), budget.UserID.String(), nullUUID(budget.CategoryID), budget.Month, budget.Amount)
	if err != nil {
		return fmt.Errorf("failed to create budget: %w", err)
	}
	return nil
}

// ListBudgets returns the user's budgets with their category names.
func (s *SQLStore) ListBudgets(ctx context.Context, userID uuid.UUID) ([]*models.Budget, error) {
	rows, err := s.query(ctx,
		`SELECT b.id, b.user_id, b.category_id, COALESCE(c.name, ''), b.month, b.amount
		FROM budgets b LEFT JOIN categories c ON b.category_id = c.id
		WHERE b.user_id = ? ORDER BY b.month DESC, c.name`, userID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list budgets: %w", err)
	}
	defer rows.Close()

	budgets := []*models.Budget{}
	for rows.Next() {
		var b models.Budget
		var categoryID uuid.NullUUID
		if err := rows.Scan(&b.ID, &b.UserID, &categoryID, &b.CategoryName, &b.Month, &b.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan budget row: %w", err)
		}
		b.CategoryID = uuidPtr(categoryID)
		budgets = append(budgets, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration: %w", err)
	}
	return budgets, nil
}

// CreateTransaction inserts a new ledger transaction into the database.
func (s *SQLStore) CreateTransaction(ctx context.Context, transaction *models.Transaction) error {
	_, err := s.exec(ctx,
		`INSERT INTO transactions (id, user_id, category_id, type, amount, note, date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		transaction.ID.String(), transaction.UserID.String(), nullUUID(transaction.CategoryID), string(transaction.Type),
		transaction.Amount, transaction.Note, transaction.Date.String(), transaction.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

// ListTransactions returns the user's ledger, newest date first.
func (s *SQLStore) ListTransactions(ctx context.Context, userID uuid.UUID) ([]*models.Transaction, error) {
	rows, err := s.query(ctx,
		`SELECT t.id, t.user_id, t.category_id, COALESCE(c.name, ''), t.type, t.amount, t.note, t.date, t.created_at
		FROM transactions t LEFT JOIN categories c ON t.category_id = c.id
		WHERE t.user_id = ? ORDER BY t.date DESC, t.created_at DESC`, userID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions for user %s: %w", userID, err)
	}
	defer rows.Close()

	transactions := []*models.Transaction{}
	for rows.Next() {
		var t models.Transaction
		var categoryID uuid.NullUUID
		var date string
		if err := rows.Scan(&t.ID, &t.UserID, &categoryID, &t.CategoryName, &t.Type, &t.Amount, &t.Note, &date, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction row: %w", err)
		}
		if t.Date, err = models.ParseDate(date); err != nil {
			return nil, err
		}
		t.CategoryID = uuidPtr(categoryID)
		t.CreatedAt = t.CreatedAt.UTC()
		transactions = append(transactions, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration for transactions: %w", err)
	}
	return transactions, nil
}

func nullUUID(id *uuid.UUID) sql.NullString {
	if id == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: id.String(), Valid: true}
}

func uuidPtr(id uuid.NullUUID) *uuid.UUID {
	if !id.Valid {
		return nil
	}
	v := id.UUID
	return &v
}
