package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mcclellann/moneymap/pkg/models"
)

const userColumns = `id, name, email, password_hash, created_at, last_login`

// CreateUser inserts a new user. Returns ErrEmailTaken when the email is already registered.
func (s *SQLStore) CreateUser(ctx context.Context, user *models.User) error {
	_, err := s.exec(ctx,
		`INSERT INTO users (id, name, email, password_hash, created_at, last_login) VALUES (?, ?, ?, ?, ?, ?)`,
		user.ID.String(), user.Name, user.Email, user.PasswordHash, user.CreatedAt.UTC(), nullTime(user.LastLogin),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailTaken
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUser retrieves a user by ID.
func (s *SQLStore) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	row := s.queryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id.String())
	return scanUser(row)
}

// GetUserByEmail retrieves a user by email. The caller normalises the email.
func (s *SQLStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	row := s.queryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	return scanUser(row)
}

func scanUser(row *sql.Row) (*models.User, error) {
	var user models.User
	var lastLogin sql.NullTime
	err := row.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.CreatedAt, &lastLogin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	user.CreatedAt = user.CreatedAt.UTC()
	if lastLogin.Valid {
		t := lastLogin.Time.UTC()
		user.LastLogin = &t
	}
	return &user, nil
}

// UpdatePassword replaces the stored password hash.
func (s *SQLStore) UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	result, err := s.exec(ctx, `UPDATE users SET password_hash = ? WHERE id = ?`, passwordHash, userID.String())
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return requireRow(result, ErrUserNotFound)
}

// RecordLogin appends the login event and updates last_login within a transaction.
func (s *SQLStore) RecordLogin(ctx context.Context, event *models.LoginEvent) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, s.rebind(`INSERT INTO login_history (id, user_id, login_time, ip_address) VALUES (?, ?, ?, ?)`),
		event.ID.String(), event.UserID.String(), event.LoginTime.UTC(), event.IPAddress)
	if err != nil {
		return fmt.Errorf("failed to record login: %w", err)
	}

	result, err := tx.ExecContext(ctx, s.rebind(`UPDATE users SET last_login = ? WHERE id = ?`),
		event.LoginTime.UTC(), event.UserID.String())
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	if err := requireRow(result, ErrUserNotFound); err != nil {
		return err
	}

	return tx.Commit()
}

func requireRow(result sql.Result, notFound error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return notFound
	}
	return nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
