package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mcclellann/moneymap/pkg/defaults"
	"github.com/mcclellann/moneymap/pkg/logger"
	"github.com/mcclellann/moneymap/pkg/models"
	"github.com/mcclellann/moneymap/pkg/store"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnauthenticated    = errors.New("authentication required")
	ErrIncorrectPassword  = errors.New("current password is incorrect")
	ErrInvalidInput       = errors.New("invalid input")
)

// UserRepository is the storage the account service needs.
type UserRepository interface {
	store.UserStore
	defaults.Seeder
}

// Service manages accounts and their sessions.
type Service struct {
	users      UserRepository
	sessions   SessionStore
	tokens     *TokenIssuer
	bcryptCost int
	now        func() time.Time
}

func NewService(users UserRepository, sessions SessionStore, tokens *TokenIssuer, bcryptCost int) *Service {
	return &Service{
		users:      users,
		sessions:   sessions,
		tokens:     tokens,
		bcryptCost: bcryptCost,
		now:        time.Now,
	}
}

// Tokens exposes the issuer, e.g. for cookie lifetimes.
func (s *Service) Tokens() *TokenIssuer {
	return s.tokens
}

// NormalizeEmail trims and lowercases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an account and seeds its default categories and budgets.
func (s *Service) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	name = strings.TrimSpace(name)
	email = NormalizeEmail(email)
	if name == "" || email == "" || password == "" {
		return nil, fmt.Errorf("%w: name, email and password are required", ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: malformed email", ErrInvalidInput)
	}

	hash, err := s.hash(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	if err := defaults.Onboard(ctx, s.users, user.ID, user.CreatedAt); err != nil {
		logger.Warn(ctx, "onboarding incomplete", zap.String("user_id", user.ID.String()), zap.Error(err))
	}

	logger.Info(ctx, "user registered", zap.String("user_id", user.ID.String()))
	return user, nil
}

func (s *Service) hash(password string) (string, error) {
	hash, err := HashPassword(password, s.bcryptCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", fmt.Errorf("%w: password must be at most %d bytes", ErrInvalidInput, MaxPasswordBytes)
	}
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return hash, nil
}

// Login checks credentials, records the login and issues a session token.
func (s *Service) Login(ctx context.Context, email, password, ipAddress string) (*models.User, string, *Claims, error) {
	user, err := s.users.GetUserByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, "", nil, ErrInvalidCredentials
		}
		return nil, "", nil, err
	}
	if !CheckPasswordHash(password, user.PasswordHash) {
		return nil, "", nil, ErrInvalidCredentials
	}

	now := s.now().UTC()
	event := &models.LoginEvent{
		ID:        uuid.New(),
		UserID:    user.ID,
		LoginTime: now,
		IPAddress: ipAddress,
	}
	if err := s.users.RecordLogin(ctx, event); err != nil {
		return nil, "", nil, err
	}
	user.LastLogin = &now

	token, claims, err := s.tokens.Issue(user)
	if err != nil {
		return nil, "", nil, err
	}
	return user, token, claims, nil
}

// Authenticate validates a token and rejects revoked sessions.
func (s *Service) Authenticate(ctx context.Context, token string) (*Claims, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, err
	}
	revoked, err := s.sessions.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check session: %w", err)
	}
	if revoked {
		return nil, ErrUnauthenticated
	}
	return claims, nil
}

// Logout revokes the session until its token would have expired.
func (s *Service) Logout(ctx context.Context, claims *Claims) error {
	if claims == nil || claims.ExpiresAt == nil {
		return nil
	}
	ttl := claims.ExpiresAt.Sub(s.now())
	if err := s.sessions.Revoke(ctx, claims.ID, ttl); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}

// ChangePassword replaces the password after checking the current one.
func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) error {
	if newPassword == "" {
		return fmt.Errorf("%w: new password is required", ErrInvalidInput)
	}
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if !CheckPasswordHash(oldPassword, user.PasswordHash) {
		return ErrIncorrectPassword
	}

	hash, err := s.hash(newPassword)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, userID, hash)
}

// Profile returns the account for userID.
func (s *Service) Profile(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	return s.users.GetUser(ctx, userID)
}
