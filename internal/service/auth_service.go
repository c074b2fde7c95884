package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/g-mayer/user-service/internal/auth"
	"github.com/g-mayer/user-service/internal/config"
	"github.com/g-mayer/user-service/internal/domain"
	"github.com/g-mayer/user-service/internal/events"
	"github.com/g-mayer/user-service/internal/repository"
)

// Credential failure classes. The caller decides how much of the distinction
// to expose; both map to 401 on the HTTP surface.
var (
	ErrUserNotFound     = errors.New("user not found")
	ErrPasswordMismatch = errors.New("password verification failed")
)

// AuthService verifies login credentials and issues tokens. It holds no
// session state; a successful login only produces a signed token.
type AuthService struct {
	users      repository.UserRepository
	tokens     *auth.TokenManager
	dispatcher events.Dispatcher
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, users repository.UserRepository, dispatcher events.Dispatcher) *AuthService {
	return &AuthService{
		users:      users,
		tokens:     auth.NewTokenManager(cfg.Auth),
		dispatcher: dispatcher,
	}
}

// VerifyCredentials authenticates an email/password pair against the stored
// bcrypt hash. Lookup failures other than an absent user propagate wrapped
// so the transport layer can map them to a generic lookup failure.
func (s *AuthService) VerifyCredentials(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("lookup user by email: %w", err)
	}
	if err := auth.ComparePassword(user.HashedPassword, password); err != nil {
		return nil, ErrPasswordMismatch
	}
	return user, nil
}

// Login verifies credentials and, on success, issues a token carrying the
// user's role as of this moment. Later role changes do not affect the token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, string, time.Time, error) {
	user, err := s.VerifyCredentials(ctx, email, password)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	token, expiresAt, err := s.tokens.Issue(user.ID.String(), user.Role)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventUserLoggedIn,
			UserID:    user.ID.String(),
			Timestamp: time.Now(),
			Payload:   events.UserLoggedInPayload{Email: user.Email, Role: user.Role},
		})
	}
	return user, token, expiresAt, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokens
}
