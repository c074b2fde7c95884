package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/g-mayer/user-service/internal/auth"
	"github.com/g-mayer/user-service/internal/domain"
	"github.com/g-mayer/user-service/internal/events"
	"github.com/g-mayer/user-service/internal/repository"
	apperrors "github.com/g-mayer/user-service/pkg/util"
)

const uniqueViolationCode = "23505"

// CreateUserInput carries fields for a new account.
type CreateUserInput struct {
	Username string
	Email    string
	Password string
	Timezone string
	Role     domain.Role
}

// UpdateUserInput carries optional fields for a partial update.
type UpdateUserInput struct {
	Username *string
	Email    *string
	Password *string
	Timezone *string
	Role     *domain.Role
}

// UserService implements the user-management collaborator: lookups for the
// auth core plus the CRUD surface behind the protected route group.
type UserService struct {
	users      repository.UserRepository
	dispatcher events.Dispatcher
	bcryptCost int
}

// NewUserService builds the service.
func NewUserService(users repository.UserRepository, dispatcher events.Dispatcher, bcryptCost int) *UserService {
	return &UserService{users: users, dispatcher: dispatcher, bcryptCost: bcryptCost}
}

// FindByID returns the user with the given id.
func (s *UserService) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	return user, mapLookupErr(err)
}

// FindByEmail returns the user with the given email.
func (s *UserService) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	return user, mapLookupErr(err)
}

// FindByUsername returns the user with the given username.
func (s *UserService) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	return user, mapLookupErr(err)
}

// List returns all users.
func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, apperrors.NewLookupFailure(err)
	}
	return users, nil
}

// Create hashes the password and stores a new user.
func (s *UserService) Create(ctx context.Context, input CreateUserInput) (*domain.User, error) {
	if !input.Role.Valid() {
		return nil, apperrors.NewValidationError("invalid role", nil)
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Username:       input.Username,
		Email:          input.Email,
		HashedPassword: hash,
		Timezone:       input.Timezone,
		Role:           input.Role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.NewValidationError("user already exists", nil)
		}
		return nil, apperrors.NewLookupFailure(err)
	}

	s.publish(ctx, events.EventUserCreated, user.ID.String(), events.UserCreatedPayload{
		Username: user.Username,
		Email:    user.Email,
		Role:     user.Role,
	})
	return user, nil
}

// Update applies the provided fields to an existing user. A present password
// is re-hashed before storage.
func (s *UserService) Update(ctx context.Context, id uuid.UUID, input UpdateUserInput) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, mapLookupErr(err)
	}

	var changed []string
	if input.Username != nil {
		user.Username = *input.Username
		changed = append(changed, "username")
	}
	if input.Email != nil {
		user.Email = *input.Email
		changed = append(changed, "email")
	}
	if input.Timezone != nil {
		user.Timezone = *input.Timezone
		changed = append(changed, "timezone")
	}
	if input.Role != nil {
		if !input.Role.Valid() {
			return nil, apperrors.NewValidationError("invalid role", nil)
		}
		user.Role = *input.Role
		changed = append(changed, "role")
	}
	if input.Password != nil {
		hash, err := auth.HashPassword(*input.Password, s.bcryptCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		user.HashedPassword = hash
		changed = append(changed, "password")
	}

	if err := s.users.Update(ctx, user); err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.NewValidationError("user already exists", nil)
		}
		return nil, mapLookupErr(err)
	}

	s.publish(ctx, events.EventUserUpdated, user.ID.String(), events.UserUpdatedPayload{ChangedFields: changed})
	return user, nil
}

// Delete removes a user.
func (s *UserService) Delete(ctx context.Context, id uuid.UUID) error {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return mapLookupErr(err)
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return mapLookupErr(err)
	}
	s.publish(ctx, events.EventUserDeleted, id.String(), events.UserDeletedPayload{Email: user.Email})
	return nil
}

// Seed creates the development login record. Admins can then sign in with
// admin@admin.com / admin.
func (s *UserService) Seed(ctx context.Context) (*domain.User, error) {
	user, err := s.Create(ctx, CreateUserInput{
		Username: "admin",
		Email:    "admin@admin.com",
		Password: "admin",
		Timezone: "America/Los_Angeles",
		Role:     domain.RoleUser,
	})
	if err != nil {
		var domainErr *apperrors.DomainError
		if errors.As(err, &domainErr) && domainErr.Code == "VALIDATION_FAILED" {
			return nil, apperrors.NewConflict("data may already be seeded", nil)
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) publish(ctx context.Context, eventType events.EventType, userID string, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		UserID:    userID,
		Timestamp: time.Now(),
		Payload:   payload,
	})
}

func mapLookupErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound("user", nil)
	}
	return apperrors.NewLookupFailure(err)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}
