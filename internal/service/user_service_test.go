package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/g-mayer/user-service/internal/auth"
	"github.com/g-mayer/user-service/internal/domain"
	"github.com/g-mayer/user-service/internal/events"
	apperrors "github.com/g-mayer/user-service/pkg/util"
)

func newUserService(repo *fakeUserRepo) *UserService {
	return NewUserService(repo, events.NewInMemoryDispatcher(), 4)
}

func TestCreateUserHashesPassword(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newUserService(repo)

	user, err := svc.Create(context.Background(), CreateUserInput{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "s3cret",
		Timezone: "Europe/Berlin",
		Role:     domain.RoleUser,
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, user.ID)
	assert.NotEqual(t, "s3cret", user.HashedPassword)
	assert.NoError(t, auth.ComparePassword(user.HashedPassword, "s3cret"))
}

func TestCreateUserDuplicate(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newUserService(repo)

	input := CreateUserInput{Username: "bob", Email: "bob@example.com", Password: "pw", Role: domain.RoleUser}
	_, err := svc.Create(context.Background(), input)
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), input)
	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "VALIDATION_FAILED", domainErr.Code)
}

func TestCreateUserInvalidRole(t *testing.T) {
	svc := newUserService(newFakeUserRepo())

	_, err := svc.Create(context.Background(), CreateUserInput{
		Username: "eve", Email: "eve@example.com", Password: "pw", Role: domain.Role(9),
	})
	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "VALIDATION_FAILED", domainErr.Code)
}

func TestUpdateUserPartial(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newUserService(repo)

	created, err := svc.Create(context.Background(), CreateUserInput{
		Username: "carol", Email: "carol@example.com", Password: "pw", Timezone: "UTC", Role: domain.RoleGuest,
	})
	require.NoError(t, err)

	newRole := domain.RoleAdmin
	newPassword := "rotated"
	updated, err := svc.Update(context.Background(), created.ID, UpdateUserInput{
		Role:     &newRole,
		Password: &newPassword,
	})
	require.NoError(t, err)
	assert.Equal(t, "carol", updated.Username)
	assert.Equal(t, domain.RoleAdmin, updated.Role)
	assert.NoError(t, auth.ComparePassword(updated.HashedPassword, "rotated"))
}

func TestUpdateUserNotFound(t *testing.T) {
	svc := newUserService(newFakeUserRepo())

	_, err := svc.Update(context.Background(), uuid.New(), UpdateUserInput{})
	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "NOT_FOUND", domainErr.Code)
}

func TestDeleteUser(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newUserService(repo)

	created, err := svc.Create(context.Background(), CreateUserInput{
		Username: "dave", Email: "dave@example.com", Password: "pw", Role: domain.RoleUser,
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), created.ID))

	_, err = svc.FindByID(context.Background(), created.ID)
	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "NOT_FOUND", domainErr.Code)
}

func TestLookupFailureIsRecoverable(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newUserService(repo)
	repo.failWith = assert.AnError

	_, err := svc.List(context.Background())
	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, apperrors.CodeLookupFailure, domainErr.Code)
	assert.Equal(t, "internal server error", domainErr.Message)
}

func TestSeed(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newUserService(repo)

	user, err := svc.Seed(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "admin@admin.com", user.Email)
	assert.Equal(t, domain.RoleUser, user.Role)
	assert.NoError(t, auth.ComparePassword(user.HashedPassword, "admin"))

	_, err = svc.Seed(context.Background())
	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "CONFLICT", domainErr.Code)
}
