package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/g-mayer/user-service/internal/auth"
	"github.com/g-mayer/user-service/internal/config"
	"github.com/g-mayer/user-service/internal/domain"
	"github.com/g-mayer/user-service/internal/events"
)

type fakeUserRepo struct {
	mu       sync.Mutex
	users    map[uuid.UUID]*domain.User
	failWith error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*domain.User)}
}

func (r *fakeUserRepo) add(user *domain.User) *domain.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	copied := *user
	r.users[user.ID] = &copied
	return user
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	if r.failWith != nil {
		return r.failWith
	}
	r.mu.Lock()
	for _, existing := range r.users {
		if existing.Email == user.Email || existing.Username == user.Username {
			r.mu.Unlock()
			return &pgconn.PgError{Code: "23505"}
		}
	}
	r.mu.Unlock()
	user.ID = uuid.New()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	r.add(user)
	return nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *domain.User) error {
	if r.failWith != nil {
		return r.failWith
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id uuid.UUID) error {
	if r.failWith != nil {
		return r.failWith
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.users, id)
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	if r.failWith != nil {
		return nil, r.failWith
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if user, ok := r.users[id]; ok {
		copied := *user
		return &copied, nil
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	if r.failWith != nil {
		return nil, r.failWith
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	if r.failWith != nil {
		return nil, r.failWith
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Username == username {
			copied := *user
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) List(_ context.Context) ([]domain.User, error) {
	if r.failWith != nil {
		return nil, r.failWith
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.User, 0, len(r.users))
	for _, user := range r.users {
		out = append(out, *user)
	}
	return out, nil
}

func testConfig() config.Config {
	return config.Config{Auth: config.AuthConfig{
		JWTSecret:       "test-secret",
		TokenTTLMinutes: 60,
		BcryptCost:      4,
	}}
}

func seedUser(t *testing.T, repo *fakeUserRepo, email, password string, role domain.Role) *domain.User {
	t.Helper()
	hash, err := auth.HashPassword(password, 4)
	require.NoError(t, err)
	return repo.add(&domain.User{
		ID:             uuid.New(),
		Username:       email,
		Email:          email,
		HashedPassword: hash,
		Timezone:       "UTC",
		Role:           role,
	})
}

func TestVerifyCredentials(t *testing.T) {
	repo := newFakeUserRepo()
	seedUser(t, repo, "known@example.com", "correct horse", domain.RoleUser)
	svc := NewAuthService(testConfig(), repo, nil)

	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.VerifyCredentials(context.Background(), "nobody@example.com", "whatever")
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.VerifyCredentials(context.Background(), "known@example.com", "wrong")
		assert.ErrorIs(t, err, ErrPasswordMismatch)
	})

	t.Run("correct credentials", func(t *testing.T) {
		user, err := svc.VerifyCredentials(context.Background(), "known@example.com", "correct horse")
		require.NoError(t, err)
		assert.Equal(t, "known@example.com", user.Email)
	})

	t.Run("lookup failure propagates wrapped", func(t *testing.T) {
		repo.failWith = errors.New("pool exhausted")
		defer func() { repo.failWith = nil }()

		_, err := svc.VerifyCredentials(context.Background(), "known@example.com", "correct horse")
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrUserNotFound)
		assert.NotErrorIs(t, err, ErrPasswordMismatch)
	})
}

func TestLoginIssuesRoleSnapshot(t *testing.T) {
	repo := newFakeUserRepo()
	stored := seedUser(t, repo, "admin@admin.com", "admin", domain.RoleAdmin)
	dispatcher := events.NewInMemoryDispatcher()

	var published []events.Event
	dispatcher.Subscribe(events.EventUserLoggedIn, func(_ context.Context, event events.Event) error {
		published = append(published, event)
		return nil
	})

	svc := NewAuthService(testConfig(), repo, dispatcher)

	user, token, expiresAt, err := svc.Login(context.Background(), "admin@admin.com", "admin")
	require.NoError(t, err)
	assert.Equal(t, stored.ID, user.ID)
	assert.True(t, expiresAt.After(time.Now()))

	claims, err := svc.TokenManager().Verify(token)
	require.NoError(t, err)
	assert.Equal(t, stored.ID.String(), claims.UserID())
	assert.Equal(t, domain.RoleAdmin, claims.Role)

	// The role inside the token is a snapshot; flipping it in storage after
	// issuance does not change what the token carries.
	stored.Role = domain.RoleGuest
	repo.add(stored)
	claims, err = svc.TokenManager().Verify(token)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, claims.Role)

	require.Len(t, published, 1)
	assert.Equal(t, stored.ID.String(), published[0].UserID)
}
