package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/g-mayer/user-service/internal/domain"
)

type cachedUser struct {
	domain.User
	HashedPassword string `json:"hashed_password"`
}

// cachedUserRepository is a read-through Redis cache over a UserRepository.
// Cache problems are logged and fall through to Postgres; the cache never
// turns a working lookup into a failure.
type cachedUserRepository struct {
	inner  UserRepository
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedUserRepository decorates repo with a Redis cache. When client is
// nil the repository is returned unwrapped.
func NewCachedUserRepository(repo UserRepository, client *redis.Client, ttl time.Duration, logger *zap.Logger) UserRepository {
	if client == nil {
		return repo
	}
	return &cachedUserRepository{inner: repo, client: client, ttl: ttl, logger: logger}
}

func userIDKey(id uuid.UUID) string { return "user:id:" + id.String() }

func userEmailKey(email string) string { return "user:email:" + email }

func (r *cachedUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	if user, ok := r.fetch(ctx, userIDKey(id)); ok {
		return user, nil
	}
	user, err := r.inner.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.store(ctx, userIDKey(id), user)
	return user, nil
}

func (r *cachedUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if user, ok := r.fetch(ctx, userEmailKey(email)); ok {
		return user, nil
	}
	user, err := r.inner.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	r.store(ctx, userEmailKey(email), user)
	return user, nil
}

func (r *cachedUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.inner.GetByUsername(ctx, username)
}

func (r *cachedUserRepository) List(ctx context.Context) ([]domain.User, error) {
	return r.inner.List(ctx)
}

func (r *cachedUserRepository) Create(ctx context.Context, user *domain.User) error {
	return r.inner.Create(ctx, user)
}

func (r *cachedUserRepository) Update(ctx context.Context, user *domain.User) error {
	if err := r.inner.Update(ctx, user); err != nil {
		return err
	}
	r.invalidate(ctx, user)
	return nil
}

func (r *cachedUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	user, err := r.inner.GetByID(ctx, id)
	if err == nil {
		defer r.invalidate(ctx, user)
	}
	return r.inner.Delete(ctx, id)
}

func (r *cachedUserRepository) fetch(ctx context.Context, key string) (*domain.User, bool) {
	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			r.logger.Debug("user cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	var cached cachedUser
	if err := json.Unmarshal(raw, &cached); err != nil {
		r.logger.Warn("user cache entry corrupt", zap.String("key", key), zap.Error(err))
		_ = r.client.Del(ctx, key).Err()
		return nil, false
	}
	user := cached.User
	user.HashedPassword = cached.HashedPassword
	return &user, true
}

func (r *cachedUserRepository) store(ctx context.Context, key string, user *domain.User) {
	raw, err := json.Marshal(cachedUser{User: *user, HashedPassword: user.HashedPassword})
	if err != nil {
		return
	}
	if err := r.client.Set(ctx, key, raw, r.ttl).Err(); err != nil {
		r.logger.Debug("user cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (r *cachedUserRepository) invalidate(ctx context.Context, user *domain.User) {
	if err := r.client.Del(ctx, userIDKey(user.ID), userEmailKey(user.Email)).Err(); err != nil {
		r.logger.Debug("user cache invalidation failed", zap.Error(err))
	}
}
