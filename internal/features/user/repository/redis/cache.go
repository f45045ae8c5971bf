package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"user-management-backend/internal/common/cache"
	"user-management-backend/internal/features/user/models"
)

const userKeyPrefix = "user:id:"

// UserCache keeps read-side copies of users. Cached users never carry the
// password hash, so they must not be written back to storage.
type UserCache interface {
	Get(ctx context.Context, id uuid.UUID) (*models.User, bool, error)
	Set(ctx context.Context, user *models.User) error
	Invalidate(ctx context.Context, id uuid.UUID) error
}

type userCache struct {
	cache *cache.CacheService
	ttl   time.Duration
}

func NewUserCache(c *cache.CacheService, ttl time.Duration) UserCache {
	return &userCache{cache: c, ttl: ttl}
}

func userKey(id uuid.UUID) string {
	return fmt.Sprintf("%s%s", userKeyPrefix, id)
}

func (c *userCache) Get(ctx context.Context, id uuid.UUID) (*models.User, bool, error) {
	var user models.User
	if err := c.cache.Get(ctx, userKey(id), &user); err != nil {
		if errors.Is(err, cache.ErrMiss) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return &user, true, nil
}

func (c *userCache) Set(ctx context.Context, user *models.User) error {
	return c.cache.Set(ctx, userKey(user.ID), user, c.ttl)
}

func (c *userCache) Invalidate(ctx context.Context, id uuid.UUID) error {
	return c.cache.Delete(ctx, userKey(id))
}

type noopCache struct{}

// NewNoopCache returns a cache that never stores anything.
func NewNoopCache() UserCache { return noopCache{} }

func (noopCache) Get(context.Context, uuid.UUID) (*models.User, bool, error) { return nil, false, nil }
func (noopCache) Set(context.Context, *models.User) error { return nil }
func (noopCache) Invalidate(context.Context, uuid.UUID) error { return nil }
