package redis

import (
	"context"
	"fmt"
	"time"

	"user-management-backend/internal/common/cache"
)

const revokedKeyPrefix = "revoked_token:"

// RevocationStore remembers logged out token ids until they expire.
type RevocationStore struct {
	cache *cache.CacheService
}

func NewRevocationStore(c *cache.CacheService) *RevocationStore {
	return &RevocationStore{cache: c}
}

// Revoke marks jti as revoked until expiresAt. Already expired tokens are ignored.
func (s *RevocationStore) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	if err := s.cache.Set(ctx, revokedKeyPrefix+jti, 1, ttl); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

func (s *RevocationStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	revoked, err := s.cache.Exists(ctx, revokedKeyPrefix+jti)
	if err != nil {
		return false, fmt.Errorf("failed to check token revocation: %w", err)
	}
	return revoked, nil
}
