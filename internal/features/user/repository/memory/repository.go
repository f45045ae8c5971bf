// Package memory keeps users in process memory. It backs STORAGE_DRIVER=memory
// for local runs and the service and HTTP tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"user-management-backend/internal/features/user/models"
	"user-management-backend/internal/features/user/repository"
)

type memoryRepository struct {
	mu    sync.RWMutex
	users map[uuid.UUID]*models.User
}

func NewMemoryRepository() repository.UserRepository {
	return &memoryRepository{users: make(map[uuid.UUID]*models.User)}
}

func (r *memoryRepository) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.ID]; ok {
		return repository.ErrUserAlreadyExists
	}
	if err := r.checkUnique(user); err != nil {
		return err
	}
	r.users[user.ID] = clone(user)
	return nil
}

func (r *memoryRepository) CreateFirst(_ context.Context, user *models.User) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.users) > 0 {
		return false, nil
	}
	r.users[user.ID] = clone(user)
	return true, nil
}

func (r *memoryRepository) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if u, ok := r.users[id]; ok {
		return clone(u), nil
	}
	return nil, repository.ErrUserNotFound
}

func (r *memoryRepository) GetByEmail(_ context.Context, email string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return strings.EqualFold(u.Email, email) })
}

func (r *memoryRepository) GetByNickname(_ context.Context, nickname string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.Nickname == nickname })
}

func (r *memoryRepository) GetByTelegramID(_ context.Context, telegramID int64) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.TelegramID != nil && *u.TelegramID == telegramID })
}

func (r *memoryRepository) Update(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.users[user.ID]
	if !ok {
		return repository.ErrUserNotFound
	}
	if !stored.UpdatedAt.Equal(user.UpdatedAt) {
		return repository.ErrStaleUser
	}
	if err := r.checkUnique(user); err != nil {
		return err
	}
	user.UpdatedAt = nextVersion(stored.UpdatedAt)
	r.users[user.ID] = clone(user)
	return nil
}

func (r *memoryRepository) RecordFailedLogin(_ context.Context, id uuid.UUID, maxAttempts int) (int, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return 0, false, repository.ErrUserNotFound
	}
	u.FailedLoginAttempts++
	if u.FailedLoginAttempts >= maxAttempts {
		u.IsLocked = true
	}
	u.UpdatedAt = nextVersion(u.UpdatedAt)
	return u.FailedLoginAttempts, u.IsLocked, nil
}

func (r *memoryRepository) RecordLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	if u.IsLocked {
		return repository.ErrUserLocked
	}
	u.FailedLoginAttempts = 0
	u.LastLoginAt = &at
	u.UpdatedAt = nextVersion(u.UpdatedAt)
	return nil
}

func (r *memoryRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return repository.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *memoryRepository) List(_ context.Context, skip, limit int) ([]*models.User, error) {
	r.mu.RLock()
	all := make([]*models.User, 0, len(r.users))
	for _, u := range r.users {
		all = append(all, clone(u))
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID.String() < all[j].ID.String()
		}
		return all[i].CreatedAt.Before(all[j].CreatedAt)
	})

	if skip >= len(all) {
		return []*models.User{}, nil
	}
	end := skip + limit
	if end > len(all) {
		end = len(all)
	}
	return all[skip:end], nil
}

func (r *memoryRepository) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users), nil
}

func (r *memoryRepository) find(match func(*models.User) bool) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if match(u) {
			return clone(u), nil
		}
	}
	return nil, repository.ErrUserNotFound
}

// checkUnique mirrors the unique constraints of the users table. Caller holds the lock.
func (r *memoryRepository) checkUnique(user *models.User) error {
	for id, other := range r.users {
		if id == user.ID {
			continue
		}
		switch {
		case strings.EqualFold(other.Email, user.Email):
			return repository.ErrEmailTaken
		case other.Nickname == user.Nickname:
			return repository.ErrNicknameTaken
		case user.TelegramID != nil && other.TelegramID != nil && *user.TelegramID == *other.TelegramID:
			return repository.ErrTelegramIDTaken
		}
	}
	return nil
}

// nextVersion returns a timestamp strictly after prev.
func nextVersion(prev time.Time) time.Time {
	now := time.Now().UTC()
	if !now.After(prev) {
		now = prev.Add(time.Nanosecond)
	}
	return now
}

func clone(u *models.User) *models.User {
	c := *u
	return &c
}
