package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"user-management-backend/internal/features/user/models"
	"user-management-backend/internal/features/user/repository"
)

func newUser(nickname, email string, createdAt time.Time) *models.User {
	return &models.User{
		ID:        uuid.New(),
		Nickname:  nickname,
		Email:     email,
		Role:      models.RoleAuthenticated,
		CreatedAt: createdAt,
	}
}

func TestMemoryRepository_CRUD(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	now := time.Now()

	u := newUser("john_doe", "john@example.com", now)
	require.NoError(t, repo.Create(ctx, u))

	got, err := repo.GetByEmail(ctx, "JOHN@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	got.Nickname = "mutated"
	again, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "john_doe", again.Nickname, "stored user must not alias returned copies")

	again.Nickname = "john_smith"
	require.NoError(t, repo.Update(ctx, again))
	_, err = repo.GetByNickname(ctx, "john_smith")
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, u.ID))
	_, err = repo.GetByID(ctx, u.ID)
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}

func TestMemoryRepository_UniqueConstraints(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	now := time.Now()
	tg := int64(777)

	first := newUser("first", "first@example.com", now)
	first.TelegramID = &tg
	require.NoError(t, repo.Create(ctx, first))

	assert.ErrorIs(t, repo.Create(ctx, newUser("second", "FIRST@example.com", now)), repository.ErrEmailTaken)
	assert.ErrorIs(t, repo.Create(ctx, newUser("first", "second@example.com", now)), repository.ErrNicknameTaken)

	third := newUser("third", "third@example.com", now)
	third.TelegramID = &tg
	assert.ErrorIs(t, repo.Create(ctx, third), repository.ErrTelegramIDTaken)

	found, err := repo.GetByTelegramID(ctx, tg)
	require.NoError(t, err)
	assert.Equal(t, first.ID, found.ID)
}

func TestMemoryRepository_ListPagination(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	base := time.Now()

	for i, nick := range []string{"a_user", "b_user", "c_user"} {
		require.NoError(t, repo.Create(ctx, newUser(nick, nick+"@example.com", base.Add(time.Duration(i)*time.Second))))
	}

	page, err := repo.List(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "b_user", page[0].Nickname)

	empty, err := repo.List(ctx, 10, 5)
	require.NoError(t, err)
	assert.Empty(t, empty)

	total, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
}

func TestMemoryRepository_StaleUpdate(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	u := newUser("stale", "stale@example.com", time.Now())
	require.NoError(t, repo.Create(ctx, u))

	a, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	b, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)

	a.IsProfessional = true
	require.NoError(t, repo.Update(ctx, a))
	assert.True(t, a.UpdatedAt.After(b.UpdatedAt))

	b.Role = models.RoleAdmin
	assert.ErrorIs(t, repo.Update(ctx, b), repository.ErrStaleUser)

	got, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, got.IsProfessional)
	assert.Equal(t, models.RoleAuthenticated, got.Role)
}

func TestMemoryRepository_RecordFailedLoginConcurrent(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	u := newUser("locked", "locked@example.com", time.Now())
	require.NoError(t, repo.Create(ctx, u))

	const n = 50
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		crossings int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			attempts, locked, err := repo.RecordFailedLogin(ctx, u.ID, 5)
			assert.NoError(t, err)
			if locked && attempts == 5 {
				mu.Lock()
				crossings++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	got, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, n, got.FailedLoginAttempts)
	assert.True(t, got.IsLocked)
	assert.Equal(t, 1, crossings)

	assert.ErrorIs(t, repo.RecordLogin(ctx, u.ID, time.Now()), repository.ErrUserLocked)

	_, _, err = repo.RecordFailedLogin(ctx, uuid.New(), 5)
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}

func TestMemoryRepository_RecordLoginResetsCounter(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	u := newUser("ok", "ok@example.com", time.Now())
	require.NoError(t, repo.Create(ctx, u))

	_, locked, err := repo.RecordFailedLogin(ctx, u.ID, 3)
	require.NoError(t, err)
	require.False(t, locked)

	at := time.Now().UTC()
	require.NoError(t, repo.RecordLogin(ctx, u.ID, at))

	got, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Zero(t, got.FailedLoginAttempts)
	require.NotNil(t, got.LastLoginAt)
	assert.True(t, got.LastLoginAt.Equal(at))
}

func TestMemoryRepository_CreateFirstConcurrent(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	const n = 20
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		firsts int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			u := newUser(fmt.Sprintf("user%d", i), fmt.Sprintf("user%d@example.com", i), time.Now())
			first, err := repo.CreateFirst(ctx, u)
			assert.NoError(t, err)
			if first {
				mu.Lock()
				firsts++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, firsts)
	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
