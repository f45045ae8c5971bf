package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"user-management-backend/internal/features/user/models"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrEmailTaken        = errors.New("email already registered")
	ErrNicknameTaken     = errors.New("nickname already taken")
	ErrTelegramIDTaken   = errors.New("telegram account already linked")
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrUserLocked        = errors.New("user account is locked")
	ErrStaleUser         = errors.New("user was modified concurrently")
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	// CreateFirst inserts user only while no other user exists and reports
	// whether it did. Concurrent callers are serialized.
	CreateFirst(ctx context.Context, user *models.User) (bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByNickname(ctx context.Context, nickname string) (*models.User, error)
	GetByTelegramID(ctx context.Context, telegramID int64) (*models.User, error)
	// Update writes every mutable column. user.UpdatedAt must hold the value
	// that was read; if the row changed since, ErrStaleUser is returned.
	// On success user.UpdatedAt is advanced.
	Update(ctx context.Context, user *models.User) error
	// RecordFailedLogin increments the failed attempt counter and locks the
	// account once it reaches maxAttempts, in one atomic step.
	RecordFailedLogin(ctx context.Context, id uuid.UUID, maxAttempts int) (attempts int, locked bool, err error)
	// RecordLogin clears failed attempts and stamps last_login_at.
	// It returns ErrUserLocked when the account is locked.
	RecordLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, skip, limit int) ([]*models.User, error)
	Count(ctx context.Context) (int, error)
}
