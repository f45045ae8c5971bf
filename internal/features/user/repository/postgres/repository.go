package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"user-management-backend/internal/features/user/models"
	"user-management-backend/internal/features/user/repository"
)

const uniqueViolation = "23505"

// firstUserLock is the advisory lock key taken while deciding the first account.
const firstUserLock int64 = 0x75736572

// bumpVersion moves updated_at forward even when NOW() has not advanced.
const bumpVersion = `updated_at = GREATEST(NOW(), updated_at + INTERVAL '1 microsecond')`

const userColumns = `
	id, nickname, email, first_name, last_name, bio, location,
	profile_picture_url, linkedin_profile_url, github_profile_url, telegram_id,
	role, is_professional, professional_status_updated_at, last_login_at,
	failed_login_attempts, is_locked, email_verified, verification_token,
	hashed_password, created_at, updated_at`

type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) repository.UserRepository {
	return &postgresRepository{pool: pool}
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// Create inserts a new user. created_at/updated_at come from the model.
func (r *postgresRepository) Create(ctx context.Context, user *models.User) error {
	return insertUser(ctx, r.pool, user)
}

// CreateFirst holds a transaction-scoped advisory lock while checking for
// existing users, so only one concurrent caller can insert the first row.
func (r *postgresRepository) CreateFirst(ctx context.Context, user *models.User) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", firstUserLock); err != nil {
		return false, fmt.Errorf("failed to acquire first user lock: %w", err)
	}

	var exists bool
	if err := tx.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM users)").Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check existing users: %w", err)
	}
	if exists {
		return false, nil
	}

	if err := insertUser(ctx, tx, user); err != nil {
		return false, err
	}
	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("failed to commit first user: %w", err)
	}
	return true, nil
}

func insertUser(ctx context.Context, db execer, user *models.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
	`

	_, err := db.Exec(ctx, query,
		user.ID, user.Nickname, user.Email, user.FirstName, user.LastName, user.Bio, user.Location,
		user.ProfilePictureURL, user.LinkedInProfileURL, user.GitHubProfileURL, user.TelegramID,
		string(user.Role), user.IsProfessional, user.ProfessionalStatusUpdatedAt, user.LastLoginAt,
		user.FailedLoginAttempts, user.IsLocked, user.EmailVerified, user.VerificationToken,
		user.HashedPassword, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		if mapped := mapUniqueViolation(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.getOne(ctx, "id = $1", id)
}

func (r *postgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, "email = $1", strings.ToLower(email))
}

func (r *postgresRepository) GetByNickname(ctx context.Context, nickname string) (*models.User, error) {
	return r.getOne(ctx, "nickname = $1", nickname)
}

func (r *postgresRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	return r.getOne(ctx, "telegram_id = $1", telegramID)
}

func (r *postgresRepository) getOne(ctx context.Context, where string, arg interface{}) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where

	user, err := scanUser(r.pool.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// Update writes every mutable column of the user, guarded by updated_at.
func (r *postgresRepository) Update(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users
		SET nickname = $2, email = $3, first_name = $4, last_name = $5, bio = $6, location = $7,
			profile_picture_url = $8, linkedin_profile_url = $9, github_profile_url = $10,
			telegram_id = $11, role = $12, is_professional = $13,
			professional_status_updated_at = $14, last_login_at = $15,
			failed_login_attempts = $16, is_locked = $17, email_verified = $18,
			verification_token = $19, hashed_password = $20, ` + bumpVersion + `
		WHERE id = $1 AND updated_at = $21
		RETURNING updated_at
	`

	var updatedAt time.Time
	err := r.pool.QueryRow(ctx, query,
		user.ID, user.Nickname, user.Email, user.FirstName, user.LastName, user.Bio, user.Location,
		user.ProfilePictureURL, user.LinkedInProfileURL, user.GitHubProfileURL,
		user.TelegramID, string(user.Role), user.IsProfessional,
		user.ProfessionalStatusUpdatedAt, user.LastLoginAt,
		user.FailedLoginAttempts, user.IsLocked, user.EmailVerified,
		user.VerificationToken, user.HashedPassword, user.UpdatedAt).Scan(&updatedAt)
	if err != nil {
		if mapped := mapUniqueViolation(err); mapped != nil {
			return mapped
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return r.missingOr(ctx, user.ID, repository.ErrStaleUser)
		}
		return fmt.Errorf("failed to update user: %w", err)
	}

	user.UpdatedAt = updatedAt
	return nil
}

func (r *postgresRepository) RecordFailedLogin(ctx context.Context, id uuid.UUID, maxAttempts int) (int, bool, error) {
	query := `
		UPDATE users
		SET failed_login_attempts = failed_login_attempts + 1,
			is_locked = is_locked OR failed_login_attempts + 1 >= $2,
			` + bumpVersion + `
		WHERE id = $1
		RETURNING failed_login_attempts, is_locked
	`

	var (
		attempts int
		locked   bool
	)
	if err := r.pool.QueryRow(ctx, query, id, maxAttempts).Scan(&attempts, &locked); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, repository.ErrUserNotFound
		}
		return 0, false, fmt.Errorf("failed to record failed login: %w", err)
	}
	return attempts, locked, nil
}

func (r *postgresRepository) RecordLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `
		UPDATE users
		SET failed_login_attempts = 0, last_login_at = $2, ` + bumpVersion + `
		WHERE id = $1 AND NOT is_locked
	`

	result, err := r.pool.Exec(ctx, query, id, at)
	if err != nil {
		return fmt.Errorf("failed to record login: %w", err)
	}
	if result.RowsAffected() == 0 {
		return r.missingOr(ctx, id, repository.ErrUserLocked)
	}
	return nil
}

// missingOr reports ErrUserNotFound when id does not exist, otherwise fallback.
func (r *postgresRepository) missingOr(ctx context.Context, id uuid.UUID, fallback error) error {
	var exists bool
	if err := r.pool.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)", id).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check user: %w", err)
	}
	if !exists {
		return repository.ErrUserNotFound
	}
	return fallback
}

func (r *postgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, "DELETE FROM users WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	if result.RowsAffected() == 0 {
		return repository.ErrUserNotFound
	}

	return nil
}

// List returns users ordered by creation time, oldest first.
func (r *postgresRepository) List(ctx context.Context, skip, limit int) ([]*models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		ORDER BY created_at ASC, id ASC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.pool.Query(ctx, query, limit, skip)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := make([]*models.User, 0, limit)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}

func (r *postgresRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM users").Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return total, nil
}

func scanUser(row pgx.Row) (*models.User, error) {
	var (
		user models.User
		role string
	)
	err := row.Scan(
		&user.ID, &user.Nickname, &user.Email, &user.FirstName, &user.LastName, &user.Bio, &user.Location,
		&user.ProfilePictureURL, &user.LinkedInProfileURL, &user.GitHubProfileURL, &user.TelegramID,
		&role, &user.IsProfessional, &user.ProfessionalStatusUpdatedAt, &user.LastLoginAt,
		&user.FailedLoginAttempts, &user.IsLocked, &user.EmailVerified, &user.VerificationToken,
		&user.HashedPassword, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, err
	}
	user.Role = models.Role(role)
	return &user, nil
}

func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return nil
	}
	switch {
	case strings.Contains(pgErr.ConstraintName, "email"):
		return repository.ErrEmailTaken
	case strings.Contains(pgErr.ConstraintName, "nickname"):
		return repository.ErrNicknameTaken
	case strings.Contains(pgErr.ConstraintName, "telegram"):
		return repository.ErrTelegramIDTaken
	default:
		return repository.ErrUserAlreadyExists
	}
}
