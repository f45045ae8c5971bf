package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	apperrors "user-management-backend/internal/common/errors"
	"user-management-backend/internal/common/logger"
	"user-management-backend/internal/common/validation"
	notifmodels "user-management-backend/internal/features/notification/models"
	"user-management-backend/internal/features/user/models"
	"user-management-backend/internal/features/user/repository"
	usercache "user-management-backend/internal/features/user/repository/redis"
	"user-management-backend/internal/utils/random"
	"user-management-backend/internal/utils/security"
)

const nicknameAttempts = 10

// EventPublisher hands notification events to the delivery pipeline.
type EventPublisher interface {
	Publish(ctx context.Context, event *notifmodels.Event) error
}

type Options struct {
	MaxLoginAttempts int
	BcryptCost       int
	// ServerBaseURL is used to build email verification links.
	ServerBaseURL string
}

type UserService interface {
	Create(ctx context.Context, in models.UserCreate) (*models.User, error)
	Register(ctx context.Context, in models.UserCreate) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByNickname(ctx context.Context, nickname string) (*models.User, error)
	List(ctx context.Context, skip, limit int) ([]*models.User, int, error)
	Update(ctx context.Context, id uuid.UUID, upd models.UserUpdate) (*models.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, upd models.ProfileUpdate) (*models.User, error)
	SetProfessionalStatus(ctx context.Context, id uuid.UUID, isProfessional bool) (*models.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Login(ctx context.Context, email, password string) (*models.User, error)
	LoginWithTelegram(ctx context.Context, telegramID int64) (*models.User, error)
	// LinkTelegram attaches a Telegram account whose ownership the caller has already verified.
	LinkTelegram(ctx context.Context, id uuid.UUID, telegramID int64) (*models.User, error)
	IsAccountLocked(ctx context.Context, email string) (bool, error)
	ResetPassword(ctx context.Context, id uuid.UUID, newPassword string) (*models.User, error)
	UnlockAccount(ctx context.Context, id uuid.UUID) (*models.User, error)
	VerifyEmail(ctx context.Context, id uuid.UUID, token string) error
	Count(ctx context.Context) (int, error)
}

type userService struct {
	repo   repository.UserRepository
	cache  usercache.UserCache
	events EventPublisher
	opts   Options
	log    zerolog.Logger
}

// NewUserService wires the service. cache and events may be nil.
func NewUserService(repo repository.UserRepository, cache usercache.UserCache, events EventPublisher, opts Options) UserService {
	if cache == nil {
		cache = usercache.NewNoopCache()
	}
	if opts.MaxLoginAttempts <= 0 {
		opts.MaxLoginAttempts = 3
	}
	return &userService{
		repo:   repo,
		cache:  cache,
		events: events,
		opts:   opts,
		log:    logger.Component("user_service"),
	}
}

func (s *userService) Create(ctx context.Context, in models.UserCreate) (*models.User, error) {
	return s.create(ctx, in, false)
}

// Register creates a self-registered account. The first account becomes a
// verified ADMIN; later ones stay ANONYMOUS until their email is verified.
func (s *userService) Register(ctx context.Context, in models.UserCreate) (*models.User, error) {
	return s.create(ctx, in, true)
}

func (s *userService) create(ctx context.Context, in models.UserCreate, selfRegistered bool) (*models.User, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	email := normalizeEmail(in.Email)
	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, apperrors.NewDatabaseError("get user by email", err)
	}

	nickname, err := s.resolveNickname(ctx, in.Nickname)
	if err != nil {
		return nil, err
	}

	hash, err := s.hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	// Postgres stores microseconds.
	now := time.Now().UTC().Truncate(time.Microsecond)
	user := &models.User{
		ID:                 uuid.New(),
		Nickname:           nickname,
		Email:              email,
		FirstName:          in.FirstName,
		LastName:           in.LastName,
		Bio:                in.Bio,
		Location:           in.Location,
		ProfilePictureURL:  in.ProfilePictureURL,
		LinkedInProfileURL: in.LinkedInProfileURL,
		GitHubProfileURL:   in.GitHubProfileURL,
		TelegramID:         in.TelegramID,
		HashedPassword:     hash,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if selfRegistered {
		// Telegram ownership is only accepted from signed init data.
		user.TelegramID = nil
		user.Role = models.RoleAdmin
		user.EmailVerified = true
		first, err := s.repo.CreateFirst(ctx, user)
		if err != nil {
			return nil, s.storageError("create user", err)
		}
		if first {
			s.log.Info().Str("user_id", user.ID.String()).Msg("First user registered as admin")
			return user, nil
		}
		user.Role = models.RoleAnonymous
		user.EmailVerified = false
	} else {
		user.Role = models.RoleAuthenticated
		if in.Role != nil {
			user.Role = *in.Role
		}
	}

	token, err := security.GenerateToken()
	if err != nil {
		return nil, err
	}
	user.VerificationToken = &token

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, s.storageError("create user", err)
	}

	s.log.Info().
		Str("user_id", user.ID.String()).
		Str("role", string(user.Role)).
		Bool("self_registered", selfRegistered).
		Msg("User created")

	s.publish(ctx, notifmodels.EventAccountVerification, user)
	return user, nil
}

func (s *userService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if cached, ok, err := s.cache.Get(ctx, id); err != nil {
		s.log.Warn().Err(err).Str("user_id", id.String()).Msg("Failed to read user from cache")
	} else if ok {
		return cached, nil
	}

	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, user); err != nil {
		s.log.Warn().Err(err).Str("user_id", id.String()).Msg("Failed to cache user")
	}
	return user, nil
}

func (s *userService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, s.storageError("get user by email", err)
	}
	return user, nil
}

func (s *userService) GetByNickname(ctx context.Context, nickname string) (*models.User, error) {
	user, err := s.repo.GetByNickname(ctx, nickname)
	if err != nil {
		return nil, s.storageError("get user by nickname", err)
	}
	return user, nil
}

func (s *userService) List(ctx context.Context, skip, limit int) ([]*models.User, int, error) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = 10
	}

	users, err := s.repo.List(ctx, skip, limit)
	if err != nil {
		return nil, 0, apperrors.NewDatabaseError("list users", err)
	}
	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, 0, apperrors.NewDatabaseError("count users", err)
	}
	return users, total, nil
}

func (s *userService) Update(ctx context.Context, id uuid.UUID, upd models.UserUpdate) (*models.User, error) {
	if upd.IsEmpty() {
		return nil, ErrEmptyUpdate
	}
	if err := validation.Struct(upd); err != nil {
		return nil, err
	}

	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	wasProfessional := user.IsProfessional

	if err := s.apply(user, upd); err != nil {
		return nil, err
	}
	if err := s.save(ctx, user); err != nil {
		return nil, err
	}

	if upd.IsProfessional != nil && *upd.IsProfessional != wasProfessional {
		s.publish(ctx, professionalEvent(user.IsProfessional), user)
	}

	s.log.Info().Str("user_id", id.String()).Msg("User updated")
	return user, nil
}

// UpdateProfile applies a self-service update. Role and professional status
// are not part of ProfileUpdate.
func (s *userService) UpdateProfile(ctx context.Context, id uuid.UUID, upd models.ProfileUpdate) (*models.User, error) {
	return s.Update(ctx, id, upd.AsUserUpdate())
}

func (s *userService) SetProfessionalStatus(ctx context.Context, id uuid.UUID, isProfessional bool) (*models.User, error) {
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	user.UpdateProfessionalStatus(isProfessional)
	if err := s.save(ctx, user); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("user_id", id.String()).
		Bool("is_professional", isProfessional).
		Msg("Professional status updated")
	s.publish(ctx, professionalEvent(isProfessional), user)
	return user, nil
}

func (s *userService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return s.storageError("delete user", err)
	}
	s.invalidate(ctx, id)
	s.log.Info().Str("user_id", id.String()).Msg("User deleted")
	return nil
}

func (s *userService) Login(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, apperrors.NewDatabaseError("get user by email", err)
	}

	if user.IsLocked {
		return nil, ErrAccountLocked
	}

	if !security.VerifyPassword(password, user.HashedPassword) {
		attempts, locked, err := s.repo.RecordFailedLogin(ctx, user.ID, s.opts.MaxLoginAttempts)
		if err != nil {
			return nil, s.storageError("record failed login", err)
		}
		s.invalidate(ctx, user.ID)
		// Only the attempt that crossed the limit reports the lock.
		if locked && attempts == s.opts.MaxLoginAttempts {
			s.log.Warn().Str("user_id", user.ID.String()).Int("attempts", attempts).Msg("Account locked")
			s.publish(ctx, notifmodels.EventAccountLocked, user)
		}
		return nil, ErrInvalidCredentials
	}

	if !user.EmailVerified {
		return nil, ErrEmailNotVerified
	}

	if err := s.recordLogin(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) LoginWithTelegram(ctx context.Context, telegramID int64) (*models.User, error) {
	user, err := s.repo.GetByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, s.storageError("get user by telegram id", err)
	}
	if user.IsLocked {
		return nil, ErrAccountLocked
	}
	if !user.EmailVerified {
		return nil, ErrEmailNotVerified
	}

	if err := s.recordLogin(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// recordLogin refuses the login if the account was locked after user was read.
func (s *userService) recordLogin(ctx context.Context, user *models.User) error {
	now := time.Now().UTC()
	if err := s.repo.RecordLogin(ctx, user.ID, now); err != nil {
		if errors.Is(err, repository.ErrUserLocked) {
			return ErrAccountLocked
		}
		return s.storageError("record login", err)
	}
	s.invalidate(ctx, user.ID)

	user.FailedLoginAttempts = 0
	user.LastLoginAt = &now
	return nil
}

func (s *userService) LinkTelegram(ctx context.Context, id uuid.UUID, telegramID int64) (*models.User, error) {
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	user.TelegramID = &telegramID
	if err := s.save(ctx, user); err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", id.String()).Msg("Telegram account linked")
	return user, nil
}

func (s *userService) IsAccountLocked(ctx context.Context, email string) (bool, error) {
	user, err := s.GetByEmail(ctx, email)
	if err != nil {
		return false, err
	}
	return user.IsLocked, nil
}

func (s *userService) ResetPassword(ctx context.Context, id uuid.UUID, newPassword string) (*models.User, error) {
	if err := validation.ValidatePassword(newPassword); err != nil {
		return nil, apperrors.NewValidationError("new_password", err.Error())
	}

	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	hash, err := s.hashPassword(newPassword)
	if err != nil {
		return nil, err
	}
	user.HashedPassword = hash
	user.UnlockAccount()

	if err := s.save(ctx, user); err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", id.String()).Msg("Password reset")
	s.publish(ctx, notifmodels.EventPasswordReset, user)
	return user, nil
}

func (s *userService) UnlockAccount(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	user.UnlockAccount()
	if err := s.save(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) VerifyEmail(ctx context.Context, id uuid.UUID, token string) error {
	user, err := s.load(ctx, id)
	if err != nil {
		return err
	}

	if user.VerificationToken == nil ||
		subtle.ConstantTimeCompare([]byte(*user.VerificationToken), []byte(token)) != 1 {
		return ErrInvalidVerificationToken
	}

	user.VerifyEmail()
	if err := s.save(ctx, user); err != nil {
		return err
	}

	s.log.Info().Str("user_id", id.String()).Msg("Email verified")
	return nil
}

func (s *userService) Count(ctx context.Context) (int, error) {
	count, err := s.repo.Count(ctx)
	if err != nil {
		return 0, apperrors.NewDatabaseError("count users", err)
	}
	return count, nil
}

// load reads from storage, bypassing the cache, so the user carries its
// password hash and can be written back.
func (s *userService) load(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.storageError("get user", err)
	}
	return user, nil
}

// save writes user back. The repository rejects the write with ErrStaleUser
// if the row changed since load.
func (s *userService) save(ctx context.Context, user *models.User) error {
	if err := s.repo.Update(ctx, user); err != nil {
		return s.storageError("update user", err)
	}
	s.invalidate(ctx, user.ID)
	return nil
}

func (s *userService) invalidate(ctx context.Context, id uuid.UUID) {
	if err := s.cache.Invalidate(ctx, id); err != nil {
		s.log.Warn().Err(err).Str("user_id", id.String()).Msg("Failed to invalidate user cache")
	}
}

func (s *userService) apply(user *models.User, upd models.UserUpdate) error {
	if upd.Email != nil {
		user.Email = normalizeEmail(*upd.Email)
	}
	if upd.Nickname != nil {
		user.Nickname = *upd.Nickname
	}
	if upd.FirstName != nil {
		user.FirstName = upd.FirstName
	}
	if upd.LastName != nil {
		user.LastName = upd.LastName
	}
	if upd.Bio != nil {
		user.Bio = upd.Bio
	}
	if upd.Location != nil {
		user.Location = upd.Location
	}
	if upd.ProfilePictureURL != nil {
		user.ProfilePictureURL = upd.ProfilePictureURL
	}
	if upd.LinkedInProfileURL != nil {
		user.LinkedInProfileURL = upd.LinkedInProfileURL
	}
	if upd.GitHubProfileURL != nil {
		user.GitHubProfileURL = upd.GitHubProfileURL
	}
	if upd.TelegramID != nil {
		user.TelegramID = upd.TelegramID
	}
	if upd.Role != nil {
		user.Role = *upd.Role
	}
	if upd.IsProfessional != nil {
		user.UpdateProfessionalStatus(*upd.IsProfessional)
	}
	if upd.Password != nil {
		hash, err := s.hashPassword(*upd.Password)
		if err != nil {
			return err
		}
		user.HashedPassword = hash
	}
	return nil
}

func (s *userService) resolveNickname(ctx context.Context, requested *string) (string, error) {
	if requested != nil && *requested != "" {
		if _, err := s.repo.GetByNickname(ctx, *requested); err == nil {
			return "", ErrNicknameTaken
		} else if !errors.Is(err, repository.ErrUserNotFound) {
			return "", apperrors.NewDatabaseError("get user by nickname", err)
		}
		return *requested, nil
	}

	for i := 0; i < nicknameAttempts; i++ {
		nickname, err := random.Nickname()
		if err != nil {
			return "", err
		}
		_, err = s.repo.GetByNickname(ctx, nickname)
		if errors.Is(err, repository.ErrUserNotFound) {
			return nickname, nil
		}
		if err != nil {
			return "", apperrors.NewDatabaseError("get user by nickname", err)
		}
	}
	return "", fmt.Errorf("failed to generate a unique nickname after %d attempts", nicknameAttempts)
}

func (s *userService) hashPassword(password string) (string, error) {
	hash, err := security.HashPassword(password, s.opts.BcryptCost)
	if err != nil {
		if security.IsHashTooLong(err) {
			return "", apperrors.NewValidationError("password", "password cannot exceed 72 bytes")
		}
		return "", err
	}
	return hash, nil
}

func (s *userService) storageError(operation string, err error) error {
	switch {
	case errors.Is(err, repository.ErrUserNotFound):
		return ErrUserNotFound
	case errors.Is(err, repository.ErrEmailTaken),
		errors.Is(err, repository.ErrNicknameTaken),
		errors.Is(err, repository.ErrTelegramIDTaken),
		errors.Is(err, repository.ErrUserAlreadyExists),
		errors.Is(err, repository.ErrStaleUser):
		return err
	default:
		return apperrors.NewDatabaseError(operation, err)
	}
}

func (s *userService) publish(ctx context.Context, eventType notifmodels.EventType, user *models.User) {
	if s.events == nil {
		return
	}

	event := &notifmodels.Event{
		Type:       eventType,
		UserID:     user.ID.String(),
		Email:      user.Email,
		Nickname:   user.DisplayName(),
		OccurredAt: time.Now().UTC(),
	}
	if user.TelegramID != nil {
		event.TelegramID = *user.TelegramID
	}
	if eventType == notifmodels.EventAccountVerification && user.VerificationToken != nil {
		event.Link = fmt.Sprintf("%s/verify-email/%s/%s",
			strings.TrimRight(s.opts.ServerBaseURL, "/"), user.ID, *user.VerificationToken)
	}

	if err := s.events.Publish(ctx, event); err != nil {
		s.log.Error().Err(err).
			Str("user_id", user.ID.String()).
			Str("event", string(eventType)).
			Msg("Failed to publish notification event")
	}
}

func professionalEvent(isProfessional bool) notifmodels.EventType {
	if isProfessional {
		return notifmodels.EventProfessionalStatusUpgraded
	}
	return notifmodels.EventProfessionalStatusDowngraded
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
