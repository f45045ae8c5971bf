package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	initdata "github.com/telegram-mini-apps/init-data-golang"

	apperrors "user-management-backend/internal/common/errors"
	"user-management-backend/internal/common/logger"
	"user-management-backend/internal/features/auth/models"
	"user-management-backend/internal/features/auth/token"
	usermodels "user-management-backend/internal/features/user/models"
	userservice "user-management-backend/internal/features/user/service"
)

const TokenTypeBearer = "bearer"

var (
	ErrInvalidInitData       = errors.New("invalid telegram init data")
	ErrTelegramNotConfigured = errors.New("telegram login is not configured")
)

type RevocationStore interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type AuthService interface {
	Login(ctx context.Context, email, password string) (*models.TokenResponse, error)
	LoginWithTelegram(ctx context.Context, initData string) (*models.TokenResponse, error)
	// LinkTelegram attaches the Telegram account proven by initData to the user.
	LinkTelegram(ctx context.Context, userID uuid.UUID, initData string) (*usermodels.User, error)
	Logout(ctx context.Context, claims *token.Claims) error
	// Authenticate resolves a bearer token to its user. Every failure wraps token.ErrInvalidToken.
	Authenticate(ctx context.Context, rawToken string) (*usermodels.User, *token.Claims, error)
}

type TelegramOptions struct {
	BotToken    string
	InitDataTTL time.Duration
}

type authService struct {
	users    userservice.UserService
	tokens   *token.Service
	revoked  RevocationStore
	telegram TelegramOptions
	log      zerolog.Logger
}

func NewAuthService(users userservice.UserService, tokens *token.Service, revoked RevocationStore, telegram TelegramOptions) AuthService {
	return &authService{
		users:    users,
		tokens:   tokens,
		revoked:  revoked,
		telegram: telegram,
		log:      logger.Component("auth_service"),
	}
}

func (s *authService) Login(ctx context.Context, email, password string) (*models.TokenResponse, error) {
	user, err := s.users.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return s.issue(user)
}

func (s *authService) LoginWithTelegram(ctx context.Context, initData string) (*models.TokenResponse, error) {
	telegramID, err := s.telegramUserID(initData)
	if err != nil {
		return nil, err
	}

	user, err := s.users.LoginWithTelegram(ctx, telegramID)
	if err != nil {
		return nil, err
	}
	return s.issue(user)
}

func (s *authService) LinkTelegram(ctx context.Context, userID uuid.UUID, initData string) (*usermodels.User, error) {
	telegramID, err := s.telegramUserID(initData)
	if err != nil {
		return nil, err
	}
	return s.users.LinkTelegram(ctx, userID, telegramID)
}

// telegramUserID validates the init data signature and returns the Telegram user it was issued for.
func (s *authService) telegramUserID(initData string) (int64, error) {
	if s.telegram.BotToken == "" {
		return 0, ErrTelegramNotConfigured
	}

	if err := initdata.Validate(initData, s.telegram.BotToken, s.telegram.InitDataTTL); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidInitData, err)
	}
	parsed, err := initdata.Parse(initData)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidInitData, err)
	}
	if parsed.User.ID == 0 {
		return 0, fmt.Errorf("%w: missing user", ErrInvalidInitData)
	}
	return parsed.User.ID, nil
}

func (s *authService) Logout(ctx context.Context, claims *token.Claims) error {
	if claims == nil || claims.ExpiresAt == nil {
		return token.ErrInvalidToken
	}
	if err := s.revoked.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return apperrors.NewCacheError("revoke token", err)
	}
	s.log.Info().Str("user_id", claims.Subject).Msg("User logged out")
	return nil
}

func (s *authService) Authenticate(ctx context.Context, rawToken string) (*usermodels.User, *token.Claims, error) {
	claims, err := s.tokens.Parse(rawToken)
	if err != nil {
		return nil, nil, err
	}

	revoked, err := s.revoked.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, nil, apperrors.NewCacheError("check token revocation", err)
	}
	if revoked {
		return nil, nil, fmt.Errorf("%w: revoked", token.ErrInvalidToken)
	}

	id, err := claims.UserID()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: bad subject", token.ErrInvalidToken)
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, userservice.ErrUserNotFound) {
			return nil, nil, fmt.Errorf("%w: unknown user", token.ErrInvalidToken)
		}
		return nil, nil, err
	}
	if user.IsLocked {
		return nil, nil, fmt.Errorf("%w: account locked", token.ErrInvalidToken)
	}
	return user, claims, nil
}

func (s *authService) issue(user *usermodels.User) (*models.TokenResponse, error) {
	signed, _, err := s.tokens.Issue(user.ID, string(user.Role))
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("user_id", user.ID.String()).Msg("Access token issued")
	return &models.TokenResponse{AccessToken: signed, TokenType: TokenTypeBearer}, nil
}

// ToAppError translates auth and user service errors into API errors.
func ToAppError(err error) *apperrors.AppError {
	switch {
	case errors.Is(err, token.ErrInvalidToken):
		return apperrors.NewUnauthorizedError("Could not validate credentials")
	case errors.Is(err, ErrInvalidInitData):
		return apperrors.NewUnauthorizedError("Invalid Telegram init data")
	case errors.Is(err, ErrTelegramNotConfigured):
		return apperrors.New(apperrors.ErrCodeExternalAPI, "Telegram login is not configured")
	default:
		return userservice.ToAppError(err)
	}
}
