package service

import (
	"errors"

	apperrors "user-management-backend/internal/common/errors"
	"user-management-backend/internal/features/user/repository"
)

var (
	ErrUserNotFound             = errors.New("user not found")
	ErrEmptyUpdate              = errors.New("no fields provided for update")
	ErrInvalidCredentials       = errors.New("incorrect email or password")
	ErrAccountLocked            = errors.New("account locked due to too many failed login attempts")
	ErrEmailNotVerified         = errors.New("email address has not been verified")
	ErrInvalidVerificationToken = errors.New("invalid or expired verification token")

	ErrEmailTaken      = repository.ErrEmailTaken
	ErrNicknameTaken   = repository.ErrNicknameTaken
	ErrTelegramIDTaken = repository.ErrTelegramIDTaken
	ErrStaleUser       = repository.ErrStaleUser
)

// ToAppError translates service errors into API errors. AppErrors pass through.
func ToAppError(err error) *apperrors.AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := apperrors.AsAppError(err); ok {
		return appErr
	}

	switch {
	case errors.Is(err, ErrUserNotFound):
		return apperrors.New(apperrors.ErrCodeUserNotFound, "User not found")
	case errors.Is(err, ErrEmptyUpdate):
		return apperrors.New(apperrors.ErrCodeEmptyUpdate, "No fields provided for update")
	case errors.Is(err, ErrInvalidCredentials):
		return apperrors.New(apperrors.ErrCodeInvalidCredentials, "Incorrect email or password.")
	case errors.Is(err, ErrAccountLocked):
		return apperrors.New(apperrors.ErrCodeAccountLocked, "Account locked due to too many failed login attempts.")
	case errors.Is(err, ErrEmailNotVerified):
		return apperrors.New(apperrors.ErrCodeEmailNotVerified, "Email address has not been verified.")
	case errors.Is(err, ErrInvalidVerificationToken):
		return apperrors.New(apperrors.ErrCodeInvalidToken, "Invalid or expired verification token")
	case errors.Is(err, ErrEmailTaken):
		return apperrors.NewConflictError("user", "email already exists")
	case errors.Is(err, ErrNicknameTaken):
		return apperrors.NewConflictError("user", "nickname already exists")
	case errors.Is(err, ErrTelegramIDTaken):
		return apperrors.NewConflictError("user", "telegram account already linked")
	case errors.Is(err, ErrStaleUser):
		return apperrors.NewConflictError("user", "user was modified concurrently, retry the request")
	default:
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "Internal server error")
	}
}
