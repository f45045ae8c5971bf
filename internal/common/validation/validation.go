package validation

import (
	stderrors "errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"unicode"

	"github.com/go-playground/validator/v10"

	apperrors "user-management-backend/internal/common/errors"
)

const (
	MaxNicknameLength = 50
	MaxEmailLength    = 255
	MaxNameLength     = 100
	MaxBioLength      = 500
	MaxLocationLength = 255
	MaxURLLength      = 255

	MinNicknameLength = 3
	MinPasswordLength = 8
	MaxPasswordLength = 128
)

var (
	nicknameRegex = regexp.MustCompile(`^[\w-]+$`)
	// Only absolute http(s) URLs are accepted for profile links.
	urlRegex = regexp.MustCompile(`^https?://[^\s/$.?#].[^\s]*$`)

	ErrPasswordTooShort  = fmt.Errorf("password must be at least %d characters long", MinPasswordLength)
	ErrPasswordTooLong   = fmt.Errorf("password cannot exceed %d characters", MaxPasswordLength)
	ErrPasswordNoUpper   = stderrors.New("password must contain an uppercase letter")
	ErrPasswordNoLower   = stderrors.New("password must contain a lowercase letter")
	ErrPasswordNoDigit   = stderrors.New("password must contain a digit")
	ErrPasswordNoSpecial = stderrors.New("password must contain a special character")
)

// IsValidNickname checks the nickname charset and length.
func IsValidNickname(nickname string) bool {
	if len(nickname) < MinNicknameLength || len(nickname) > MaxNicknameLength {
		return false
	}
	return nicknameRegex.MatchString(nickname)
}

// IsValidURL checks that url is an absolute http or https URL.
func IsValidURL(url string) bool {
	return urlRegex.MatchString(url)
}

// ValidatePassword enforces the password policy.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if len(password) > MaxPasswordLength {
		return ErrPasswordTooLong
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSpecial = true
		}
	}

	switch {
	case !hasUpper:
		return ErrPasswordNoUpper
	case !hasLower:
		return ErrPasswordNoLower
	case !hasDigit:
		return ErrPasswordNoDigit
	case !hasSpecial:
		return ErrPasswordNoSpecial
	}
	return nil
}

var (
	once     sync.Once
	instance *validator.Validate
)

// Engine returns the shared validator with the custom user tags registered:
// nickname, httpurl and password.
func Engine() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return field.Name
			}
			return name
		})
		_ = v.RegisterValidation("nickname", func(fl validator.FieldLevel) bool {
			return IsValidNickname(fl.Field().String())
		})
		_ = v.RegisterValidation("httpurl", func(fl validator.FieldLevel) bool {
			return IsValidURL(fl.Field().String())
		})
		_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
			return ValidatePassword(fl.Field().String()) == nil
		})
		instance = v
	})
	return instance
}

// Struct validates s and converts the first failure into a validation AppError.
func Struct(s interface{}) error {
	err := Engine().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !stderrors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return apperrors.Wrap(err, apperrors.ErrCodeValidation, "Validation failed")
	}

	fe := fieldErrs[0]
	appErr := apperrors.NewValidationError(fe.Field(), reason(fe))
	if len(fieldErrs) > 1 {
		fields := make([]string, 0, len(fieldErrs))
		for _, e := range fieldErrs {
			fields = append(fields, e.Field())
		}
		appErr.WithDetail("fields", fields)
	}
	return appErr
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "field is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters long", fe.Param())
	case "max":
		return fmt.Sprintf("cannot exceed %s characters", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "nickname":
		return "may contain only letters, digits, underscores and hyphens"
	case "httpurl":
		return "Invalid URL format"
	case "password":
		if err := ValidatePassword(fmt.Sprint(fe.Value())); err != nil {
			return err.Error()
		}
		return "does not satisfy the password policy"
	default:
		return fmt.Sprintf("failed on the '%s' rule", fe.Tag())
	}
}
