package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "user-management-backend/internal/common/errors"
)

func TestIsValidURL(t *testing.T) {
	tests := []struct {
		url   string
		valid bool
	}{
		{"https://linkedin.com/in/johndoe", true},
		{"http://www.github.com/profile", true},
		{"http://myprofile/picture.png", true},
		{"htp:/not.a.valid.url", false},
		{"ftp://example.com/file", false},
		{"https://", false},
		{"https://exa mple.com", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.valid, IsValidURL(tt.url))
		})
	}
}

func TestIsValidNickname(t *testing.T) {
	assert.True(t, IsValidNickname("john_doe-123"))
	assert.False(t, IsValidNickname("jo"))
	assert.False(t, IsValidNickname("john doe"))
	assert.False(t, IsValidNickname("john@doe"))
	assert.False(t, IsValidNickname(strings.Repeat("a", MaxNicknameLength+1)))
}

func TestValidatePassword(t *testing.T) {
	assert.NoError(t, ValidatePassword("Secure*1234"))
	assert.ErrorIs(t, ValidatePassword("S*1a"), ErrPasswordTooShort)
	assert.ErrorIs(t, ValidatePassword("secure*1234"), ErrPasswordNoUpper)
	assert.ErrorIs(t, ValidatePassword("SECURE*1234"), ErrPasswordNoLower)
	assert.ErrorIs(t, ValidatePassword("Secure*abcd"), ErrPasswordNoDigit)
	assert.ErrorIs(t, ValidatePassword("Secure12345"), ErrPasswordNoSpecial)
	assert.ErrorIs(t, ValidatePassword("Aa1*"+strings.Repeat("x", MaxPasswordLength)), ErrPasswordTooLong)
}

type sample struct {
	Email    string  `json:"email" validate:"required,email"`
	Nickname *string `json:"nickname" validate:"omitempty,nickname"`
	Website  *string `json:"website" validate:"omitempty,httpurl"`
	Password string  `json:"password" validate:"password"`
}

func TestStruct(t *testing.T) {
	good := "https://example.com"
	require.NoError(t, Struct(sample{Email: "john@example.com", Website: &good, Password: "Secure*1234"}))

	bad := "htp:/not.a.valid.url"
	err := Struct(sample{Email: "john@example.com", Website: &bad, Password: "Secure*1234"})
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeValidation, appErr.Code)
	assert.Equal(t, "website", appErr.Details["field"])
	assert.Equal(t, "Invalid URL format", appErr.Details["reason"])

	err = Struct(sample{Email: "not-an-email", Password: "weak"})
	appErr, ok = apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, []string{"email", "password"}, appErr.Details["fields"])
}
