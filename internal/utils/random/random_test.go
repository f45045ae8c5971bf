package random

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"user-management-backend/internal/common/validation"
)

func TestIntn_Range(t *testing.T) {
	for i := 0; i < 100; i++ {
		n, err := Intn(5)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, 0)
		assert.Less(t, n, 5)
	}
}

func TestPick_Empty(t *testing.T) {
	_, err := Pick([]string{})
	assert.Error(t, err)
}

func TestNickname_Format(t *testing.T) {
	re := regexp.MustCompile(`^[a-z]+_[a-z]+_\d{3}$`)
	for i := 0; i < 50; i++ {
		nick, err := Nickname()
		require.NoError(t, err)
		assert.Regexp(t, re, nick)
		assert.True(t, validation.IsValidNickname(nick), nick)
	}
}
