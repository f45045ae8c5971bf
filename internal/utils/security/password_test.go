package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("Secure*1234", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, "Secure*1234", hash)

	assert.True(t, VerifyPassword("Secure*1234", hash))
	assert.False(t, VerifyPassword("Wrong*1234", hash))
	assert.False(t, VerifyPassword("Secure*1234", ""))
}

func TestHashPassword_InvalidCostFallsBack(t *testing.T) {
	hash, err := HashPassword("Secure*1234", 0)
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)
}

func TestHashPassword_TooLong(t *testing.T) {
	_, err := HashPassword(strings.Repeat("a", 100), bcrypt.MinCost)
	require.Error(t, err)
	assert.True(t, IsHashTooLong(err))
}

func TestGenerateToken(t *testing.T) {
	a, err := GenerateToken()
	require.NoError(t, err)
	b, err := GenerateToken()
	require.NoError(t, err)

	assert.Len(t, a, 22)
	assert.NotEqual(t, a, b)
}
