package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"user-management-backend/internal/common/cache"
	apperrors "user-management-backend/internal/common/errors"
	authredis "user-management-backend/internal/features/auth/repository/redis"
	"user-management-backend/internal/features/auth/token"
	usermodels "user-management-backend/internal/features/user/models"
	"user-management-backend/internal/features/user/repository/memory"
	userservice "user-management-backend/internal/features/user/service"
)

const (
	botToken     = "123456:TEST-TOKEN"
	testPassword = "Secure*1234"
)

type fixture struct {
	auth  AuthService
	users userservice.UserService
	mr    *miniredis.Miniredis
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	users := userservice.NewUserService(memory.NewMemoryRepository(), nil, nil, userservice.Options{BcryptCost: bcrypt.MinCost})
	auth := NewAuthService(users, token.NewService("secret", 30*time.Minute), authredis.NewRevocationStore(cache.NewCacheService(client)),
		TelegramOptions{BotToken: botToken, InitDataTTL: time.Hour})
	return &fixture{auth: auth, users: users, mr: mr}
}

// adminUser registers the first account, which is a verified ADMIN.
func (f *fixture) adminUser(t *testing.T) *usermodels.User {
	t.Helper()
	user, err := f.users.Register(context.Background(), usermodels.UserCreate{Email: "admin@example.com", Password: testPassword})
	require.NoError(t, err)
	return user
}

// signInitData builds init data the way Telegram signs it.
func signInitData(t *testing.T, params map[string]string, key string) string {
	t.Helper()
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	values := url.Values{}
	for _, k := range keys {
		pairs = append(pairs, k+"="+params[k])
		values.Set(k, params[k])
	}

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(key))
	mac := hmac.New(sha256.New, secret.Sum(nil))
	mac.Write([]byte(strings.Join(pairs, "\n")))
	values.Set("hash", hex.EncodeToString(mac.Sum(nil)))
	return values.Encode()
}

func TestLoginAuthenticateLogout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.adminUser(t)

	resp, err := f.auth.Login(ctx, "admin@example.com", testPassword)
	require.NoError(t, err)
	assert.Equal(t, "bearer", resp.TokenType)

	user, claims, err := f.auth.Authenticate(ctx, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, admin.ID, user.ID)
	assert.Equal(t, "ADMIN", claims.Role)

	require.NoError(t, f.auth.Logout(ctx, claims))
	assert.True(t, f.mr.Exists("revoked_token:"+claims.ID))

	_, _, err = f.auth.Authenticate(ctx, resp.AccessToken)
	assert.ErrorIs(t, err, token.ErrInvalidToken)
}

func TestLogin_BadCredentials(t *testing.T) {
	f := newFixture(t)
	f.adminUser(t)

	_, err := f.auth.Login(context.Background(), "admin@example.com", "Wrong*pass1")
	assert.ErrorIs(t, err, userservice.ErrInvalidCredentials)
	assert.Equal(t, apperrors.ErrCodeInvalidCredentials, ToAppError(err).Code)
}

func TestAuthenticate_DeletedUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.adminUser(t)

	resp, err := f.auth.Login(ctx, "admin@example.com", testPassword)
	require.NoError(t, err)
	require.NoError(t, f.users.Delete(ctx, admin.ID))

	_, _, err = f.auth.Authenticate(ctx, resp.AccessToken)
	assert.ErrorIs(t, err, token.ErrInvalidToken)
	assert.Equal(t, "Could not validate credentials", ToAppError(err).Message)
}

func TestLoginWithTelegram(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.adminUser(t)

	tg := int64(987654321)
	_, err := f.users.Update(ctx, admin.ID, usermodels.UserUpdate{TelegramID: &tg})
	require.NoError(t, err)

	initData := signInitData(t, map[string]string{
		"auth_date": strconv.FormatInt(time.Now().Unix(), 10),
		"query_id":  "AAHdF6IQAAAAAN0XohDhrOrc",
		"user":      `{"id":987654321,"first_name":"John","username":"johndoe"}`,
	}, botToken)

	resp, err := f.auth.LoginWithTelegram(ctx, initData)
	require.NoError(t, err)

	user, _, err := f.auth.Authenticate(ctx, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, admin.ID, user.ID)
}

func TestLoginWithTelegram_Rejects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := strconv.FormatInt(time.Now().Unix(), 10)

	forged := signInitData(t, map[string]string{
		"auth_date": now,
		"user":      `{"id":1,"first_name":"Mallory"}`,
	}, "654321:OTHER-TOKEN")
	_, err := f.auth.LoginWithTelegram(ctx, forged)
	assert.ErrorIs(t, err, ErrInvalidInitData)

	unlinked := signInitData(t, map[string]string{
		"auth_date": now,
		"user":      `{"id":555,"first_name":"Nobody"}`,
	}, botToken)
	_, err = f.auth.LoginWithTelegram(ctx, unlinked)
	assert.ErrorIs(t, err, userservice.ErrUserNotFound)
}

func TestAuthenticate_LockedAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.adminUser(t)

	resp, err := f.auth.Login(ctx, "admin@example.com", testPassword)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := f.auth.Login(ctx, "admin@example.com", "Wrong*pass1")
		require.ErrorIs(t, err, userservice.ErrInvalidCredentials)
	}

	_, _, err = f.auth.Authenticate(ctx, resp.AccessToken)
	assert.ErrorIs(t, err, token.ErrInvalidToken, "tokens issued before the lock stop working")
	assert.Equal(t, apperrors.ErrCodeUnauthorized, ToAppError(err).Code)

	_, err = f.users.UnlockAccount(ctx, admin.ID)
	require.NoError(t, err)
	_, _, err = f.auth.Authenticate(ctx, resp.AccessToken)
	assert.NoError(t, err)
}

func TestLinkTelegram(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.adminUser(t)
	now := strconv.FormatInt(time.Now().Unix(), 10)

	forged := signInitData(t, map[string]string{
		"auth_date": now,
		"user":      `{"id":777000,"first_name":"Mallory"}`,
	}, "654321:OTHER-TOKEN")
	_, err := f.auth.LinkTelegram(ctx, admin.ID, forged)
	assert.ErrorIs(t, err, ErrInvalidInitData)

	signed := signInitData(t, map[string]string{
		"auth_date": now,
		"user":      `{"id":777000,"first_name":"John"}`,
	}, botToken)
	linked, err := f.auth.LinkTelegram(ctx, admin.ID, signed)
	require.NoError(t, err)
	require.NotNil(t, linked.TelegramID)
	assert.Equal(t, int64(777000), *linked.TelegramID)

	resp, err := f.auth.LoginWithTelegram(ctx, signed)
	require.NoError(t, err)
	user, _, err := f.auth.Authenticate(ctx, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, admin.ID, user.ID)

	other, err := f.users.Create(ctx, usermodels.UserCreate{Email: "other@example.com", Password: testPassword})
	require.NoError(t, err)
	_, err = f.auth.LinkTelegram(ctx, other.ID, signed)
	assert.ErrorIs(t, err, userservice.ErrTelegramIDTaken)
}
