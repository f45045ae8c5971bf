package telegram

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botTOKEN/sendMessage", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "42", r.PostForm.Get("chat_id"))
		assert.Equal(t, "hello", r.PostForm.Get("text"))
		_, _ = w.Write([]byte(`{"ok":true,"result":{}}`))
	}))
	defer srv.Close()

	c := NewClient("TOKEN", WithBaseURL(srv.URL))
	assert.NoError(t, c.SendMessage(context.Background(), 42, "hello"))
}

func TestSendMessage_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":false,"error_code":429,"description":"Too Many Requests","parameters":{"retry_after":3}}`))
	}))
	defer srv.Close()

	c := NewClient("TOKEN", WithBaseURL(srv.URL))
	err := c.SendMessage(context.Background(), 42, "hello")

	var rpsErr *RPSError
	require.True(t, errors.As(err, &rpsErr))
	assert.Equal(t, 3*time.Second, rpsErr.RetryAfter)
}

func TestSendMessage_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`))
	}))
	defer srv.Close()

	c := NewClient("TOKEN", WithBaseURL(srv.URL))
	err := c.SendMessage(context.Background(), 42, "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")
}

func TestSendMessage_NoToken(t *testing.T) {
	c := NewClient("")
	assert.ErrorIs(t, c.SendMessage(context.Background(), 42, "hello"), ErrNoToken)
}

func TestSendMessage_TransportErrorHidesToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	baseURL := srv.URL
	srv.Close()

	const secret = "123456:SECRET-BOT-TOKEN"
	c := NewClient(secret, WithBaseURL(baseURL), WithHTTPClient(&http.Client{Timeout: time.Second}))
	err := c.SendMessage(context.Background(), 42, "hello")

	require.Error(t, err)
	assert.NotContains(t, err.Error(), secret)
	assert.NotContains(t, err.Error(), "/bot")
	assert.Contains(t, err.Error(), "sendMessage")
}

func TestSendMessage_TimeoutHidesToken(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	const secret = "123456:SECRET-BOT-TOKEN"
	c := NewClient(secret, WithBaseURL(srv.URL), WithHTTPClient(&http.Client{Timeout: 50 * time.Millisecond}))
	err := c.SendMessage(context.Background(), 42, "hello")

	require.Error(t, err)
	assert.NotContains(t, err.Error(), secret)
}
