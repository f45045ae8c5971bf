package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"user-management-backend/internal/common/logger"
)

const defaultBaseURL = "https://api.telegram.org"

var ErrNoToken = errors.New("telegram bot token is not configured")

type Client struct {
	httpClient *http.Client
	token      string
	baseURL    string
	log        zerolog.Logger
}

// RPSError is returned when Telegram rejects a call with 429.
type RPSError struct {
	Msg        string
	RetryAfter time.Duration
}

func (e *RPSError) Error() string {
	return e.Msg
}

// Response is the Bot API envelope.
type Response struct {
	Ok          bool            `json:"ok"`
	Result      json.RawMessage `json:"result,omitempty"`
	ErrorCode   int             `json:"error_code,omitempty"`
	Description string          `json:"description,omitempty"`
	Parameters  *struct {
		RetryAfter int `json:"retry_after"`
	} `json:"parameters,omitempty"`
}

type Option func(*Client)

// WithBaseURL points the client at another Bot API server.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(baseURL, "/") }
}

// WithHTTPClient replaces the default client, which has a 10s timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func NewClient(token string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		token:   token,
		baseURL: defaultBaseURL,
		log:     logger.Component("telegram_client"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SendMessage delivers a plain text message to a chat or user.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	if c.token == "" {
		return ErrNoToken
	}

	params := url.Values{
		"chat_id": {strconv.FormatInt(chatID, 10)},
		"text":    {text},
	}

	var response Response
	if err := c.postForm(ctx, "sendMessage", params, &response); err != nil {
		c.log.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send message")
		return err
	}

	if !response.Ok {
		if response.ErrorCode == http.StatusTooManyRequests {
			rpsErr := &RPSError{Msg: fmt.Sprintf("telegram rate limit: %s", response.Description)}
			if response.Parameters != nil {
				rpsErr.RetryAfter = time.Duration(response.Parameters.RetryAfter) * time.Second
			}
			return rpsErr
		}
		return fmt.Errorf("telegram API error: %s", response.Description)
	}

	c.log.Debug().Int64("chat_id", chatID).Msg("Message sent")
	return nil
}

// postForm calls a Bot API method. Transport errors are unwrapped from
// *url.Error, whose URL embeds the bot token.
func (c *Client) postForm(ctx context.Context, apiMethod string, data url.Values, result interface{}) error {
	endpoint := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, apiMethod)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(data.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create request for %s", apiMethod)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return fmt.Errorf("failed to send %s request: %w", apiMethod, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	return nil
}
