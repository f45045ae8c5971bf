package mail

import (
	"context"
	"fmt"

	gomail "github.com/wneessen/go-mail"

	"user-management-backend/internal/common/config"
	"user-management-backend/internal/common/logger"
)

// Client sends multipart (text + HTML) mail over SMTP.
type Client struct {
	client *gomail.Client
	from   string
}

func NewClient(cfg *config.Config) (*Client, error) {
	opts := []gomail.Option{
		gomail.WithPort(cfg.SMTP.Port),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
	}
	if cfg.SMTP.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.SMTP.Username),
			gomail.WithPassword(cfg.SMTP.Password),
		)
	}

	client, err := gomail.NewClient(cfg.SMTP.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create smtp client: %w", err)
	}

	logger.Info().Str("host", cfg.SMTP.Host).Int("port", cfg.SMTP.Port).Msg("SMTP client initialized")
	return &Client{client: client, from: cfg.SMTP.From}, nil
}

// Send delivers one message to a single recipient.
func (c *Client) Send(ctx context.Context, to, subject, textBody, htmlBody string) error {
	msg := gomail.NewMsg()
	if err := msg.From(c.from); err != nil {
		return fmt.Errorf("invalid sender %q: %w", c.from, err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("invalid recipient %q: %w", to, err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextPlain, textBody)
	if htmlBody != "" {
		msg.AddAlternativeString(gomail.TypeTextHTML, htmlBody)
	}

	if err := c.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send mail to %s: %w", to, err)
	}
	return nil
}
