package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"user-management-backend/internal/common/logger"
	"user-management-backend/internal/features/notification/models"
)

type Mailer interface {
	Send(ctx context.Context, to, subject, textBody, htmlBody string) error
}

type TelegramSender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// Dispatcher delivers events by email and, for linked accounts, Telegram.
type Dispatcher struct {
	renderer *Renderer
	mailer   Mailer
	telegram TelegramSender
	log      zerolog.Logger
}

// NewDispatcher builds a dispatcher. mailer and telegram may be nil to disable a channel.
func NewDispatcher(renderer *Renderer, mailer Mailer, telegram TelegramSender) *Dispatcher {
	return &Dispatcher{
		renderer: renderer,
		mailer:   mailer,
		telegram: telegram,
		log:      logger.Component("notification_dispatcher"),
	}
}

func (d *Dispatcher) Dispatch(ctx context.Context, event *models.Event) error {
	msg, err := d.renderer.Render(event)
	if err != nil {
		return err
	}

	var errs []error

	if d.mailer != nil && event.Email != "" {
		if err := d.mailer.Send(ctx, event.Email, msg.Subject, msg.Text, msg.HTML); err != nil {
			errs = append(errs, fmt.Errorf("email: %w", err))
		}
	}

	if d.telegram != nil && event.TelegramID != 0 {
		if err := d.telegram.SendMessage(ctx, event.TelegramID, msg.Text); err != nil {
			errs = append(errs, fmt.Errorf("telegram: %w", err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return err
	}

	d.log.Info().
		Str("event", string(event.Type)).
		Str("user_id", event.UserID).
		Msg("Notification delivered")
	return nil
}
