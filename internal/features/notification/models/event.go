package models

import (
	"fmt"
	"strconv"
	"time"
)

type EventType string

const (
	EventAccountVerification          EventType = "account_verification"
	EventProfessionalStatusUpgraded   EventType = "professional_status_upgraded"
	EventProfessionalStatusDowngraded EventType = "professional_status_downgraded"
	EventAccountLocked                EventType = "account_locked"
	EventPasswordReset                EventType = "password_reset"
)

var eventTypes = []EventType{
	EventAccountVerification,
	EventProfessionalStatusUpgraded,
	EventProfessionalStatusDowngraded,
	EventAccountLocked,
	EventPasswordReset,
}

func (t EventType) IsValid() bool {
	for _, known := range eventTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Event is a user facing notification request carried over the Redis stream.
type Event struct {
	// ID is the stream entry id, empty until the event has been published.
	ID         string    `json:"id,omitempty"`
	Type       EventType `json:"type"`
	UserID     string    `json:"user_id"`
	Email      string    `json:"email"`
	Nickname   string    `json:"nickname"`
	TelegramID int64     `json:"telegram_id,omitempty"`
	// Link is the verification url for account_verification events.
	Link       string    `json:"link,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Values flattens the event into stream fields.
func (e *Event) Values() map[string]interface{} {
	values := map[string]interface{}{
		"type":        string(e.Type),
		"user_id":     e.UserID,
		"email":       e.Email,
		"nickname":    e.Nickname,
		"occurred_at": e.OccurredAt.UTC().Format(time.RFC3339),
	}
	if e.TelegramID != 0 {
		values["telegram_id"] = strconv.FormatInt(e.TelegramID, 10)
	}
	if e.Link != "" {
		values["link"] = e.Link
	}
	return values
}

// EventFromValues rebuilds an event read from the stream.
func EventFromValues(id string, values map[string]interface{}) (*Event, error) {
	str := func(key string) string {
		s, _ := values[key].(string)
		return s
	}

	e := &Event{
		ID:       id,
		Type:     EventType(str("type")),
		UserID:   str("user_id"),
		Email:    str("email"),
		Nickname: str("nickname"),
		Link:     str("link"),
	}
	if !e.Type.IsValid() {
		return nil, fmt.Errorf("unknown event type %q", e.Type)
	}

	if raw := str("telegram_id"); raw != "" {
		tg, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid telegram_id %q: %w", raw, err)
		}
		e.TelegramID = tg
	}
	if raw := str("occurred_at"); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, fmt.Errorf("invalid occurred_at %q: %w", raw, err)
		}
		e.OccurredAt = ts
	}
	return e, nil
}
