package alert

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
)

// Notification is one message to one contact.
type Notification struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	ContactID   string `json:"contactId"`
	ContactName string `json:"contactName"`
	Phone       string `json:"phone"`
	Reason      Reason `json:"reason"`
	SessionID   string `json:"sessionId"`
}

// Notifier delivers notifications. Implementations must not block the caller
// for long: Dispatch runs while a call session is locked.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, n Notification) error

// Notify implements Notifier.
func (f NotifierFunc) Notify(ctx context.Context, n Notification) error {
	return f(ctx, n)
}

// Multi sends to every notifier and joins their errors.
type Multi []Notifier

// Notify implements Notifier.
func (m Multi) Notify(ctx context.Context, n Notification) error {
	var errs []error
	for _, notifier := range m {
		if notifier == nil {
			continue
		}
		if err := notifier.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogNotifier writes notifications to the log, standing in for SMS delivery.
type LogNotifier struct {
	logger zerolog.Logger
}

// NewLogNotifier returns a LogNotifier.
func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With().Str("component", "notifier").Logger()}
}

// Notify implements Notifier.
func (l *LogNotifier) Notify(_ context.Context, n Notification) error {
	l.logger.Info().
		Str("session_id", n.SessionID).
		Str("contact_id", n.ContactID).
		Str("reason", string(n.Reason)).
		Str("description", n.Description).
		Msg(n.Title)
	return nil
}
