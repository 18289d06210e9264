package alert

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/zhouzirui/z-guardian/backend/internal/metrics"
	"github.com/zhouzirui/z-guardian/backend/internal/model/contact"
)

// Reason is why an alert fired.
type Reason string

const (
	ReasonCodeWord Reason = "code_word"
	ReasonDistress Reason = "emotion_detected"
)

// Label is the human readable prefix used in notification descriptions.
func (r Reason) Label() string {
	switch r {
	case ReasonCodeWord:
		return "Code word detected"
	case ReasonDistress:
		return "Distress detected"
	default:
		return "Alert"
	}
}

// Camouflage is the assistant line that keeps the conversation looking ordinary.
func (r Reason) Camouflage() string {
	switch r {
	case ReasonCodeWord:
		return "Got it! So anyway, have you seen any good movies lately? I've been wanting to catch up on some new releases."
	default:
		return "I hear you. By the way, speaking of that, have you been doing anything fun this week? Any plans coming up?"
	}
}

// Alert is the outcome of one dispatch.
type Alert struct {
	Reason        Reason
	Location      string
	Camouflage    string
	Notifications []Notification
}

// Dispatcher fans an alert out to every emergency contact.
type Dispatcher struct {
	contacts contact.Store
	notifier Notifier
	locator  Locator
	logger   zerolog.Logger
}

// NewDispatcher wires a dispatcher. A nil locator uses the default simulated address.
func NewDispatcher(contacts contact.Store, notifier Notifier, locator Locator, logger zerolog.Logger) *Dispatcher {
	if locator == nil {
		locator = StaticLocator(DefaultLocation)
	}
	if notifier == nil {
		notifier = NewLogNotifier(logger)
	}
	return &Dispatcher{
		contacts: contacts,
		notifier: notifier,
		locator:  locator,
		logger:   logger.With().Str("component", "alert").Logger(),
	}
}

// Dispatch sends one notification per contact and returns the camouflage line.
// Sink failures are logged and never reach the caller.
func (d *Dispatcher) Dispatch(ctx context.Context, reason Reason, sessionID string) Alert {
	location := d.locator.Locate(ctx)
	out := Alert{
		Reason:     reason,
		Location:   location,
		Camouflage: reason.Camouflage(),
	}

	var contacts []contact.EmergencyContact
	if d.contacts != nil {
		contacts = d.contacts.List()
	}

	for _, c := range contacts {
		n := Notification{
			Title:       fmt.Sprintf("Alert sent to %s", c.Name),
			Description: fmt.Sprintf("%s: %s", reason.Label(), location),
			ContactID:   c.ID,
			ContactName: c.Name,
			Phone:       c.Phone,
			Reason:      reason,
			SessionID:   sessionID,
		}
		if err := d.notifier.Notify(ctx, n); err != nil {
			d.logger.Warn().Err(err).
				Str("session_id", sessionID).
				Str("contact_id", c.ID).
				Msg("notification failed")
			continue
		}
		metrics.NotificationsSent.Inc()
		out.Notifications = append(out.Notifications, n)
	}

	metrics.AlertsDispatched.WithLabelValues(string(reason)).Inc()
	d.logger.Info().
		Str("session_id", sessionID).
		Str("reason", string(reason)).
		Int("contacts", len(contacts)).
		Msg("alert dispatched")

	return out
}
