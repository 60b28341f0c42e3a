// Package notify delivers user-facing notifications. The engine core only
// depends on the Notifier interface; the default implementation writes to
// the structured log, and a browser-facing host can substitute its own.
package notify

import (
	"context"

	"github.com/rs/zerolog"
)

// Priority controls how insistently a notification is presented.
type Priority string

const (
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

// Notification is one user-facing message.
type Notification struct {
	Title              string   `json:"title"`
	Message            string   `json:"message"`
	Priority           Priority `json:"priority"`
	RequireInteraction bool     `json:"require_interaction"`
	Actions            []string `json:"actions,omitempty"`
}

// Notifier delivers notifications to the user.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// LogNotifier writes notifications to the structured log. It is the
// fallback when no host notification channel is wired.
type LogNotifier struct {
	log zerolog.Logger
}

func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (l *LogNotifier) Notify(_ context.Context, n Notification) error {
	evt := l.log.Info()
	if n.Priority == PriorityHigh {
		evt = l.log.Warn()
	}
	evt.
		Str("title", n.Title).
		Str("priority", string(n.Priority)).
		Strs("actions", n.Actions).
		Msg(n.Message)
	return nil
}
