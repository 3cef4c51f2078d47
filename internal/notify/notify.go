// Package notify delivers reminder notifications to users.
package notify

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
)

// ErrNoRecipient is returned when a user has no delivery target.
var ErrNoRecipient = errors.New("no delivery target for user")

// Notification is a message addressed to one user.
type Notification struct {
	Title string
	Body  string
	Type  string
	URL   string
}

// Notifier sends a notification to a single user.
type Notifier interface {
	Notify(ctx context.Context, userID string, n Notification) error
}

// LogNotifier only writes notifications to the log. It is used when no
// delivery channel is configured.
type LogNotifier struct {
	log zerolog.Logger
}

func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log.With().Str("component", "notify").Logger()}
}

func (n *LogNotifier) Notify(ctx context.Context, userID string, msg Notification) error {
	n.log.Info().
		Str("user", userID).
		Str("type", msg.Type).
		Str("title", msg.Title).
		Msg("notification (no delivery channel configured)")
	return nil
}
