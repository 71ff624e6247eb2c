package notification

import (
	"context"
	"log/slog"
)

const (
	KindPasswordReset = "password_reset"
	KindProfileUpdate = "profile_update"
)

// Message describes a notification payload.
type Message struct {
	Kind        string
	Destination string
	Subject     string
	Body        string
}

// Notifier delivers one-time codes to account holders.
type Notifier interface {
	Send(ctx context.Context, message Message) error
}

// LoggerNotifier writes notifications to the logger. It stands in for a real
// channel in development.
type LoggerNotifier struct {
	logger *slog.Logger
}

func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

func (n *LoggerNotifier) Send(ctx context.Context, message Message) error {
	if n == nil || n.logger == nil {
		return nil
	}
	n.logger.InfoContext(ctx, "notification",
		"kind", message.Kind,
		"destination", message.Destination,
		"subject", message.Subject,
		"body", message.Body,
	)
	return nil
}
