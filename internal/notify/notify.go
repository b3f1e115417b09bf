// Package notify delivers reservation confirmation messages. Delivery is
// fire-and-forget from the engine's point of view: a failing notifier is
// logged by the caller and never fails the booking.
package notify

import (
	"context"
	"log/slog"
)

// Confirmation is the payload emitted after a successful booking.
type Confirmation struct {
	MessageID     string `json:"message_id"`
	ReservationID int64  `json:"reservation_id"`
	Login         string `json:"login"`
	UserName      string `json:"user_name"`
	RoomName      string `json:"room_name"`
	Date          string `json:"date"`
	Start         string `json:"start_time"`
	End           string `json:"end_time"`
}

// Notifier delivers booking confirmations to users.
type Notifier interface {
	ReservationConfirmed(ctx context.Context, confirmation Confirmation) error
}

// LogNotifier writes confirmations to the structured log. It is the default
// sink when no message broker is configured.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier constructs a notifier writing to the provided logger. A nil
// logger falls back to slog.Default.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

// ReservationConfirmed logs the confirmation. It never fails.
func (n *LogNotifier) ReservationConfirmed(ctx context.Context, confirmation Confirmation) error {
	n.logger.InfoContext(ctx, "reservation confirmed",
		"reservation_id", confirmation.ReservationID,
		"login", confirmation.Login,
		"room", confirmation.RoomName,
		"date", confirmation.Date,
		"start", confirmation.Start,
		"end", confirmation.End,
	)
	return nil
}
