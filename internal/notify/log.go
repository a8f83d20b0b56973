package notify

import (
	"context"

	"go.uber.org/zap"
)

// LogSink records events in the application log. It is always installed so
// there is a trail even when no broker is configured.
type LogSink struct {
	log *zap.Logger
}

func NewLogSink(log *zap.Logger) *LogSink {
	return &LogSink{log: log.With(zap.String("sink", "log"))}
}

func (s *LogSink) Name() string { return "log" }

func (s *LogSink) Publish(ctx context.Context, event Event) error {
	s.log.Info("Booking status notification",
		zap.String("type", event.Type),
		zap.String("booking_id", event.BookingID),
		zap.String("user_id", event.UserID),
		zap.String("room_id", event.RoomID),
		zap.String("booking_status", event.BookingStatus),
		zap.String("room_status", event.RoomStatus),
		zap.Int("occupants", event.Occupants),
	)
	return nil
}

func (s *LogSink) Close() error { return nil }
