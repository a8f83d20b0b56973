// Package notify fans booking status changes out to the resident chat and
// push subsystems. Delivery is best effort: nothing here can fail or delay
// the transition that produced the event.
package notify

import "time"

const EventBookingStatusChanged = "booking.status_changed"

// Event is the JSON payload published to every sink.
type Event struct {
	Type           string    `json:"type"`
	BookingID      string    `json:"booking_id"`
	UserID         string    `json:"user_id"`
	RoomID         string    `json:"room_id"`
	PreviousStatus string    `json:"previous_status"`
	BookingStatus  string    `json:"booking_status"`
	RoomStatus     string    `json:"room_status"`
	Occupants      int       `json:"occupants"`
	Capacity       int       `json:"capacity"`
	OccurredAt     time.Time `json:"occurred_at"`
}
