package response

import (
	"time"

	"hostel-booking/internal/data/entity"
)

type BookingResponse struct {
	ID        string               `json:"id"`
	UserID    string               `json:"user_id"`
	RoomID    string               `json:"room_id"`
	Status    entity.BookingStatus `json:"status"`
	Note      *string              `json:"note,omitempty"`
	CreatedAt time.Time            `json:"created_at"`
	UpdatedAt time.Time            `json:"updated_at"`
}

// BookingStatusResponse reports the booking and room state after a status
// change. Changed is false when the booking already had the requested status.
type BookingStatusResponse struct {
	BookingID      string               `json:"booking_id"`
	BookingStatus  entity.BookingStatus `json:"booking_status"`
	PreviousStatus entity.BookingStatus `json:"previous_status"`
	RoomID         string               `json:"room_id"`
	RoomStatus     entity.RoomStatus    `json:"room_status"`
	Occupants      int                  `json:"occupants"`
	Capacity       int                  `json:"capacity"`
	Changed        bool                 `json:"changed"`
}

func BookingToResponse(booking *entity.Booking) BookingResponse {
	return BookingResponse{
		ID:        booking.ID.String(),
		UserID:    booking.UserID.String(),
		RoomID:    booking.RoomID.String(),
		Status:    booking.Status,
		Note:      booking.Note,
		CreatedAt: booking.CreatedAt,
		UpdatedAt: booking.UpdatedAt,
	}
}
