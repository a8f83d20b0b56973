package request

type CreateBookingRequest struct {
	RoomID string  `json:"room_id" validate:"required,uuid4"`
	Note   *string `json:"note,omitempty" validate:"omitempty,max=500"`
}

// SetBookingStatusRequest is the admin decision on a booking. Status is
// checked against the transition targets by the service, not here, so an
// unknown value surfaces as an invalid status rather than a validation error.
type SetBookingStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type ListBookingsRequest struct {
	PaginatedRequest
	Status string `json:"status" validate:"omitempty,oneof=pending approved rejected cancelled"`
	RoomID string `json:"room_id" validate:"omitempty,uuid4"`
}
