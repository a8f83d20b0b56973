package adaptor

import (
	"hostel-booking/internal/usecase"

	"go.uber.org/zap"
)

type Handler struct {
	User    *UserHandler
	Booking *BookingHandler
	Room    *RoomHandler
}

func NewHandler(service *usecase.Service, log *zap.Logger) *Handler {
	return &Handler{
		User:    NewUserHandler(service.User, log),
		Booking: NewBookingHandler(service.Booking, log),
		Room:    NewRoomHandler(service.Room, log),
	}
}
