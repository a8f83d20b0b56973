package usecase

import (
	"hostel-booking/internal/data/repository"
	"hostel-booking/internal/notify"

	"go.uber.org/zap"
)

// Notifier accepts booking events for asynchronous delivery. Notify must not
// block on the downstream systems.
type Notifier interface {
	Notify(event notify.Event)
}

type Service struct {
	User       UserService
	Booking    BookingService
	Room       RoomService
	Reconciler OccupancyReconciler
}

func NewService(repo *repository.Repository, notifier Notifier, log *zap.Logger) *Service {
	reconciler := NewOccupancyReconciler(repo.Occupancy, log)
	return &Service{
		User:       NewUserService(repo.User, log),
		Booking:    NewBookingService(repo, reconciler, notifier, log),
		Room:       NewRoomService(repo, log),
		Reconciler: reconciler,
	}
}
