package repository

import (
	"time"

	"hostel-booking/pkg/database"

	"go.uber.org/zap"
)

type Repository struct {
	User      UserRepository
	Session   SessionRepository
	Room      RoomRepository
	Booking   BookingRepository
	Occupancy OccupancyStore
}

func NewRepository(db database.PgxIface, lockTimeout time.Duration, log *zap.Logger) *Repository {
	return &Repository{
		User:      NewUserRepository(db, log),
		Session:   NewSessionRepository(db, log),
		Room:      NewRoomRepository(db, log),
		Booking:   NewBookingRepository(db, log),
		Occupancy: NewOccupancyStore(db, lockTimeout, log),
	}
}
