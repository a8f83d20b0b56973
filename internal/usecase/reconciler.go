package usecase

import (
	"context"
	"errors"
	"fmt"

	"hostel-booking/internal/data/entity"
	"hostel-booking/internal/data/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type transitionKey struct {
	from entity.BookingStatus
	to   entity.BookingStatus
}

// occupancyDelta is the change in a room's occupant count for every
// (current status, requested status) pair. Pending is never a valid target.
var occupancyDelta = map[transitionKey]int{
	{entity.BookingStatusPending, entity.BookingStatusApproved}:  +1,
	{entity.BookingStatusPending, entity.BookingStatusRejected}:  0,
	{entity.BookingStatusPending, entity.BookingStatusCancelled}: 0,

	{entity.BookingStatusApproved, entity.BookingStatusApproved}:  0,
	{entity.BookingStatusApproved, entity.BookingStatusRejected}:  -1,
	{entity.BookingStatusApproved, entity.BookingStatusCancelled}: -1,

	{entity.BookingStatusRejected, entity.BookingStatusApproved}:  +1,
	{entity.BookingStatusRejected, entity.BookingStatusRejected}:  0,
	{entity.BookingStatusRejected, entity.BookingStatusCancelled}: 0,

	{entity.BookingStatusCancelled, entity.BookingStatusApproved}:  +1,
	{entity.BookingStatusCancelled, entity.BookingStatusRejected}:  0,
	{entity.BookingStatusCancelled, entity.BookingStatusCancelled}: 0,
}

// OccupancyDelta looks up the occupancy change for moving a booking from one
// status to another. ok is false when to is not a valid target or from is
// unknown.
func OccupancyDelta(from, to entity.BookingStatus) (delta int, ok bool) {
	delta, ok = occupancyDelta[transitionKey{from, to}]
	return delta, ok
}

// IsTransitionTarget reports whether a booking may be moved to status.
func IsTransitionTarget(status entity.BookingStatus) bool {
	switch status {
	case entity.BookingStatusApproved, entity.BookingStatusRejected, entity.BookingStatusCancelled:
		return true
	}
	return false
}

// Transition is the state of a booking and its room after ApplyTransition.
type Transition struct {
	BookingID      uuid.UUID
	UserID         uuid.UUID
	RoomID         uuid.UUID
	PreviousStatus entity.BookingStatus
	BookingStatus  entity.BookingStatus
	RoomStatus     entity.RoomStatus
	Occupants      int
	Capacity       int
	Delta          int
	// Changed is false when the booking already had the requested status.
	Changed bool
}

// OccupancyReconciler keeps room occupancy consistent with the set of
// approved bookings.
type OccupancyReconciler interface {
	ApplyTransition(ctx context.Context, bookingID uuid.UUID, target entity.BookingStatus) (*Transition, error)
}

type occupancyReconciler struct {
	store repository.OccupancyStore
	log   *zap.Logger
}

func NewOccupancyReconciler(store repository.OccupancyStore, log *zap.Logger) OccupancyReconciler {
	return &occupancyReconciler{
		store: store,
		log:   log.With(zap.String("service", "occupancy")),
	}
}

// ApplyTransition moves a booking to target and adjusts its room's occupancy
// in the same transaction. Either both records change or neither does.
func (r *occupancyReconciler) ApplyTransition(ctx context.Context, bookingID uuid.UUID, target entity.BookingStatus) (*Transition, error) {
	if !IsTransitionTarget(target) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, target)
	}

	var result *Transition
	err := r.store.WithinTx(ctx, func(tx repository.OccupancyTx) error {
		t, err := r.apply(ctx, tx, bookingID, target)
		if err != nil {
			return err
		}
		result = t
		return nil
	})
	if err != nil {
		return nil, r.fail(err, bookingID, target)
	}

	if result.Changed {
		r.log.Info("Booking transition applied",
			zap.String("booking_id", bookingID.String()),
			zap.String("room_id", result.RoomID.String()),
			zap.String("from", string(result.PreviousStatus)),
			zap.String("to", string(result.BookingStatus)),
			zap.Int("delta", result.Delta),
			zap.Int("occupants", result.Occupants),
			zap.String("room_status", string(result.RoomStatus)),
		)
	}

	return result, nil
}

func (r *occupancyReconciler) apply(ctx context.Context, tx repository.OccupancyTx, bookingID uuid.UUID, target entity.BookingStatus) (*Transition, error) {
	booking, err := tx.ReadBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, fmt.Errorf("%w: %s", ErrBookingNotFound, bookingID)
	}

	room, err := tx.ReadRoom(ctx, booking.RoomID)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, fmt.Errorf("%w: %s referenced by booking %s", ErrRoomNotFound, booking.RoomID, bookingID)
	}

	// prev is captured before any write; the delta must never be computed
	// from a status this transaction has already changed.
	prev := booking.Status
	t := &Transition{
		BookingID:      booking.ID,
		UserID:         booking.UserID,
		RoomID:         room.ID,
		PreviousStatus: prev,
		BookingStatus:  prev,
		RoomStatus:     room.Status,
		Occupants:      room.CurrentOccupants,
		Capacity:       room.Capacity,
	}

	if prev == target {
		return t, nil
	}

	delta, ok := OccupancyDelta(prev, target)
	if !ok {
		return nil, fmt.Errorf("booking %s has unknown status %q", bookingID, prev)
	}

	occupants := room.CurrentOccupants
	switch delta {
	case +1:
		if room.UnderMaintenance() {
			return nil, fmt.Errorf("%w: room %s", ErrRoomUnderMaintenance, room.RoomNumber)
		}
		if room.IsFull() {
			return nil, fmt.Errorf("%w: room %s has %d of %d places taken", ErrRoomFull, room.RoomNumber, occupants, room.Capacity)
		}
		occupants++
	case -1:
		if occupants <= 0 {
			r.log.Warn("Occupancy counter already at zero on release",
				zap.String("room_id", room.ID.String()),
				zap.String("booking_id", bookingID.String()),
			)
		}
		occupants = max(0, occupants-1)
	}

	if err := tx.WriteBookingStatus(ctx, booking.ID, target); err != nil {
		return nil, err
	}

	roomStatus := room.Status
	if delta != 0 {
		roomStatus = room.StatusFor(occupants)
		if err := tx.WriteRoomOccupancy(ctx, room.ID, occupants, roomStatus); err != nil {
			return nil, err
		}
	}

	t.BookingStatus = target
	t.RoomStatus = roomStatus
	t.Occupants = occupants
	t.Delta = delta
	t.Changed = true
	return t, nil
}

func (r *occupancyReconciler) fail(err error, bookingID uuid.UUID, target entity.BookingStatus) error {
	fields := []zap.Field{
		zap.Error(err),
		zap.String("booking_id", bookingID.String()),
		zap.String("target", string(target)),
	}

	switch {
	case IsIntegrityError(err):
		r.log.Error("Booking transition hit missing record", fields...)
		return err
	case isUserError(err):
		r.log.Warn("Booking transition rejected", fields...)
		return err
	}

	if errors.Is(err, repository.ErrRetryable) {
		r.log.Warn("Booking transition aborted, nothing written", fields...)
	} else {
		r.log.Error("Booking transition failed", fields...)
	}
	return storeError("apply transition", err)
}
