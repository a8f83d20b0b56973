package usecase

import (
	"errors"
	"fmt"

	"hostel-booking/internal/data/repository"
)

// User errors: the caller has to change the request.
var (
	ErrInvalidStatus        = errors.New("invalid booking status")
	ErrInvalidID            = errors.New("invalid id")
	ErrValidation           = errors.New("validation failed")
	ErrRoomFull             = errors.New("room is full")
	ErrRoomUnderMaintenance = errors.New("room is under maintenance")
	ErrDuplicateBooking     = errors.New("an active booking for this room already exists")
	ErrRoomNumberTaken      = errors.New("room number already in use")
	ErrNotFound             = errors.New("not found")
)

// Integrity errors: a record the transition depends on is gone.
var (
	ErrBookingNotFound = errors.New("booking not found")
	ErrRoomNotFound    = errors.New("room not found")
)

// ErrTransient means nothing was written and the same call may be retried.
var ErrTransient = errors.New("temporarily unable to apply change")

// IsIntegrityError reports whether err signals upstream data corruption.
func IsIntegrityError(err error) bool {
	return errors.Is(err, ErrBookingNotFound) || errors.Is(err, ErrRoomNotFound)
}

func storeError(op string, err error) error {
	if errors.Is(err, repository.ErrRetryable) {
		return fmt.Errorf("%s: %w: %w", op, ErrTransient, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isUserError(err error) bool {
	for _, target := range []error{
		ErrInvalidStatus, ErrInvalidID, ErrValidation, ErrRoomFull,
		ErrRoomUnderMaintenance, ErrDuplicateBooking, ErrRoomNumberTaken, ErrNotFound,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
