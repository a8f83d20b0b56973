package entity

import (
	"strings"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusApproved  BookingStatus = "approved"
	BookingStatusRejected  BookingStatus = "rejected"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// ParseBookingStatus accepts any casing of a known status.
func ParseBookingStatus(s string) (BookingStatus, bool) {
	st := BookingStatus(strings.ToLower(strings.TrimSpace(s)))
	switch st {
	case BookingStatusPending, BookingStatusApproved, BookingStatusRejected, BookingStatusCancelled:
		return st, true
	}
	return "", false
}

// IsActive reports whether the booking still holds or claims a place.
func (s BookingStatus) IsActive() bool {
	return s == BookingStatusPending || s == BookingStatusApproved
}

type Booking struct {
	Base
	UserID uuid.UUID     `db:"user_id"`
	RoomID uuid.UUID     `db:"room_id"`
	Status BookingStatus `db:"status"`
	Note   *string       `db:"note"`
}
