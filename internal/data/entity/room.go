package entity

import "strings"

type RoomType string

const (
	RoomTypeSingle RoomType = "single"
	RoomTypeDouble RoomType = "double"
	RoomTypeTriple RoomType = "triple"
	RoomTypeQuad   RoomType = "quad"
)

// Capacity returns the number of residents a room of this type holds, or 0
// for an unknown type.
func (t RoomType) Capacity() int {
	switch t {
	case RoomTypeSingle:
		return 1
	case RoomTypeDouble:
		return 2
	case RoomTypeTriple:
		return 3
	case RoomTypeQuad:
		return 4
	default:
		return 0
	}
}

func ParseRoomType(s string) (RoomType, bool) {
	t := RoomType(strings.ToLower(strings.TrimSpace(s)))
	return t, t.Capacity() > 0
}

type RoomStatus string

const (
	RoomStatusAvailable         RoomStatus = "available"
	RoomStatusPartiallyOccupied RoomStatus = "partially_occupied"
	RoomStatusFullyOccupied     RoomStatus = "fully_occupied"
	RoomStatusMaintenance       RoomStatus = "maintenance"
)

func ParseRoomStatus(s string) (RoomStatus, bool) {
	st := RoomStatus(strings.ToLower(strings.TrimSpace(s)))
	switch st {
	case RoomStatusAvailable, RoomStatusPartiallyOccupied, RoomStatusFullyOccupied, RoomStatusMaintenance:
		return st, true
	}
	return "", false
}

// DeriveRoomStatus maps an occupancy count onto the availability status.
// Counts outside [0, capacity] are clamped first.
func DeriveRoomStatus(occupants, capacity int) RoomStatus {
	switch {
	case occupants <= 0:
		return RoomStatusAvailable
	case occupants >= capacity:
		return RoomStatusFullyOccupied
	default:
		return RoomStatusPartiallyOccupied
	}
}

type Room struct {
	Base
	RoomNumber       string     `db:"room_number"`
	RoomType         RoomType   `db:"room_type"`
	Capacity         int        `db:"capacity"`
	CurrentOccupants int        `db:"current_occupants"`
	Status           RoomStatus `db:"status"`
}

func (r *Room) UnderMaintenance() bool {
	return r.Status == RoomStatusMaintenance
}

func (r *Room) IsFull() bool {
	return r.CurrentOccupants >= r.Capacity
}

// StatusFor returns the status the room should carry with the given number of
// occupants. Maintenance is sticky and only cleared explicitly.
func (r *Room) StatusFor(occupants int) RoomStatus {
	if r.UnderMaintenance() {
		return RoomStatusMaintenance
	}
	return DeriveRoomStatus(occupants, r.Capacity)
}
