package response

import (
	"time"

	"hostel-booking/internal/data/entity"
)

type RoomResponse struct {
	ID               string            `json:"id"`
	RoomNumber       string            `json:"room_number"`
	RoomType         entity.RoomType   `json:"room_type"`
	Capacity         int               `json:"capacity"`
	CurrentOccupants int               `json:"current_occupants"`
	AvailableSpots   int               `json:"available_spots"`
	Status           entity.RoomStatus `json:"status"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// OccupancyAuditResponse is the outcome of recounting a room's approved
// bookings. Drift is approved bookings minus the stored counter.
type OccupancyAuditResponse struct {
	RoomID           string            `json:"room_id"`
	StoredOccupants  int               `json:"stored_occupants"`
	ApprovedBookings int               `json:"approved_bookings"`
	Occupants        int               `json:"occupants"`
	Drift            int               `json:"drift"`
	OverCapacity     bool              `json:"over_capacity"`
	Status           entity.RoomStatus `json:"status"`
	Corrected        bool              `json:"corrected"`
}

func RoomToResponse(room *entity.Room) RoomResponse {
	return RoomResponse{
		ID:               room.ID.String(),
		RoomNumber:       room.RoomNumber,
		RoomType:         room.RoomType,
		Capacity:         room.Capacity,
		CurrentOccupants: room.CurrentOccupants,
		AvailableSpots:   max(0, room.Capacity-room.CurrentOccupants),
		Status:           room.Status,
		CreatedAt:        room.CreatedAt,
		UpdatedAt:        room.UpdatedAt,
	}
}
