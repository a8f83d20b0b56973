package request

type CreateRoomRequest struct {
	RoomNumber string `json:"room_number" validate:"required,min=1,max=20"`
	RoomType   string `json:"room_type" validate:"required,oneof=single double triple quad"`
}

type SetMaintenanceRequest struct {
	Maintenance *bool `json:"maintenance" validate:"required"`
}

type ListRoomsRequest struct {
	PaginatedRequest
	Status   string `json:"status" validate:"omitempty,max=32"`
	RoomType string `json:"room_type" validate:"omitempty,max=16"`
}
