package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hostel-booking/internal/data/entity"
	"hostel-booking/internal/data/repository"
	"hostel-booking/internal/dto/request"
	"hostel-booking/internal/dto/response"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type RoomService interface {
	ListRooms(ctx context.Context, req *request.ListRoomsRequest) (*response.PaginatedResponse[response.RoomResponse], error)
	GetRoom(ctx context.Context, roomID string) (*response.RoomResponse, error)

	// Admin endpoints
	CreateRoom(ctx context.Context, req *request.CreateRoomRequest) (*response.RoomResponse, error)
	SetMaintenance(ctx context.Context, roomID string, req *request.SetMaintenanceRequest) (*response.RoomResponse, error)
	RecountOccupancy(ctx context.Context, roomID string) (*response.OccupancyAuditResponse, error)
}

type roomService struct {
	repo *repository.Repository
	log  *zap.Logger
}

func NewRoomService(repo *repository.Repository, log *zap.Logger) RoomService {
	return &roomService{
		repo: repo,
		log:  log.With(zap.String("service", "room")),
	}
}

func (s *roomService) ListRooms(ctx context.Context, req *request.ListRoomsRequest) (*response.PaginatedResponse[response.RoomResponse], error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	var filter repository.RoomFilter
	if req.Status != "" {
		status, ok := entity.ParseRoomStatus(req.Status)
		if !ok {
			return nil, fmt.Errorf("%w: status: unknown room status %q", ErrValidation, req.Status)
		}
		filter.Status = status
	}
	if req.RoomType != "" {
		roomType, ok := entity.ParseRoomType(req.RoomType)
		if !ok {
			return nil, fmt.Errorf("%w: room_type: unknown room type %q", ErrValidation, req.RoomType)
		}
		filter.RoomType = roomType
	}

	rooms, err := s.repo.Room.List(ctx, filter, req.Limit(), req.Offset())
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}

	total, err := s.repo.Room.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("count rooms: %w", err)
	}

	data := make([]response.RoomResponse, 0, len(rooms))
	for _, room := range rooms {
		data = append(data, response.RoomToResponse(room))
	}

	return response.NewPaginatedResponse(data, max(req.Page, 1), req.Limit(), total), nil
}

func (s *roomService) GetRoom(ctx context.Context, roomID string) (*response.RoomResponse, error) {
	id, err := parseID("room", roomID)
	if err != nil {
		return nil, err
	}

	room, err := s.repo.Room.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find room: %w", err)
	}
	if room == nil {
		return nil, fmt.Errorf("room %s: %w", roomID, ErrNotFound)
	}

	res := response.RoomToResponse(room)
	return &res, nil
}

func (s *roomService) CreateRoom(ctx context.Context, req *request.CreateRoomRequest) (*response.RoomResponse, error) {
	if err := validate(req); err != nil {
		s.log.Warn("Create room validation failed", zap.Error(err))
		return nil, err
	}

	roomType, ok := entity.ParseRoomType(req.RoomType)
	if !ok {
		return nil, fmt.Errorf("%w: unknown room type %q", ErrValidation, req.RoomType)
	}

	existing, err := s.repo.Room.FindByNumber(ctx, req.RoomNumber)
	if err != nil {
		return nil, fmt.Errorf("check room number: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: %s", ErrRoomNumberTaken, req.RoomNumber)
	}

	now := time.Now()
	room := &entity.Room{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		RoomNumber: req.RoomNumber,
		RoomType:   roomType,
		Capacity:   roomType.Capacity(),
		Status:     entity.RoomStatusAvailable,
	}

	if err := s.repo.Room.Create(ctx, room); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("%w: %s", ErrRoomNumberTaken, req.RoomNumber)
		}
		return nil, fmt.Errorf("create room: %w", err)
	}

	s.log.Info("Room provisioned",
		zap.String("room_id", room.ID.String()),
		zap.String("room_number", room.RoomNumber),
		zap.String("room_type", string(room.RoomType)),
	)

	res := response.RoomToResponse(room)
	return &res, nil
}

// SetMaintenance takes a room out of service or returns it. The occupant
// counter is left alone either way; on return the status is derived from it.
func (s *roomService) SetMaintenance(ctx context.Context, roomID string, req *request.SetMaintenanceRequest) (*response.RoomResponse, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	id, err := parseID("room", roomID)
	if err != nil {
		return nil, err
	}

	var updated *entity.Room
	err = s.repo.Occupancy.WithinTx(ctx, func(tx repository.OccupancyTx) error {
		room, err := tx.ReadRoom(ctx, id)
		if err != nil {
			return err
		}
		if room == nil {
			return fmt.Errorf("room %s: %w", roomID, ErrNotFound)
		}

		status := entity.DeriveRoomStatus(room.CurrentOccupants, room.Capacity)
		if *req.Maintenance {
			status = entity.RoomStatusMaintenance
		}
		if status != room.Status {
			if err := tx.WriteRoomOccupancy(ctx, room.ID, room.CurrentOccupants, status); err != nil {
				return err
			}
			room.Status = status
		}

		updated = room
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		s.log.Error("Failed to set room maintenance", zap.Error(err), zap.String("room_id", roomID))
		return nil, storeError("set maintenance", err)
	}

	s.log.Info("Room maintenance updated",
		zap.String("room_id", roomID),
		zap.Bool("maintenance", *req.Maintenance),
		zap.String("status", string(updated.Status)),
	)

	res := response.RoomToResponse(updated)
	return &res, nil
}

// RecountOccupancy rebuilds a room's counter from its approved bookings while
// holding the room lock. A count above capacity means the capacity invariant
// was broken elsewhere; the counter is clamped and the fault is logged.
func (s *roomService) RecountOccupancy(ctx context.Context, roomID string) (*response.OccupancyAuditResponse, error) {
	id, err := parseID("room", roomID)
	if err != nil {
		return nil, err
	}

	var audit *response.OccupancyAuditResponse
	err = s.repo.Occupancy.WithinTx(ctx, func(tx repository.OccupancyTx) error {
		room, err := tx.ReadRoom(ctx, id)
		if err != nil {
			return err
		}
		if room == nil {
			return fmt.Errorf("room %s: %w", roomID, ErrNotFound)
		}

		approved, err := tx.CountApprovedBookings(ctx, room.ID)
		if err != nil {
			return err
		}

		occupants := min(approved, room.Capacity)
		status := room.StatusFor(occupants)
		audit = &response.OccupancyAuditResponse{
			RoomID:           room.ID.String(),
			StoredOccupants:  room.CurrentOccupants,
			ApprovedBookings: approved,
			Occupants:        occupants,
			Drift:            approved - room.CurrentOccupants,
			OverCapacity:     approved > room.Capacity,
			Status:           status,
		}

		if occupants == room.CurrentOccupants && status == room.Status {
			return nil
		}
		if err := tx.WriteRoomOccupancy(ctx, room.ID, occupants, status); err != nil {
			return err
		}
		audit.Corrected = true
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		s.log.Error("Failed to recount room occupancy", zap.Error(err), zap.String("room_id", roomID))
		return nil, storeError("recount occupancy", err)
	}

	switch {
	case audit.OverCapacity:
		s.log.Error("Room has more approved bookings than places",
			zap.String("room_id", roomID),
			zap.Int("approved", audit.ApprovedBookings),
			zap.Int("occupants", audit.Occupants),
		)
	case audit.Corrected:
		s.log.Warn("Room occupancy drift corrected",
			zap.String("room_id", roomID),
			zap.Int("stored", audit.StoredOccupants),
			zap.Int("occupants", audit.Occupants),
		)
	}

	return audit, nil
}
