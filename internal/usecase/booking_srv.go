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
	"hostel-booking/internal/notify"
	"hostel-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type BookingService interface {
	// Resident endpoints
	CreateBooking(ctx context.Context, userID uuid.UUID, req *request.CreateBookingRequest) (*response.BookingResponse, error)
	GetUserBookings(ctx context.Context, userID uuid.UUID, req *request.PaginatedRequest) (*response.PaginatedResponse[response.BookingResponse], error)

	// Admin endpoints
	ListBookings(ctx context.Context, req *request.ListBookingsRequest) (*response.PaginatedResponse[response.BookingResponse], error)
	GetBookingByID(ctx context.Context, bookingID string) (*response.BookingResponse, error)
	SetBookingStatus(ctx context.Context, bookingID string, req *request.SetBookingStatusRequest) (*response.BookingStatusResponse, error)
}

type bookingService struct {
	repo       *repository.Repository
	reconciler OccupancyReconciler
	notifier   Notifier
	log        *zap.Logger
}

func NewBookingService(repo *repository.Repository, reconciler OccupancyReconciler, notifier Notifier, log *zap.Logger) BookingService {
	return &bookingService{
		repo:       repo,
		reconciler: reconciler,
		notifier:   notifier,
		log:        log.With(zap.String("service", "booking")),
	}
}

func parseID(kind, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %s id %q", ErrInvalidID, kind, raw)
	}
	return id, nil
}

func validate(req any) error {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}
	return nil
}

func (s *bookingService) CreateBooking(ctx context.Context, userID uuid.UUID, req *request.CreateBookingRequest) (*response.BookingResponse, error) {
	if err := validate(req); err != nil {
		s.log.Warn("Create booking validation failed", zap.Error(err))
		return nil, err
	}

	roomID, err := parseID("room", req.RoomID)
	if err != nil {
		return nil, err
	}

	room, err := s.repo.Room.FindByID(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("find room: %w", err)
	}
	if room == nil {
		return nil, fmt.Errorf("room %s: %w", req.RoomID, ErrNotFound)
	}
	if room.UnderMaintenance() {
		return nil, fmt.Errorf("%w: room %s", ErrRoomUnderMaintenance, room.RoomNumber)
	}

	existing, err := s.repo.Booking.FindActiveByUserAndRoom(ctx, userID, roomID)
	if err != nil {
		return nil, fmt.Errorf("check active booking: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: booking %s", ErrDuplicateBooking, existing.ID)
	}

	now := time.Now()
	booking := &entity.Booking{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		UserID: userID,
		RoomID: roomID,
		Status: entity.BookingStatusPending,
		Note:   req.Note,
	}

	if err := s.repo.Booking.Create(ctx, booking); err != nil {
		// lost a race with a concurrent submission for the same room
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("%w: room %s", ErrDuplicateBooking, room.RoomNumber)
		}
		return nil, fmt.Errorf("create booking: %w", err)
	}

	s.log.Info("Booking submitted",
		zap.String("booking_id", booking.ID.String()),
		zap.String("user_id", userID.String()),
		zap.String("room_id", roomID.String()),
	)

	res := response.BookingToResponse(booking)
	return &res, nil
}

func (s *bookingService) GetUserBookings(ctx context.Context, userID uuid.UUID, req *request.PaginatedRequest) (*response.PaginatedResponse[response.BookingResponse], error) {
	return s.list(ctx, repository.BookingFilter{UserID: userID}, req)
}

func (s *bookingService) ListBookings(ctx context.Context, req *request.ListBookingsRequest) (*response.PaginatedResponse[response.BookingResponse], error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	filter := repository.BookingFilter{Status: entity.BookingStatus(req.Status)}
	if req.RoomID != "" {
		roomID, err := parseID("room", req.RoomID)
		if err != nil {
			return nil, err
		}
		filter.RoomID = roomID
	}

	return s.list(ctx, filter, &req.PaginatedRequest)
}

func (s *bookingService) list(ctx context.Context, filter repository.BookingFilter, page *request.PaginatedRequest) (*response.PaginatedResponse[response.BookingResponse], error) {
	bookings, err := s.repo.Booking.List(ctx, filter, page.Limit(), page.Offset())
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}

	total, err := s.repo.Booking.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("count bookings: %w", err)
	}

	data := make([]response.BookingResponse, 0, len(bookings))
	for _, booking := range bookings {
		data = append(data, response.BookingToResponse(booking))
	}

	return response.NewPaginatedResponse(data, max(page.Page, 1), page.Limit(), total), nil
}

func (s *bookingService) GetBookingByID(ctx context.Context, bookingID string) (*response.BookingResponse, error) {
	id, err := parseID("booking", bookingID)
	if err != nil {
		return nil, err
	}

	booking, err := s.repo.Booking.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find booking: %w", err)
	}
	if booking == nil {
		return nil, fmt.Errorf("booking %s: %w", bookingID, ErrNotFound)
	}

	res := response.BookingToResponse(booking)
	return &res, nil
}

// SetBookingStatus applies an admin decision to a booking. The reconciler is
// called exactly once; residents are notified afterwards without waiting and
// a delivery failure never undoes the change.
func (s *bookingService) SetBookingStatus(ctx context.Context, bookingID string, req *request.SetBookingStatusRequest) (*response.BookingStatusResponse, error) {
	id, err := parseID("booking", bookingID)
	if err != nil {
		return nil, err
	}

	target, ok := entity.ParseBookingStatus(req.Status)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, req.Status)
	}

	t, err := s.reconciler.ApplyTransition(ctx, id, target)
	if err != nil {
		return nil, err
	}

	if t.Changed && s.notifier != nil {
		s.notifier.Notify(notify.Event{
			Type:           notify.EventBookingStatusChanged,
			BookingID:      t.BookingID.String(),
			UserID:         t.UserID.String(),
			RoomID:         t.RoomID.String(),
			PreviousStatus: string(t.PreviousStatus),
			BookingStatus:  string(t.BookingStatus),
			RoomStatus:     string(t.RoomStatus),
			Occupants:      t.Occupants,
			Capacity:       t.Capacity,
			OccurredAt:     time.Now().UTC(),
		})
	}

	return &response.BookingStatusResponse{
		BookingID:      t.BookingID.String(),
		BookingStatus:  t.BookingStatus,
		PreviousStatus: t.PreviousStatus,
		RoomID:         t.RoomID.String(),
		RoomStatus:     t.RoomStatus,
		Occupants:      t.Occupants,
		Capacity:       t.Capacity,
		Changed:        t.Changed,
	}, nil
}
