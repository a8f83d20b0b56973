package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hostel-booking/internal/data/entity"
	"hostel-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// OccupancyTx is the view of the booking and room tables inside one
// transaction. Read methods lock the returned row until the transaction ends
// and return nil, nil when the row does not exist.
type OccupancyTx interface {
	ReadBooking(ctx context.Context, id uuid.UUID) (*entity.Booking, error)
	ReadRoom(ctx context.Context, id uuid.UUID) (*entity.Room, error)
	CountApprovedBookings(ctx context.Context, roomID uuid.UUID) (int, error)
	WriteBookingStatus(ctx context.Context, id uuid.UUID, status entity.BookingStatus) error
	WriteRoomOccupancy(ctx context.Context, id uuid.UUID, occupants int, status entity.RoomStatus) error
}

// OccupancyStore runs fn in a transaction: every write made through the
// OccupancyTx commits together when fn returns nil, and none of them is
// visible when fn or the commit fails.
type OccupancyStore interface {
	WithinTx(ctx context.Context, fn func(tx OccupancyTx) error) error
}

type occupancyStore struct {
	db          database.PgxIface
	lockTimeout time.Duration
	log         *zap.Logger
}

func NewOccupancyStore(db database.PgxIface, lockTimeout time.Duration, log *zap.Logger) OccupancyStore {
	return &occupancyStore{
		db:          db,
		lockTimeout: lockTimeout,
		log:         log.With(zap.String("repository", "occupancy")),
	}
}

func (s *occupancyStore) WithinTx(ctx context.Context, fn func(tx OccupancyTx) error) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return s.classify(fmt.Errorf("begin occupancy tx: %w", err))
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		// ctx may already be cancelled; the rollback still has to reach the server
		if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			s.log.Warn("Failed to roll back occupancy tx", zap.Error(rbErr))
		}
	}()

	if s.lockTimeout > 0 {
		// SET does not accept bind parameters
		stmt := fmt.Sprintf("SET LOCAL lock_timeout = %d", s.lockTimeout.Milliseconds())
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return s.classify(fmt.Errorf("set lock timeout: %w", err))
		}
	}

	if err := fn(&occupancyTx{tx: tx, log: s.log}); err != nil {
		return s.classify(err)
	}

	if err := tx.Commit(ctx); err != nil {
		s.log.Warn("Occupancy tx commit failed", zap.Error(err))
		return fmt.Errorf("%w: commit occupancy tx: %w", ErrRetryable, err)
	}
	committed = true

	return nil
}

func (s *occupancyStore) classify(err error) error {
	if database.IsRetryable(err) {
		return fmt.Errorf("%w: %w", ErrRetryable, err)
	}
	return err
}

type occupancyTx struct {
	tx  pgx.Tx
	log *zap.Logger
}

// Rows are always locked booking first, then room, so two transitions on the
// same room cannot deadlock each other.
func (t *occupancyTx) ReadBooking(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1 FOR UPDATE`

	booking, err := scanBooking(t.tx.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lock booking %s: %w", id.String(), err)
	}

	return booking, nil
}

func (t *occupancyTx) ReadRoom(ctx context.Context, id uuid.UUID) (*entity.Room, error) {
	query := `SELECT ` + roomColumns + ` FROM rooms WHERE id = $1 FOR UPDATE`

	room, err := scanRoom(t.tx.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lock room %s: %w", id.String(), err)
	}

	return room, nil
}

func (t *occupancyTx) CountApprovedBookings(ctx context.Context, roomID uuid.UUID) (int, error) {
	query := `SELECT COUNT(*) FROM bookings WHERE room_id = $1 AND status = 'approved'`

	var count int
	if err := t.tx.QueryRow(ctx, query, roomID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count approved bookings for room %s: %w", roomID.String(), err)
	}

	return count, nil
}

func (t *occupancyTx) WriteBookingStatus(ctx context.Context, id uuid.UUID, status entity.BookingStatus) error {
	query := `UPDATE bookings SET status = $2, updated_at = NOW() WHERE id = $1`

	result, err := t.tx.Exec(ctx, query, id, status)
	if err != nil {
		t.log.Error("Failed to write booking status",
			zap.Error(err),
			zap.String("booking_id", id.String()),
			zap.String("status", string(status)),
		)
		return fmt.Errorf("update booking %s status to %s: %w", id.String(), status, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("update booking %s status: %w", id.String(), ErrRowMissing)
	}

	return nil
}

func (t *occupancyTx) WriteRoomOccupancy(ctx context.Context, id uuid.UUID, occupants int, status entity.RoomStatus) error {
	query := `UPDATE rooms SET current_occupants = $2, status = $3, updated_at = NOW() WHERE id = $1`

	result, err := t.tx.Exec(ctx, query, id, occupants, status)
	if err != nil {
		t.log.Error("Failed to write room occupancy",
			zap.Error(err),
			zap.String("room_id", id.String()),
			zap.Int("occupants", occupants),
			zap.String("status", string(status)),
		)
		return fmt.Errorf("update room %s occupancy: %w", id.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("update room %s occupancy: %w", id.String(), ErrRowMissing)
	}

	return nil
}
