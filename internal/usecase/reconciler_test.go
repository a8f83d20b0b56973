package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"hostel-booking/internal/data/entity"
	"hostel-booking/internal/data/memstore"
	"hostel-booking/internal/data/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fixture struct {
	store *memstore.Store
	repo  *repository.Repository
}

func newFixture() *fixture {
	store := memstore.New()
	return &fixture{store: store, repo: store.Repository()}
}

func (f *fixture) room(t *testing.T, roomType entity.RoomType, occupants int) entity.Room {
	t.Helper()
	room := entity.Room{
		Base:             entity.Base{ID: uuid.New(), CreatedAt: time.Now(), UpdatedAt: time.Now()},
		RoomNumber:       "R-" + uuid.NewString()[:8],
		RoomType:         roomType,
		Capacity:         roomType.Capacity(),
		CurrentOccupants: occupants,
		Status:           entity.DeriveRoomStatus(occupants, roomType.Capacity()),
	}
	require.NoError(t, f.repo.Room.Create(context.Background(), &room))
	return room
}

func (f *fixture) booking(t *testing.T, roomID uuid.UUID, status entity.BookingStatus) entity.Booking {
	t.Helper()
	booking := entity.Booking{
		Base:   entity.Base{ID: uuid.New(), CreatedAt: time.Now(), UpdatedAt: time.Now()},
		UserID: uuid.New(),
		RoomID: roomID,
		Status: status,
	}
	require.NoError(t, f.repo.Booking.Create(context.Background(), &booking))
	return booking
}

func (f *fixture) roomState(t *testing.T, id uuid.UUID) entity.Room {
	t.Helper()
	room, ok := f.store.Room(id)
	require.True(t, ok)
	return room
}

func (f *fixture) bookingStatus(t *testing.T, id uuid.UUID) entity.BookingStatus {
	t.Helper()
	booking, ok := f.store.Booking(id)
	require.True(t, ok)
	return booking.Status
}

func (f *fixture) approvedIn(roomID uuid.UUID) int {
	bookings, _ := f.repo.Booking.List(context.Background(),
		repository.BookingFilter{RoomID: roomID, Status: entity.BookingStatusApproved}, 0, 0)
	return len(bookings)
}

var allStatuses = []entity.BookingStatus{
	entity.BookingStatusPending,
	entity.BookingStatusApproved,
	entity.BookingStatusRejected,
	entity.BookingStatusCancelled,
}

var targets = []entity.BookingStatus{
	entity.BookingStatusApproved,
	entity.BookingStatusRejected,
	entity.BookingStatusCancelled,
}

func TestOccupancyDeltaTable(t *testing.T) {
	want := map[entity.BookingStatus]map[entity.BookingStatus]int{
		entity.BookingStatusPending:   {entity.BookingStatusApproved: +1, entity.BookingStatusRejected: 0, entity.BookingStatusCancelled: 0},
		entity.BookingStatusApproved:  {entity.BookingStatusApproved: 0, entity.BookingStatusRejected: -1, entity.BookingStatusCancelled: -1},
		entity.BookingStatusRejected:  {entity.BookingStatusApproved: +1, entity.BookingStatusRejected: 0, entity.BookingStatusCancelled: 0},
		entity.BookingStatusCancelled: {entity.BookingStatusApproved: +1, entity.BookingStatusRejected: 0, entity.BookingStatusCancelled: 0},
	}

	count := 0
	for _, from := range allStatuses {
		for _, to := range targets {
			delta, ok := OccupancyDelta(from, to)
			require.True(t, ok, "%s -> %s", from, to)
			assert.Equal(t, want[from][to], delta, "%s -> %s", from, to)
			count++
		}
		_, ok := OccupancyDelta(from, entity.BookingStatusPending)
		assert.False(t, ok, "%s -> pending must not be a transition", from)
	}
	assert.Equal(t, 12, count)
	assert.Len(t, occupancyDelta, 12)
}

func TestApplyTransitionEveryPair(t *testing.T) {
	for _, from := range allStatuses {
		for _, to := range targets {
			t.Run(fmt.Sprintf("%s_to_%s", from, to), func(t *testing.T) {
				f := newFixture()
				occupants := 0
				if from == entity.BookingStatusApproved {
					occupants = 1
				}
				room := f.room(t, entity.RoomTypeDouble, occupants)
				booking := f.booking(t, room.ID, from)
				r := NewOccupancyReconciler(f.repo.Occupancy, zap.NewNop())

				got, err := r.ApplyTransition(context.Background(), booking.ID, to)
				require.NoError(t, err)

				delta, _ := OccupancyDelta(from, to)
				after := f.roomState(t, room.ID)
				assert.Equal(t, occupants+delta, after.CurrentOccupants)
				assert.Equal(t, entity.DeriveRoomStatus(after.CurrentOccupants, 2), after.Status)
				assert.Equal(t, to, f.bookingStatus(t, booking.ID))
				assert.Equal(t, f.approvedIn(room.ID), after.CurrentOccupants)

				assert.Equal(t, from, got.PreviousStatus)
				assert.Equal(t, to, got.BookingStatus)
				assert.Equal(t, from != to, got.Changed)
				assert.Equal(t, delta, got.Delta)
				assert.Equal(t, after.CurrentOccupants, got.Occupants)
				assert.Equal(t, after.Status, got.RoomStatus)
			})
		}
	}
}

func TestApplyTransitionRejectsInvalidTarget(t *testing.T) {
	f := newFixture()
	room := f.room(t, entity.RoomTypeSingle, 0)
	booking := f.booking(t, room.ID, entity.BookingStatusApproved)
	r := NewOccupancyReconciler(f.repo.Occupancy, zap.NewNop())

	for _, target := range []entity.BookingStatus{entity.BookingStatusPending, "archived", ""} {
		_, err := r.ApplyTransition(context.Background(), booking.ID, target)
		assert.ErrorIs(t, err, ErrInvalidStatus, "target %q", target)
	}
	assert.Equal(t, entity.BookingStatusApproved, f.bookingStatus(t, booking.ID))
}

func TestApplyTransitionMissingRecords(t *testing.T) {
	f := newFixture()
	core, logs := observer.New(zap.ErrorLevel)
	r := NewOccupancyReconciler(f.repo.Occupancy, zap.New(core))

	_, err := r.ApplyTransition(context.Background(), uuid.New(), entity.BookingStatusApproved)
	assert.ErrorIs(t, err, ErrBookingNotFound)
	assert.True(t, IsIntegrityError(err))
	assert.Equal(t, 1, logs.FilterMessage("Booking transition hit missing record").Len())
}

func TestApplyTransitionMissingRoom(t *testing.T) {
	f := newFixture()
	room := f.room(t, entity.RoomTypeSingle, 0)
	booking := f.booking(t, room.ID, entity.BookingStatusPending)

	// point the booking at a room that does not exist
	store := &danglingRoomStore{OccupancyStore: f.repo.Occupancy, roomID: uuid.New()}
	r := NewOccupancyReconciler(store, zap.NewNop())

	_, err := r.ApplyTransition(context.Background(), booking.ID, entity.BookingStatusApproved)
	assert.ErrorIs(t, err, ErrRoomNotFound)
	assert.Equal(t, entity.BookingStatusPending, f.bookingStatus(t, booking.ID))
}

func TestDoubleRoomScenario(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	room := f.room(t, entity.RoomTypeDouble, 0)
	a := f.booking(t, room.ID, entity.BookingStatusPending)
	b := f.booking(t, room.ID, entity.BookingStatusPending)
	c := f.booking(t, room.ID, entity.BookingStatusPending)
	r := NewOccupancyReconciler(f.repo.Occupancy, zap.NewNop())

	got, err := r.ApplyTransition(ctx, a.ID, entity.BookingStatusApproved)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Occupants)
	assert.Equal(t, entity.RoomStatusPartiallyOccupied, got.RoomStatus)

	got, err = r.ApplyTransition(ctx, b.ID, entity.BookingStatusApproved)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Occupants)
	assert.Equal(t, entity.RoomStatusFullyOccupied, got.RoomStatus)

	_, err = r.ApplyTransition(ctx, c.ID, entity.BookingStatusApproved)
	assert.ErrorIs(t, err, ErrRoomFull)
	assert.Equal(t, entity.BookingStatusPending, f.bookingStatus(t, c.ID))
	assert.Equal(t, 2, f.roomState(t, room.ID).CurrentOccupants)

	got, err = r.ApplyTransition(ctx, a.ID, entity.BookingStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, -1, got.Delta)
	room = f.roomState(t, room.ID)
	assert.Equal(t, 1, room.CurrentOccupants)
	assert.Equal(t, entity.RoomStatusPartiallyOccupied, room.Status)

	// the freed place can now be taken
	_, err = r.ApplyTransition(ctx, c.ID, entity.BookingStatusApproved)
	require.NoError(t, err)
	assert.Equal(t, entity.RoomStatusFullyOccupied, f.roomState(t, room.ID).Status)
}

func TestSingleRoomRejectionScenario(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	room := f.room(t, entity.RoomTypeSingle, 0)
	a := f.booking(t, room.ID, entity.BookingStatusPending)
	r := NewOccupancyReconciler(f.repo.Occupancy, zap.NewNop())

	_, err := r.ApplyTransition(ctx, a.ID, entity.BookingStatusApproved)
	require.NoError(t, err)
	assert.Equal(t, entity.RoomStatusFullyOccupied, f.roomState(t, room.ID).Status)

	got, err := r.ApplyTransition(ctx, a.ID, entity.BookingStatusRejected)
	require.NoError(t, err)
	assert.Equal(t, entity.BookingStatusApproved, got.PreviousStatus)
	room = f.roomState(t, room.ID)
	assert.Equal(t, 0, room.CurrentOccupants)
	assert.Equal(t, entity.RoomStatusAvailable, room.Status)
	assert.Equal(t, entity.BookingStatusRejected, f.bookingStatus(t, a.ID))
}

func TestApplyTransitionIsIdempotent(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	room := f.room(t, entity.RoomTypeTriple, 0)
	booking := f.booking(t, room.ID, entity.BookingStatusPending)
	r := NewOccupancyReconciler(f.repo.Occupancy, zap.NewNop())

	first, err := r.ApplyTransition(ctx, booking.ID, entity.BookingStatusApproved)
	require.NoError(t, err)
	assert.True(t, first.Changed)
	before := f.roomState(t, room.ID)

	for i := 0; i < 3; i++ {
		again, err := r.ApplyTransition(ctx, booking.ID, entity.BookingStatusApproved)
		require.NoError(t, err)
		assert.False(t, again.Changed)
		assert.Equal(t, 0, again.Delta)
		assert.Equal(t, first.Occupants, again.Occupants)
	}
	after := f.roomState(t, room.ID)
	assert.Equal(t, before.CurrentOccupants, after.CurrentOccupants)
	assert.Equal(t, before.UpdatedAt, after.UpdatedAt, "a no-op must not write the room")
}

func TestApproveThenReleaseRestoresRoom(t *testing.T) {
	for _, release := range []entity.BookingStatus{entity.BookingStatusRejected, entity.BookingStatusCancelled} {
		t.Run(string(release), func(t *testing.T) {
			f := newFixture()
			ctx := context.Background()
			room := f.room(t, entity.RoomTypeQuad, 2)
			booking := f.booking(t, room.ID, entity.BookingStatusPending)
			r := NewOccupancyReconciler(f.repo.Occupancy, zap.NewNop())

			_, err := r.ApplyTransition(ctx, booking.ID, entity.BookingStatusApproved)
			require.NoError(t, err)
			_, err = r.ApplyTransition(ctx, booking.ID, release)
			require.NoError(t, err)

			after := f.roomState(t, room.ID)
			assert.Equal(t, room.CurrentOccupants, after.CurrentOccupants)
			assert.Equal(t, room.Status, after.Status)
		})
	}
}

func TestReleaseAtZeroClamps(t *testing.T) {
	f := newFixture()
	// counter already drifted to zero while a booking is still approved
	room := f.room(t, entity.RoomTypeDouble, 0)
	booking := f.booking(t, room.ID, entity.BookingStatusApproved)
	core, logs := observer.New(zap.WarnLevel)
	r := NewOccupancyReconciler(f.repo.Occupancy, zap.New(core))

	got, err := r.ApplyTransition(context.Background(), booking.ID, entity.BookingStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Occupants)
	assert.Equal(t, entity.RoomStatusAvailable, got.RoomStatus)
	assert.Equal(t, 1, logs.FilterMessage("Occupancy counter already at zero on release").Len())
}

func TestMaintenanceRoom(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	room := entity.Room{
		Base:             entity.Base{ID: uuid.New()},
		RoomNumber:       "M-1",
		RoomType:         entity.RoomTypeDouble,
		Capacity:         2,
		CurrentOccupants: 1,
		Status:           entity.RoomStatusMaintenance,
	}
	require.NoError(t, f.repo.Room.Create(ctx, &room))
	pending := f.booking(t, room.ID, entity.BookingStatusPending)
	approved := f.booking(t, room.ID, entity.BookingStatusApproved)
	r := NewOccupancyReconciler(f.repo.Occupancy, zap.NewNop())

	_, err := r.ApplyTransition(ctx, pending.ID, entity.BookingStatusApproved)
	assert.ErrorIs(t, err, ErrRoomUnderMaintenance)

	got, err := r.ApplyTransition(ctx, approved.ID, entity.BookingStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Occupants)
	assert.Equal(t, entity.RoomStatusMaintenance, got.RoomStatus)
}

func TestConcurrentApprovalsNeverOverfill(t *testing.T) {
	cases := []struct {
		roomType entity.RoomType
		bookings int
	}{
		{entity.RoomTypeSingle, 2},
		{entity.RoomTypeDouble, 10},
		{entity.RoomTypeQuad, 25},
	}

	for _, tc := range cases {
		t.Run(string(tc.roomType), func(t *testing.T) {
			f := newFixture()
			room := f.room(t, tc.roomType, 0)
			var ids []uuid.UUID
			for i := 0; i < tc.bookings; i++ {
				ids = append(ids, f.booking(t, room.ID, entity.BookingStatusPending).ID)
			}
			r := NewOccupancyReconciler(f.repo.Occupancy, zap.NewNop())

			var (
				wg       sync.WaitGroup
				mu       sync.Mutex
				admitted int
				full     int
			)
			start := make(chan struct{})
			for _, id := range ids {
				wg.Add(1)
				go func(id uuid.UUID) {
					defer wg.Done()
					<-start
					_, err := r.ApplyTransition(context.Background(), id, entity.BookingStatusApproved)
					mu.Lock()
					defer mu.Unlock()
					switch {
					case err == nil:
						admitted++
					case errors.Is(err, ErrRoomFull):
						full++
					default:
						t.Errorf("unexpected error: %v", err)
					}
				}(id)
			}
			close(start)
			wg.Wait()

			capacity := tc.roomType.Capacity()
			assert.Equal(t, capacity, admitted)
			assert.Equal(t, tc.bookings-capacity, full)

			after := f.roomState(t, room.ID)
			assert.Equal(t, capacity, after.CurrentOccupants)
			assert.Equal(t, entity.RoomStatusFullyOccupied, after.Status)
			assert.Equal(t, capacity, f.approvedIn(room.ID))
		})
	}
}

func TestConcurrentMixedTransitionsKeepCounterConsistent(t *testing.T) {
	f := newFixture()
	room := f.room(t, entity.RoomTypeTriple, 0)
	var ids []uuid.UUID
	for i := 0; i < 6; i++ {
		ids = append(ids, f.booking(t, room.ID, entity.BookingStatusPending).ID)
	}
	r := NewOccupancyReconciler(f.repo.Occupancy, zap.NewNop())

	var wg sync.WaitGroup
	for round := 0; round < 20; round++ {
		for i, id := range ids {
			target := targets[(round+i)%len(targets)]
			wg.Add(1)
			go func(id uuid.UUID, target entity.BookingStatus) {
				defer wg.Done()
				_, _ = r.ApplyTransition(context.Background(), id, target)
			}(id, target)
		}
	}
	wg.Wait()

	after := f.roomState(t, room.ID)
	assert.LessOrEqual(t, after.CurrentOccupants, after.Capacity)
	assert.Equal(t, f.approvedIn(room.ID), after.CurrentOccupants)
	assert.Equal(t, entity.DeriveRoomStatus(after.CurrentOccupants, after.Capacity), after.Status)
}

func TestFailedRoomWriteLeavesBothRecordsUnchanged(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	room := f.room(t, entity.RoomTypeDouble, 0)
	booking := f.booking(t, room.ID, entity.BookingStatusPending)

	for _, tc := range []struct {
		name      string
		failure   error
		transient bool
	}{
		{"storage error", errors.New("disk on fire"), false},
		{"contention", fmt.Errorf("%w: lock timeout", repository.ErrRetryable), true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			store := &failingStore{OccupancyStore: f.repo.Occupancy, err: tc.failure}
			r := NewOccupancyReconciler(store, zap.NewNop())

			_, err := r.ApplyTransition(ctx, booking.ID, entity.BookingStatusApproved)
			require.Error(t, err)
			assert.Equal(t, tc.transient, errors.Is(err, ErrTransient))

			assert.Equal(t, entity.BookingStatusPending, f.bookingStatus(t, booking.ID))
			after := f.roomState(t, room.ID)
			assert.Equal(t, 0, after.CurrentOccupants)
			assert.Equal(t, entity.RoomStatusAvailable, after.Status)
		})
	}

	// the same call succeeds once storage recovers
	r := NewOccupancyReconciler(f.repo.Occupancy, zap.NewNop())
	_, err := r.ApplyTransition(ctx, booking.ID, entity.BookingStatusApproved)
	require.NoError(t, err)
	assert.Equal(t, 1, f.roomState(t, room.ID).CurrentOccupants)
}

func TestLockTimeoutIsTransient(t *testing.T) {
	f := newFixture()
	room := f.room(t, entity.RoomTypeSingle, 0)
	booking := f.booking(t, room.ID, entity.BookingStatusPending)

	locked := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = f.repo.Occupancy.WithinTx(context.Background(), func(tx repository.OccupancyTx) error {
			_, err := tx.ReadRoom(context.Background(), room.ID)
			close(locked)
			<-release
			return err
		})
	}()
	<-locked
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	r := NewOccupancyReconciler(f.repo.Occupancy, zap.NewNop())
	_, err := r.ApplyTransition(ctx, booking.ID, entity.BookingStatusApproved)
	assert.ErrorIs(t, err, ErrTransient)
	assert.Equal(t, entity.BookingStatusPending, f.bookingStatus(t, booking.ID))
}

func TestDeltaUsesStatusReadBeforeWrite(t *testing.T) {
	f := newFixture()
	room := f.room(t, entity.RoomTypeDouble, 1)
	booking := f.booking(t, room.ID, entity.BookingStatusApproved)

	spy := &spyStore{OccupancyStore: f.repo.Occupancy}
	r := NewOccupancyReconciler(spy, zap.NewNop())

	got, err := r.ApplyTransition(context.Background(), booking.ID, entity.BookingStatusCancelled)
	require.NoError(t, err)

	// re-reading the booking after writing it would see cancelled and
	// compute cancelled -> cancelled = 0, leaving the place taken
	assert.Equal(t, []string{"ReadBooking", "ReadRoom", "WriteBookingStatus", "WriteRoomOccupancy"}, spy.calls)
	assert.Equal(t, entity.BookingStatusApproved, got.PreviousStatus)
	assert.Equal(t, -1, got.Delta)
	assert.Equal(t, 0, f.roomState(t, room.ID).CurrentOccupants)
}

// failingStore makes every room occupancy write fail after the booking
// status has already been written in the same transaction.
type failingStore struct {
	repository.OccupancyStore
	err error
}

func (s *failingStore) WithinTx(ctx context.Context, fn func(tx repository.OccupancyTx) error) error {
	return s.OccupancyStore.WithinTx(ctx, func(tx repository.OccupancyTx) error {
		return fn(&failingTx{OccupancyTx: tx, err: s.err})
	})
}

type failingTx struct {
	repository.OccupancyTx
	err error
}

func (t *failingTx) WriteRoomOccupancy(ctx context.Context, id uuid.UUID, occupants int, status entity.RoomStatus) error {
	return t.err
}

type danglingRoomStore struct {
	repository.OccupancyStore
	roomID uuid.UUID
}

func (s *danglingRoomStore) WithinTx(ctx context.Context, fn func(tx repository.OccupancyTx) error) error {
	return s.OccupancyStore.WithinTx(ctx, func(tx repository.OccupancyTx) error {
		return fn(&danglingRoomTx{OccupancyTx: tx, roomID: s.roomID})
	})
}

type danglingRoomTx struct {
	repository.OccupancyTx
	roomID uuid.UUID
}

func (t *danglingRoomTx) ReadBooking(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	booking, err := t.OccupancyTx.ReadBooking(ctx, id)
	if booking != nil {
		booking.RoomID = t.roomID
	}
	return booking, err
}

type spyStore struct {
	repository.OccupancyStore
	calls []string
}

func (s *spyStore) WithinTx(ctx context.Context, fn func(tx repository.OccupancyTx) error) error {
	return s.OccupancyStore.WithinTx(ctx, func(tx repository.OccupancyTx) error {
		return fn(&spyTx{OccupancyTx: tx, store: s})
	})
}

type spyTx struct {
	repository.OccupancyTx
	store *spyStore
}

func (t *spyTx) ReadBooking(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	t.store.calls = append(t.store.calls, "ReadBooking")
	return t.OccupancyTx.ReadBooking(ctx, id)
}

func (t *spyTx) ReadRoom(ctx context.Context, id uuid.UUID) (*entity.Room, error) {
	t.store.calls = append(t.store.calls, "ReadRoom")
	return t.OccupancyTx.ReadRoom(ctx, id)
}

func (t *spyTx) WriteBookingStatus(ctx context.Context, id uuid.UUID, status entity.BookingStatus) error {
	t.store.calls = append(t.store.calls, "WriteBookingStatus")
	return t.OccupancyTx.WriteBookingStatus(ctx, id, status)
}

func (t *spyTx) WriteRoomOccupancy(ctx context.Context, id uuid.UUID, occupants int, status entity.RoomStatus) error {
	t.store.calls = append(t.store.calls, "WriteRoomOccupancy")
	return t.OccupancyTx.WriteRoomOccupancy(ctx, id, occupants, status)
}
