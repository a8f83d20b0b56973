// Package memstore is an in-process implementation of the repository
// interfaces. Transactions buffer their writes and apply them on commit, and
// rows are locked individually so unrelated rooms never contend.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"hostel-booking/internal/data/entity"
	"hostel-booking/internal/data/repository"

	"github.com/google/uuid"
)

type Store struct {
	mu       sync.RWMutex
	rooms    map[uuid.UUID]entity.Room
	bookings map[uuid.UUID]entity.Booking
	users    map[uuid.UUID]entity.User
	sessions map[uuid.UUID]entity.Session
	locks    map[uuid.UUID]chan struct{}
}

func New() *Store {
	return &Store{
		rooms:    map[uuid.UUID]entity.Room{},
		bookings: map[uuid.UUID]entity.Booking{},
		users:    map[uuid.UUID]entity.User{},
		sessions: map[uuid.UUID]entity.Session{},
		locks:    map[uuid.UUID]chan struct{}{},
	}
}

// Repository exposes the store through the same aggregate the Postgres
// implementation provides.
func (s *Store) Repository() *repository.Repository {
	return &repository.Repository{
		User:      userView{s},
		Session:   sessionView{s},
		Room:      roomView{s},
		Booking:   bookingView{s},
		Occupancy: s,
	}
}

// AddUser and AddSession seed records owned by the login service.
func (s *Store) AddUser(user entity.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = user
}

func (s *Store) AddSession(session entity.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.Token] = session
}

// Room and Booking return committed snapshots, mainly for assertions.
func (s *Store) Room(id uuid.UUID) (entity.Room, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[id]
	return room, ok
}

func (s *Store) Booking(id uuid.UUID) (entity.Booking, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	booking, ok := s.bookings[id]
	return booking, ok
}

func (s *Store) rowLock(id uuid.UUID) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch, ok := s.locks[id]
	if !ok {
		ch = make(chan struct{}, 1)
		s.locks[id] = ch
	}
	return ch
}

// WithinTx implements repository.OccupancyStore.
func (s *Store) WithinTx(ctx context.Context, fn func(tx repository.OccupancyTx) error) error {
	tx := &memTx{
		store:    s,
		held:     map[uuid.UUID]chan struct{}{},
		rooms:    map[uuid.UUID]entity.Room{},
		bookings: map[uuid.UUID]entity.Booking{},
	}
	defer tx.release()

	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: commit: %w", repository.ErrRetryable, err)
	}

	tx.commit()
	return nil
}

type memTx struct {
	store    *Store
	held     map[uuid.UUID]chan struct{}
	rooms    map[uuid.UUID]entity.Room
	bookings map[uuid.UUID]entity.Booking
}

func (t *memTx) lock(ctx context.Context, id uuid.UUID) error {
	if _, ok := t.held[id]; ok {
		return nil
	}
	ch := t.store.rowLock(id)
	select {
	case ch <- struct{}{}:
		t.held[id] = ch
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: lock %s: %w", repository.ErrRetryable, id, ctx.Err())
	}
}

func (t *memTx) release() {
	for _, ch := range t.held {
		<-ch
	}
	t.held = nil
}

func (t *memTx) commit() {
	now := time.Now()
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	for id, room := range t.rooms {
		room.UpdatedAt = now
		t.store.rooms[id] = room
	}
	for id, booking := range t.bookings {
		booking.UpdatedAt = now
		t.store.bookings[id] = booking
	}
}

func (t *memTx) ReadBooking(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	if err := t.lock(ctx, id); err != nil {
		return nil, err
	}
	if booking, ok := t.bookings[id]; ok {
		return &booking, nil
	}
	booking, ok := t.store.Booking(id)
	if !ok {
		return nil, nil
	}
	return &booking, nil
}

func (t *memTx) ReadRoom(ctx context.Context, id uuid.UUID) (*entity.Room, error) {
	if err := t.lock(ctx, id); err != nil {
		return nil, err
	}
	if room, ok := t.rooms[id]; ok {
		return &room, nil
	}
	room, ok := t.store.Room(id)
	if !ok {
		return nil, nil
	}
	return &room, nil
}

func (t *memTx) CountApprovedBookings(ctx context.Context, roomID uuid.UUID) (int, error) {
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()

	count := 0
	for id, booking := range t.store.bookings {
		if pending, ok := t.bookings[id]; ok {
			booking = pending
		}
		if booking.RoomID == roomID && booking.Status == entity.BookingStatusApproved {
			count++
		}
	}
	return count, nil
}

func (t *memTx) WriteBookingStatus(ctx context.Context, id uuid.UUID, status entity.BookingStatus) error {
	booking, err := t.ReadBooking(ctx, id)
	if err != nil {
		return err
	}
	if booking == nil {
		return fmt.Errorf("update booking %s status: %w", id, repository.ErrRowMissing)
	}
	booking.Status = status
	t.bookings[id] = *booking
	return nil
}

func (t *memTx) WriteRoomOccupancy(ctx context.Context, id uuid.UUID, occupants int, status entity.RoomStatus) error {
	room, err := t.ReadRoom(ctx, id)
	if err != nil {
		return err
	}
	if room == nil {
		return fmt.Errorf("update room %s occupancy: %w", id, repository.ErrRowMissing)
	}
	room.CurrentOccupants = occupants
	room.Status = status
	t.rooms[id] = *room
	return nil
}

type roomView struct{ s *Store }

func (v roomView) Create(ctx context.Context, room *entity.Room) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	if _, ok := v.s.rooms[room.ID]; ok {
		return fmt.Errorf("create room %s id: %w", room.RoomNumber, repository.ErrDuplicate)
	}
	for _, existing := range v.s.rooms {
		if existing.RoomNumber == room.RoomNumber {
			return fmt.Errorf("create room %s: %w", room.RoomNumber, repository.ErrDuplicate)
		}
	}
	v.s.rooms[room.ID] = *room
	return nil
}

func (v roomView) FindByID(ctx context.Context, id uuid.UUID) (*entity.Room, error) {
	room, ok := v.s.Room(id)
	if !ok {
		return nil, nil
	}
	return &room, nil
}

func (v roomView) FindByNumber(ctx context.Context, roomNumber string) (*entity.Room, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	for _, room := range v.s.rooms {
		if room.RoomNumber == roomNumber {
			return &room, nil
		}
	}
	return nil, nil
}

func (v roomView) matching(filter repository.RoomFilter) []*entity.Room {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	var rooms []*entity.Room
	for _, room := range v.s.rooms {
		if filter.Status != "" && room.Status != filter.Status {
			continue
		}
		if filter.RoomType != "" && room.RoomType != filter.RoomType {
			continue
		}
		room := room
		rooms = append(rooms, &room)
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].RoomNumber < rooms[j].RoomNumber })
	return rooms
}

func (v roomView) List(ctx context.Context, filter repository.RoomFilter, limit, offset int) ([]*entity.Room, error) {
	return page(v.matching(filter), limit, offset), nil
}

func (v roomView) Count(ctx context.Context, filter repository.RoomFilter) (int64, error) {
	return int64(len(v.matching(filter))), nil
}

type bookingView struct{ s *Store }

func (v bookingView) Create(ctx context.Context, booking *entity.Booking) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	if _, ok := v.s.bookings[booking.ID]; ok {
		return fmt.Errorf("create booking %s id: %w", booking.ID, repository.ErrDuplicate)
	}
	for _, existing := range v.s.bookings {
		if existing.UserID == booking.UserID && existing.RoomID == booking.RoomID &&
			existing.Status.IsActive() && booking.Status.IsActive() {
			return fmt.Errorf("create booking %s: %w", booking.ID, repository.ErrDuplicate)
		}
	}
	if _, ok := v.s.rooms[booking.RoomID]; !ok {
		return fmt.Errorf("create booking %s: room %s does not exist", booking.ID, booking.RoomID)
	}
	v.s.bookings[booking.ID] = *booking
	return nil
}

func (v bookingView) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	booking, ok := v.s.Booking(id)
	if !ok {
		return nil, nil
	}
	return &booking, nil
}

func (v bookingView) FindActiveByUserAndRoom(ctx context.Context, userID, roomID uuid.UUID) (*entity.Booking, error) {
	for _, booking := range v.matching(repository.BookingFilter{UserID: userID, RoomID: roomID}) {
		if booking.Status.IsActive() {
			return booking, nil
		}
	}
	return nil, nil
}

func (v bookingView) matching(filter repository.BookingFilter) []*entity.Booking {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	var bookings []*entity.Booking
	for _, booking := range v.s.bookings {
		if filter.Status != "" && booking.Status != filter.Status {
			continue
		}
		if filter.RoomID != uuid.Nil && booking.RoomID != filter.RoomID {
			continue
		}
		if filter.UserID != uuid.Nil && booking.UserID != filter.UserID {
			continue
		}
		booking := booking
		bookings = append(bookings, &booking)
	}
	sort.Slice(bookings, func(i, j int) bool { return bookings[i].CreatedAt.After(bookings[j].CreatedAt) })
	return bookings
}

func (v bookingView) List(ctx context.Context, filter repository.BookingFilter, limit, offset int) ([]*entity.Booking, error) {
	return page(v.matching(filter), limit, offset), nil
}

func (v bookingView) Count(ctx context.Context, filter repository.BookingFilter) (int64, error) {
	return int64(len(v.matching(filter))), nil
}

type userView struct{ s *Store }

func (v userView) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	user, ok := v.s.users[id]
	if !ok {
		return nil, nil
	}
	return &user, nil
}

type sessionView struct{ s *Store }

func (v sessionView) FindValidSession(ctx context.Context, token uuid.UUID) (*entity.Session, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	session, ok := v.s.sessions[token]
	if !ok || !session.ValidAt(time.Now()) {
		return nil, nil
	}
	return &session, nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
