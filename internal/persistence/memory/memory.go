package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/example/roomreserve/internal/persistence"
)

// Store is the in-memory persistence backend. It is the default storage for
// the single-process deployment and the workhorse of the test suite.
type Store struct {
	mu           sync.RWMutex
	users        map[string]persistence.User
	rooms        map[int64]persistence.Room
	reservations map[int64]persistence.Reservation

	nextRoomID        int64
	nextReservationID int64
}

// New returns an empty in-memory store.
func New() *Store {
	return &Store{
		users:             make(map[string]persistence.User),
		rooms:             make(map[int64]persistence.Room),
		reservations:      make(map[int64]persistence.Reservation),
		nextRoomID:        1,
		nextReservationID: 1,
	}
}

// --- UserRepository implementation ---

// CreateUser stores a new user keyed by login.
func (s *Store) CreateUser(ctx context.Context, user persistence.User) (persistence.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.Login]; ok {
		return persistence.User{}, persistence.ErrDuplicate
	}

	s.users[user.Login] = cloneUser(user)
	return cloneUser(user), nil
}

// GetUserByLogin retrieves a user by login.
func (s *Store) GetUserByLogin(ctx context.Context, login string) (persistence.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[login]
	if !ok {
		return persistence.User{}, persistence.ErrNotFound
	}

	return cloneUser(user), nil
}

// ListUsers returns all users ordered by login.
func (s *Store) ListUsers(ctx context.Context) ([]persistence.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]persistence.User, 0, len(s.users))
	for _, user := range s.users {
		users = append(users, cloneUser(user))
	}

	sort.Slice(users, func(i, j int) bool {
		return users[i].Login < users[j].Login
	})

	return users, nil
}

// UpdateUser replaces an existing user record.
func (s *Store) UpdateUser(ctx context.Context, user persistence.User) (persistence.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.Login]; !ok {
		return persistence.User{}, persistence.ErrNotFound
	}

	s.users[user.Login] = cloneUser(user)
	return cloneUser(user), nil
}

// DeleteUser removes a user by login.
func (s *Store) DeleteUser(ctx context.Context, login string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[login]; !ok {
		return persistence.ErrNotFound
	}

	delete(s.users, login)
	return nil
}

// ReplaceAllUsers swaps the entire user set, used by snapshot restore.
func (s *Store) ReplaceAllUsers(ctx context.Context, users []persistence.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	replacement := make(map[string]persistence.User, len(users))
	for _, user := range users {
		replacement[user.Login] = cloneUser(user)
	}
	s.users = replacement
	return nil
}

// --- RoomRepository implementation ---

// CreateRoom assigns the next room ID and stores the room.
func (s *Store) CreateRoom(ctx context.Context, room persistence.Room) (persistence.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if room.Capacity <= 0 {
		return persistence.Room{}, persistence.ErrConstraintViolation
	}

	room.ID = s.nextRoomID
	s.nextRoomID++

	s.rooms[room.ID] = cloneRoom(room)
	return cloneRoom(room), nil
}

// GetRoom retrieves a room by ID.
func (s *Store) GetRoom(ctx context.Context, id int64) (persistence.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	room, ok := s.rooms[id]
	if !ok {
		return persistence.Room{}, persistence.ErrNotFound
	}

	return cloneRoom(room), nil
}

// ListRooms returns all rooms ordered by ID ascending.
func (s *Store) ListRooms(ctx context.Context) ([]persistence.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rooms := make([]persistence.Room, 0, len(s.rooms))
	for _, room := range s.rooms {
		rooms = append(rooms, cloneRoom(room))
	}

	sort.Slice(rooms, func(i, j int) bool {
		return rooms[i].ID < rooms[j].ID
	})

	return rooms, nil
}

// DeleteRoom removes a room by ID. Reservations referencing the room are left
// in place; the callers decide how to present them.
func (s *Store) DeleteRoom(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rooms[id]; !ok {
		return persistence.ErrNotFound
	}

	delete(s.rooms, id)
	return nil
}

// ReplaceAllRooms swaps the entire room set. The ID sequence is advanced past
// the highest restored ID so later creations never reuse one.
func (s *Store) ReplaceAllRooms(ctx context.Context, rooms []persistence.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	replacement := make(map[int64]persistence.Room, len(rooms))
	for _, room := range rooms {
		replacement[room.ID] = cloneRoom(room)
		if room.ID >= s.nextRoomID {
			s.nextRoomID = room.ID + 1
		}
	}
	s.rooms = replacement
	return nil
}

// --- ReservationRepository implementation ---

// CreateReservation assigns the next reservation ID and stores the record.
func (s *Store) CreateReservation(ctx context.Context, reservation persistence.Reservation) (persistence.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reservation.ID = s.nextReservationID
	s.nextReservationID++

	s.reservations[reservation.ID] = reservation
	return reservation, nil
}

// GetReservation retrieves a reservation by ID.
func (s *Store) GetReservation(ctx context.Context, id int64) (persistence.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	reservation, ok := s.reservations[id]
	if !ok {
		return persistence.Reservation{}, persistence.ErrNotFound
	}

	return reservation, nil
}

// ListReservations returns all reservations ordered by ID ascending.
func (s *Store) ListReservations(ctx context.Context) ([]persistence.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	reservations := make([]persistence.Reservation, 0, len(s.reservations))
	for _, reservation := range s.reservations {
		reservations = append(reservations, reservation)
	}

	sort.Slice(reservations, func(i, j int) bool {
		return reservations[i].ID < reservations[j].ID
	})

	return reservations, nil
}

// ListActiveByRoomAndDate returns active reservations for one room and date.
func (s *Store) ListActiveByRoomAndDate(ctx context.Context, roomID int64, date string) ([]persistence.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := make([]persistence.Reservation, 0)
	for _, reservation := range s.reservations {
		if reservation.RoomID != roomID || reservation.Date != date {
			continue
		}
		if reservation.Status != persistence.StatusActive {
			continue
		}
		matches = append(matches, reservation)
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].ID < matches[j].ID
	})

	return matches, nil
}

// ListActiveByUser returns a user's active reservations.
func (s *Store) ListActiveByUser(ctx context.Context, login string) ([]persistence.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := make([]persistence.Reservation, 0)
	for _, reservation := range s.reservations {
		if reservation.UserLogin != login {
			continue
		}
		if reservation.Status != persistence.StatusActive {
			continue
		}
		matches = append(matches, reservation)
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].ID < matches[j].ID
	})

	return matches, nil
}

// UpdateReservation replaces an existing reservation record.
func (s *Store) UpdateReservation(ctx context.Context, reservation persistence.Reservation) (persistence.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reservations[reservation.ID]; !ok {
		return persistence.Reservation{}, persistence.ErrNotFound
	}

	s.reservations[reservation.ID] = reservation
	return reservation, nil
}

// ReplaceAllReservations swaps the entire reservation set. The ID sequence is
// advanced past the highest restored ID so later creations never reuse one.
func (s *Store) ReplaceAllReservations(ctx context.Context, reservations []persistence.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	replacement := make(map[int64]persistence.Reservation, len(reservations))
	for _, reservation := range reservations {
		replacement[reservation.ID] = reservation
		if reservation.ID >= s.nextReservationID {
			s.nextReservationID = reservation.ID + 1
		}
	}
	s.reservations = replacement
	return nil
}

// --- Helpers ---

func cloneUser(user persistence.User) persistence.User {
	return user
}

func cloneRoom(room persistence.Room) persistence.Room {
	resources := make([]string, len(room.Resources))
	copy(resources, room.Resources)
	room.Resources = resources
	return room
}
