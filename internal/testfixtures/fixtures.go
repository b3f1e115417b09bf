package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/roomreserve/internal/persistence"
)

var (
	userCounter        uint64
	roomCounter        uint64
	reservationCounter uint64
)

var referenceTime = time.Date(2026, time.May, 4, 9, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ReferenceDate returns the booking date matching ReferenceTime.
func ReferenceDate() string {
	return referenceTime.Format("2006-01-02")
}

// UserOption configures a generated user fixture.
type UserOption func(*persistence.User)

// NewUser returns a deterministic user record with optional overrides.
func NewUser(opts ...UserOption) persistence.User {
	idx := atomic.AddUint64(&userCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	user := persistence.User{
		Login:        fmt.Sprintf("user-%03d", idx),
		Name:         fmt.Sprintf("User %03d", idx),
		PasswordHash: fmt.Sprintf("hash-%03d", idx),
		Role:         persistence.RoleUser,
		CreatedAt:    created,
		UpdatedAt:    created,
	}
	for _, opt := range opts {
		opt(&user)
	}
	return user
}

// WithLogin overrides the generated login.
func WithLogin(login string) UserOption {
	return func(u *persistence.User) {
		u.Login = login
	}
}

// WithRole overrides the generated role.
func WithRole(role persistence.Role) UserOption {
	return func(u *persistence.User) {
		u.Role = role
	}
}

// WithBlocked sets the blocked flag on the generated fixture.
func WithBlocked(blocked bool) UserOption {
	return func(u *persistence.User) {
		u.Blocked = blocked
	}
}

// WithPasswordHash overrides the generated password hash.
func WithPasswordHash(hash string) UserOption {
	return func(u *persistence.User) {
		u.PasswordHash = hash
	}
}

// RoomOption configures a generated room fixture.
type RoomOption func(*persistence.Room)

// NewRoom returns a deterministic room record with optional overrides. The
// ID is left zero so the store can assign one.
func NewRoom(opts ...RoomOption) persistence.Room {
	idx := atomic.AddUint64(&roomCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	room := persistence.Room{
		Name:      fmt.Sprintf("Room %03d", idx),
		Capacity:  8,
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, opt := range opts {
		opt(&room)
	}
	return room
}

// WithRoomName overrides the generated room name.
func WithRoomName(name string) RoomOption {
	return func(r *persistence.Room) {
		r.Name = name
	}
}

// WithCapacity overrides the generated capacity.
func WithCapacity(capacity int) RoomOption {
	return func(r *persistence.Room) {
		r.Capacity = capacity
	}
}

// WithResources overrides the generated resource list.
func WithResources(resources ...string) RoomOption {
	return func(r *persistence.Room) {
		r.Resources = resources
	}
}

// ReservationOption configures a generated reservation fixture.
type ReservationOption func(*persistence.Reservation)

// NewReservation returns a deterministic active reservation on the
// reference date. The ID is left zero so the store can assign one.
func NewReservation(opts ...ReservationOption) persistence.Reservation {
	idx := atomic.AddUint64(&reservationCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	reservation := persistence.Reservation{
		UserLogin: fmt.Sprintf("user-%03d", idx),
		RoomID:    1,
		Date:      ReferenceDate(),
		Start:     "09:00",
		End:       "10:00",
		Status:    persistence.StatusActive,
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, opt := range opts {
		opt(&reservation)
	}
	return reservation
}

// ForUser sets the owning login.
func ForUser(login string) ReservationOption {
	return func(r *persistence.Reservation) {
		r.UserLogin = login
	}
}

// InRoom sets the reserved room.
func InRoom(roomID int64) ReservationOption {
	return func(r *persistence.Reservation) {
		r.RoomID = roomID
	}
}

// OnDate sets the booking date.
func OnDate(date string) ReservationOption {
	return func(r *persistence.Reservation) {
		r.Date = date
	}
}

// Between sets the start and end clock times.
func Between(start, end string) ReservationOption {
	return func(r *persistence.Reservation) {
		r.Start = start
		r.End = end
	}
}

// WithStatus overrides the reservation status.
func WithStatus(status persistence.ReservationStatus) ReservationOption {
	return func(r *persistence.Reservation) {
		r.Status = status
	}
}
