package persistence

import "context"

// UserRepository exposes CRUD operations for users keyed by login.
// ReplaceAllUsers is used exclusively by snapshot restore.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) (User, error)
	GetUserByLogin(ctx context.Context, login string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	UpdateUser(ctx context.Context, user User) (User, error)
	DeleteUser(ctx context.Context, login string) error
	ReplaceAllUsers(ctx context.Context, users []User) error
}

// RoomRepository exposes CRUD operations for rooms. CreateRoom assigns the
// room ID; assigned IDs are monotonic and never reused, even after deletion
// or a ReplaceAllRooms.
type RoomRepository interface {
	CreateRoom(ctx context.Context, room Room) (Room, error)
	GetRoom(ctx context.Context, id int64) (Room, error)
	ListRooms(ctx context.Context) ([]Room, error)
	DeleteRoom(ctx context.Context, id int64) error
	ReplaceAllRooms(ctx context.Context, rooms []Room) error
}

// ReservationRepository stores reservations. CreateReservation assigns
// monotonic IDs. ListActiveByRoomAndDate and ListActiveByUser return only
// reservations with StatusActive.
type ReservationRepository interface {
	CreateReservation(ctx context.Context, reservation Reservation) (Reservation, error)
	GetReservation(ctx context.Context, id int64) (Reservation, error)
	ListReservations(ctx context.Context) ([]Reservation, error)
	ListActiveByRoomAndDate(ctx context.Context, roomID int64, date string) ([]Reservation, error)
	ListActiveByUser(ctx context.Context, login string) ([]Reservation, error)
	UpdateReservation(ctx context.Context, reservation Reservation) (Reservation, error)
	ReplaceAllReservations(ctx context.Context, reservations []Reservation) error
}

// Store bundles every repository implemented by a storage backend.
type Store interface {
	UserRepository
	RoomRepository
	ReservationRepository
}
