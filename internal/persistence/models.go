package persistence

import "time"

// Role distinguishes ordinary accounts from administrators.
type Role string

const (
	// RoleUser is the default role assigned at registration.
	RoleUser Role = "user"
	// RoleAdmin grants access to room management, user management, reports,
	// undo/redo, and policy selection.
	RoleAdmin Role = "admin"
)

// ReservationStatus tracks the lifecycle of a reservation. The cancelled
// state is terminal.
type ReservationStatus string

const (
	// StatusActive marks a reservation that currently occupies its slot.
	StatusActive ReservationStatus = "active"
	// StatusCancelled marks a reservation released by its owner or an admin.
	StatusCancelled ReservationStatus = "cancelled"
)

// User represents an account in the reservation system. Login is the unique
// key; Blocked is the only attribute mutated after creation.
type User struct {
	Login        string
	Name         string
	PasswordHash string
	Role         Role
	Blocked      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Room represents a bookable study room. IDs are assigned by the store,
// increase monotonically, and are never reused after deletion.
type Room struct {
	ID        int64
	Name      string
	Capacity  int
	Resources []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Reservation represents a time-bounded booking of a room. Date is encoded
// as "YYYY-MM-DD" and Start/End as "HH:MM" with Start < End.
type Reservation struct {
	ID        int64
	UserLogin string
	RoomID    int64
	Date      string
	Start     string
	End       string
	Status    ReservationStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}
