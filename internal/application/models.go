package application

import "github.com/example/roomreserve/internal/persistence"

// Principal represents the authenticated account invoking a service method.
type Principal struct {
	Login   string
	IsAdmin bool
}

// PrincipalFor derives the principal carried through service calls for a
// persisted user.
func PrincipalFor(user persistence.User) Principal {
	return Principal{Login: user.Login, IsAdmin: user.Role == persistence.RoleAdmin}
}

// BookingInput captures caller provided reservation fields. Date uses the
// "YYYY-MM-DD" layout and Start/End the "HH:MM" layout.
type BookingInput struct {
	RoomID int64
	Date   string
	Start  string
	End    string
}

// RegisterInput captures caller provided account fields. An empty Role
// defaults to persistence.RoleUser.
type RegisterInput struct {
	Name     string
	Login    string
	Password string
	Role     persistence.Role
}

// RoomInput captures caller provided room fields.
type RoomInput struct {
	Name      string
	Capacity  int
	Resources []string
}
