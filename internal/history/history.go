// Package history keeps bounded undo/redo stacks of whole-state snapshots.
// The service never holds a "current" state itself: callers capture state
// before each mutating operation, push the capture on success, and supply the
// current state explicitly when undoing or redoing.
package history

import (
	"sync"

	"github.com/example/roomreserve/internal/persistence"
)

// Snapshot is an immutable capture of all users, rooms, and reservations at
// one instant. It is treated as an opaque unit: consumers restore it
// wholesale and never edit its contents.
type Snapshot struct {
	Users        []persistence.User
	Rooms        []persistence.Room
	Reservations []persistence.Reservation
}

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	users := make([]persistence.User, len(s.Users))
	copy(users, s.Users)

	rooms := make([]persistence.Room, len(s.Rooms))
	for i, room := range s.Rooms {
		resources := make([]string, len(room.Resources))
		copy(resources, room.Resources)
		room.Resources = resources
		rooms[i] = room
	}

	reservations := make([]persistence.Reservation, len(s.Reservations))
	copy(reservations, s.Reservations)

	return Snapshot{Users: users, Rooms: rooms, Reservations: reservations}
}

// DefaultCapacity bounds each stack when no explicit capacity is configured.
const DefaultCapacity = 100

// Service implements the undo/redo discipline over snapshots.
type Service struct {
	mu       sync.Mutex
	undo     []Snapshot
	redo     []Snapshot
	capacity int
}

// NewService returns a history service whose stacks hold at most capacity
// entries each. Non-positive capacities fall back to DefaultCapacity.
func NewService(capacity int) *Service {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Service{capacity: capacity}
}

// Push records a pre-mutation snapshot. When the undo stack is full the
// oldest entry is evicted. Any redo history is invalidated: a new forward
// action makes previously undone states unreachable.
func (s *Service) Push(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.undo) >= s.capacity {
		copy(s.undo, s.undo[1:])
		s.undo = s.undo[:len(s.undo)-1]
	}
	s.undo = append(s.undo, snapshot)
	s.redo = s.redo[:0]
}

// Undo pops the most recent undo entry, stashing current on the redo stack.
// The returned snapshot is the state to restore; ok is false when there is
// nothing to undo.
func (s *Service) Undo(current Snapshot) (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.undo) == 0 {
		return Snapshot{}, false
	}

	snapshot := s.undo[len(s.undo)-1]
	s.undo = s.undo[:len(s.undo)-1]
	s.redo = append(s.redo, current)
	return snapshot, true
}

// Redo pops the most recent redo entry, stashing current on the undo stack.
// ok is false when there is nothing to redo.
func (s *Service) Redo(current Snapshot) (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.redo) == 0 {
		return Snapshot{}, false
	}

	snapshot := s.redo[len(s.redo)-1]
	s.redo = s.redo[:len(s.redo)-1]
	s.undo = append(s.undo, current)
	return snapshot, true
}

// UndoDepth reports how many states can currently be undone.
func (s *Service) UndoDepth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.undo)
}

// RedoDepth reports how many states can currently be redone.
func (s *Service) RedoDepth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.redo)
}
