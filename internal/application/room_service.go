package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/roomreserve/internal/persistence"
)

// RoomService orchestrates validation, authorization, and persistence for
// the room catalog.
type RoomService struct {
	rooms           persistence.RoomRepository
	now             func() time.Time
	logger          *slog.Logger
	onCatalogChange func()
}

// NewRoomService constructs a room service with the provided dependencies.
func NewRoomService(rooms persistence.RoomRepository, now func() time.Time) *RoomService {
	return NewRoomServiceWithLogger(rooms, now, nil)
}

// NewRoomServiceWithLogger constructs a room service with a specified logger.
func NewRoomServiceWithLogger(rooms persistence.RoomRepository, now func() time.Time, logger *slog.Logger) *RoomService {
	if now == nil {
		now = time.Now
	}
	return &RoomService{rooms: rooms, now: now, logger: defaultLogger(logger)}
}

func (s *RoomService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "RoomService", operation, attrs...)
}

// NotifyCatalogChange registers fn to run after every successful room create
// or delete. The reservation engine's availability cache is wired here so it
// never serves a room list that predates a catalog change.
func (s *RoomService) NotifyCatalogChange(fn func()) {
	s.onCatalogChange = fn
}

func (s *RoomService) catalogChanged() {
	if s.onCatalogChange != nil {
		s.onCatalogChange()
	}
}

// Create validates input and persists a new room for administrators. The
// store assigns the room ID.
func (s *RoomService) Create(ctx context.Context, principal Principal, input RoomInput) (room persistence.Room, err error) {
	if s == nil {
		err = fmt.Errorf("RoomService is nil")
		return
	}

	logger := s.loggerWith(ctx, "Create", "principal", principal.Login)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create room", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("room_id", room.ID).InfoContext(ctx, "room created")
	}()

	if !principal.IsAdmin {
		err = ErrUnauthorized
		return
	}

	vErr := validateRoomInput(input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	createdAt := s.now()
	room, err = s.rooms.CreateRoom(ctx, persistence.Room{
		Name:      strings.TrimSpace(input.Name),
		Capacity:  input.Capacity,
		Resources: normalizeResources(input.Resources),
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	})
	if err != nil {
		err = mapStoreError(err)
		return
	}

	s.catalogChanged()
	return room, nil
}

// Delete removes an existing room when requested by an administrator.
// Reservations referencing the room are left untouched.
func (s *RoomService) Delete(ctx context.Context, principal Principal, roomID int64) (err error) {
	if s == nil {
		return fmt.Errorf("RoomService is nil")
	}

	logger := s.loggerWith(ctx, "Delete",
		"principal", principal.Login,
		"room_id", roomID,
	)

	if !principal.IsAdmin {
		err = ErrUnauthorized
		logger.ErrorContext(ctx, "failed to delete room", "error", err, "error_kind", ErrorKind(err))
		return
	}

	if err = s.rooms.DeleteRoom(ctx, roomID); err != nil {
		err = mapStoreError(err)
		logger.ErrorContext(ctx, "failed to delete room", "error", err, "error_kind", ErrorKind(err))
		return
	}

	s.catalogChanged()
	logger.InfoContext(ctx, "room deleted")
	return nil
}

// List returns the room catalog, ordered by ID, for any authenticated user.
func (s *RoomService) List(ctx context.Context) ([]persistence.Room, error) {
	if s == nil {
		return nil, fmt.Errorf("RoomService is nil")
	}

	rooms, err := s.rooms.ListRooms(ctx)
	if err != nil {
		return nil, err
	}
	return rooms, nil
}

func validateRoomInput(input RoomInput) *ValidationError {
	vErr := &ValidationError{}

	if strings.TrimSpace(input.Name) == "" {
		vErr.add("name", "name is required")
	}
	if input.Capacity <= 0 {
		vErr.add("capacity", "capacity must be positive")
	}

	return vErr
}

// normalizeResources trims entries and drops empties while preserving order.
func normalizeResources(resources []string) []string {
	out := make([]string, 0, len(resources))
	for _, resource := range resources {
		trimmed := strings.TrimSpace(resource)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}
	return out
}
