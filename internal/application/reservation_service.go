package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/example/roomreserve/internal/conflict"
	"github.com/example/roomreserve/internal/history"
	"github.com/example/roomreserve/internal/notify"
	"github.com/example/roomreserve/internal/persistence"
)

// Business rule constants. The operating window is half-open: a booking may
// start at 07:00 and must end by 22:00.
const (
	DefaultActiveQuota = 3

	openingMinute = 7 * 60
	closingMinute = 22 * 60
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// ReservationService is the reservation engine: it enforces the business
// rules at booking and cancellation time, delegates overlap checks to the
// configured conflict policy, and exposes the snapshot/restore primitives
// consumed by undo/redo.
//
// Mutating operations and snapshot/restore are serialized behind a single
// mutex so that conflict validation and the subsequent store write form one
// critical section.
type ReservationService struct {
	mu           sync.Mutex
	users        persistence.UserRepository
	rooms        persistence.RoomRepository
	reservations persistence.ReservationRepository
	notifier     notify.Notifier
	quota        int
	now          func() time.Time
	logger       *slog.Logger

	policyMu sync.RWMutex
	policy   conflict.Policy

	availability *availabilityCache
}

// NewReservationService wires dependencies for the reservation engine. A nil
// policy defaults to the strict policy and a nil notifier disables
// confirmations.
func NewReservationService(users persistence.UserRepository, rooms persistence.RoomRepository, reservations persistence.ReservationRepository, policy conflict.Policy, notifier notify.Notifier, now func() time.Time) *ReservationService {
	return NewReservationServiceWithLogger(users, rooms, reservations, policy, notifier, now, nil)
}

// NewReservationServiceWithLogger constructs the engine with a specified logger.
func NewReservationServiceWithLogger(users persistence.UserRepository, rooms persistence.RoomRepository, reservations persistence.ReservationRepository, policy conflict.Policy, notifier notify.Notifier, now func() time.Time, logger *slog.Logger) *ReservationService {
	if policy == nil {
		policy = conflict.Strict{}
	}
	if now == nil {
		now = time.Now
	}
	return &ReservationService{
		users:        users,
		rooms:        rooms,
		reservations: reservations,
		notifier:     notifier,
		quota:        DefaultActiveQuota,
		now:          now,
		logger:       defaultLogger(logger),
		policy:       policy,
		availability: newAvailabilityCache(0, 0, now),
	}
}

func (s *ReservationService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ReservationService", operation, attrs...)
}

// SetActiveQuota overrides the per-user active reservation cap. Non-positive
// values restore the default.
func (s *ReservationService) SetActiveQuota(quota int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if quota <= 0 {
		quota = DefaultActiveQuota
	}
	s.quota = quota
}

// SetPolicy swaps the conflict policy at runtime. Existing reservations are
// not re-validated: a booking is only ever judged by the policy in force when
// it was created.
func (s *ReservationService) SetPolicy(policy conflict.Policy) {
	if policy == nil {
		return
	}
	s.policyMu.Lock()
	s.policy = policy
	s.policyMu.Unlock()
}

// Policy returns the conflict policy currently in force.
func (s *ReservationService) Policy() conflict.Policy {
	s.policyMu.RLock()
	defer s.policyMu.RUnlock()
	return s.policy
}

// InvalidateAvailability drops every cached availability map. Room catalog
// mutations happen outside the engine, so the room service is wired to call
// this after creating or deleting a room.
func (s *ReservationService) InvalidateAvailability() {
	if s == nil {
		return
	}
	s.availability.InvalidateAll()
}

// Book validates the request against the business rules and the active
// conflict policy, then persists the reservation. A confirmation is emitted
// on success; notifier failures are logged and never surface to the caller.
func (s *ReservationService) Book(ctx context.Context, principal Principal, input BookingInput) (reservation persistence.Reservation, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}

	logger := s.loggerWith(ctx, "Book",
		"principal", principal.Login,
		"room_id", input.RoomID,
		"date", input.Date,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to book", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("reservation_id", reservation.ID).InfoContext(ctx, "reservation booked")
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	var user persistence.User
	user, err = s.users.GetUserByLogin(ctx, principal.Login)
	if err != nil {
		err = mapStoreError(err)
		return
	}
	if user.Blocked {
		err = ErrUserBlocked
		return
	}

	start, end, vErr := validateBookingInput(input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	var room persistence.Room
	room, err = s.rooms.GetRoom(ctx, input.RoomID)
	if err != nil {
		err = mapStoreError(err)
		return
	}

	var active []persistence.Reservation
	active, err = s.reservations.ListActiveByUser(ctx, user.Login)
	if err != nil {
		return
	}
	if len(active) >= s.quota {
		err = ErrQuotaExceeded
		return
	}

	var sameDay []persistence.Reservation
	sameDay, err = s.reservations.ListActiveByRoomAndDate(ctx, room.ID, input.Date)
	if err != nil {
		return
	}

	policy := s.Policy()
	candidate := conflict.Booking{Start: start, End: end}
	if conflicts := policy.Detect(toConflictBookings(sameDay), candidate); len(conflicts) > 0 {
		err = &ConflictError{RoomID: room.ID, Date: input.Date, Policy: policy.Name(), Conflicts: conflicts}
		return
	}

	createdAt := s.now()
	reservation, err = s.reservations.CreateReservation(ctx, persistence.Reservation{
		UserLogin: user.Login,
		RoomID:    room.ID,
		Date:      input.Date,
		Start:     input.Start,
		End:       input.End,
		Status:    persistence.StatusActive,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	})
	if err != nil {
		err = mapStoreError(err)
		return
	}

	s.availability.InvalidateAll()
	s.sendConfirmation(ctx, logger, user, room, reservation)
	return reservation, nil
}

// Cancel flips a reservation to cancelled. Only the owning user or an admin
// may cancel; cancelling an already-cancelled reservation is a no-op that
// returns the reservation unchanged.
func (s *ReservationService) Cancel(ctx context.Context, principal Principal, reservationID int64) (reservation persistence.Reservation, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}

	logger := s.loggerWith(ctx, "Cancel",
		"principal", principal.Login,
		"reservation_id", reservationID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to cancel", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "reservation cancelled")
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	reservation, err = s.reservations.GetReservation(ctx, reservationID)
	if err != nil {
		err = mapStoreError(err)
		return
	}

	if reservation.UserLogin != principal.Login && !principal.IsAdmin {
		err = ErrUnauthorized
		return
	}

	if reservation.Status == persistence.StatusCancelled {
		return reservation, nil
	}

	reservation.Status = persistence.StatusCancelled
	reservation.UpdatedAt = s.now()

	reservation, err = s.reservations.UpdateReservation(ctx, reservation)
	if err != nil {
		err = mapStoreError(err)
		return
	}

	s.availability.InvalidateAll()
	return reservation, nil
}

// Availability maps every room name to the sorted occupied "HH:MM-HH:MM"
// slots of the requested date. Rooms without bookings appear with an empty
// slice.
func (s *ReservationService) Availability(ctx context.Context, date string) (map[string][]string, error) {
	if s == nil {
		return nil, fmt.Errorf("ReservationService is nil")
	}

	if cached, ok := s.availability.Get(date); ok {
		return cached, nil
	}

	rooms, err := s.rooms.ListRooms(ctx)
	if err != nil {
		return nil, err
	}

	names := make(map[int64]string, len(rooms))
	slots := make(map[string][]string, len(rooms))
	for _, room := range rooms {
		names[room.ID] = room.Name
		slots[room.Name] = []string{}
	}

	reservations, err := s.reservations.ListReservations(ctx)
	if err != nil {
		return nil, err
	}

	for _, reservation := range reservations {
		if reservation.Date != date || reservation.Status != persistence.StatusActive {
			continue
		}
		name, ok := names[reservation.RoomID]
		if !ok {
			// Reservation for a room deleted since; nothing to report it under.
			continue
		}
		slots[name] = append(slots[name], reservation.Start+"-"+reservation.End)
	}

	for name := range slots {
		sort.Strings(slots[name])
	}

	s.availability.Set(date, slots)
	return slots, nil
}

// ReservationsForUser returns every reservation, regardless of status, held
// by the login.
func (s *ReservationService) ReservationsForUser(ctx context.Context, login string) ([]persistence.Reservation, error) {
	if s == nil {
		return nil, fmt.Errorf("ReservationService is nil")
	}

	if _, err := s.users.GetUserByLogin(ctx, login); err != nil {
		return nil, mapStoreError(err)
	}

	reservations, err := s.reservations.ListReservations(ctx)
	if err != nil {
		return nil, err
	}

	mine := make([]persistence.Reservation, 0)
	for _, reservation := range reservations {
		if reservation.UserLogin == login {
			mine = append(mine, reservation)
		}
	}

	sort.Slice(mine, func(i, j int) bool { return mine[i].ID < mine[j].ID })
	return mine, nil
}

// UsageReport counts active reservations per room name. Rooms without active
// reservations are omitted.
func (s *ReservationService) UsageReport(ctx context.Context) (map[string]int, error) {
	if s == nil {
		return nil, fmt.Errorf("ReservationService is nil")
	}

	rooms, err := s.rooms.ListRooms(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(rooms))
	for _, room := range rooms {
		names[room.ID] = room.Name
	}

	reservations, err := s.reservations.ListReservations(ctx)
	if err != nil {
		return nil, err
	}

	report := make(map[string]int)
	for _, reservation := range reservations {
		if reservation.Status != persistence.StatusActive {
			continue
		}
		name, ok := names[reservation.RoomID]
		if !ok {
			continue
		}
		report[name]++
	}

	return report, nil
}

// Snapshot captures the entire reservation state as an immutable deep copy.
// The engine never snapshots on its own: callers take one before each
// mutating operation and hand it to the history service.
func (s *ReservationService) Snapshot(ctx context.Context) (history.Snapshot, error) {
	if s == nil {
		return history.Snapshot{}, fmt.Errorf("ReservationService is nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return history.Snapshot{}, err
	}
	rooms, err := s.rooms.ListRooms(ctx)
	if err != nil {
		return history.Snapshot{}, err
	}
	reservations, err := s.reservations.ListReservations(ctx)
	if err != nil {
		return history.Snapshot{}, err
	}

	return history.Snapshot{Users: users, Rooms: rooms, Reservations: reservations}.Clone(), nil
}

// Restore replaces the entire store contents with the snapshot.
func (s *ReservationService) Restore(ctx context.Context, snapshot history.Snapshot) (err error) {
	if s == nil {
		return fmt.Errorf("ReservationService is nil")
	}

	logger := s.loggerWith(ctx, "Restore")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to restore snapshot", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "snapshot restored")
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	restored := snapshot.Clone()
	if err = s.users.ReplaceAllUsers(ctx, restored.Users); err != nil {
		return
	}
	if err = s.rooms.ReplaceAllRooms(ctx, restored.Rooms); err != nil {
		return
	}
	if err = s.reservations.ReplaceAllReservations(ctx, restored.Reservations); err != nil {
		return
	}

	s.availability.InvalidateAll()
	return nil
}

func (s *ReservationService) sendConfirmation(ctx context.Context, logger *slog.Logger, user persistence.User, room persistence.Room, reservation persistence.Reservation) {
	if s.notifier == nil {
		return
	}
	confirmation := notify.Confirmation{
		ReservationID: reservation.ID,
		Login:         user.Login,
		UserName:      user.Name,
		RoomName:      room.Name,
		Date:          reservation.Date,
		Start:         reservation.Start,
		End:           reservation.End,
	}
	if err := s.notifier.ReservationConfirmed(ctx, confirmation); err != nil {
		logger.WarnContext(ctx, "failed to send confirmation", "error", err)
	}
}

func validateBookingInput(input BookingInput) (start, end int, vErr *ValidationError) {
	vErr = &ValidationError{}

	if _, err := time.Parse(dateLayout, input.Date); err != nil {
		vErr.add("date", "date must use the YYYY-MM-DD format")
	}

	start, startErr := minuteOfDay(input.Start)
	if startErr != nil {
		vErr.add("start", "start must use the HH:MM format")
	}
	end, endErr := minuteOfDay(input.End)
	if endErr != nil {
		vErr.add("end", "end must use the HH:MM format")
	}

	if startErr != nil || endErr != nil {
		return start, end, vErr
	}

	if start >= end {
		vErr.add("time", "start must be before end")
	}
	if start < openingMinute || start >= closingMinute {
		vErr.add("start", fmt.Sprintf("start must fall within %s-%s", conflict.FormatMinute(openingMinute), conflict.FormatMinute(closingMinute)))
	}
	if end <= openingMinute || end > closingMinute {
		vErr.add("end", fmt.Sprintf("end must fall within %s-%s", conflict.FormatMinute(openingMinute), conflict.FormatMinute(closingMinute)))
	}

	return start, end, vErr
}

func minuteOfDay(clock string) (int, error) {
	parsed, err := time.Parse(timeLayout, clock)
	if err != nil {
		return 0, err
	}
	return parsed.Hour()*60 + parsed.Minute(), nil
}

func toConflictBookings(reservations []persistence.Reservation) []conflict.Booking {
	bookings := make([]conflict.Booking, 0, len(reservations))
	for _, reservation := range reservations {
		start, err := minuteOfDay(reservation.Start)
		if err != nil {
			continue
		}
		end, err := minuteOfDay(reservation.End)
		if err != nil {
			continue
		}
		bookings = append(bookings, conflict.Booking{ID: reservation.ID, Start: start, End: end})
	}
	return bookings
}

func mapStoreError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrDuplicate) {
		vErr := &ValidationError{}
		vErr.add("login", "already in use")
		return vErr
	}
	if errors.Is(err, persistence.ErrConstraintViolation) {
		vErr := &ValidationError{}
		vErr.add("capacity", "capacity must be positive")
		return vErr
	}
	return err
}
