package application

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/example/roomreserve/internal/conflict"
	"github.com/example/roomreserve/internal/history"
	"github.com/example/roomreserve/internal/notify"
	"github.com/example/roomreserve/internal/persistence"
	"github.com/example/roomreserve/internal/persistence/memory"
)

type notifierStub struct {
	sent []notify.Confirmation
	err  error
}

func (n *notifierStub) ReservationConfirmed(ctx context.Context, confirmation notify.Confirmation) error {
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, confirmation)
	return nil
}

func fixedClock() time.Time {
	return time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
}

func seedUser(t *testing.T, store *memory.Store, login string, role persistence.Role, blocked bool) persistence.User {
	t.Helper()
	user, err := store.CreateUser(context.Background(), persistence.User{
		Login:        login,
		Name:         login,
		PasswordHash: "hash",
		Role:         role,
		Blocked:      blocked,
		CreatedAt:    fixedClock(),
		UpdatedAt:    fixedClock(),
	})
	if err != nil {
		t.Fatalf("failed to seed user %s: %v", login, err)
	}
	return user
}

func seedRoom(t *testing.T, store *memory.Store, name string) persistence.Room {
	t.Helper()
	room, err := store.CreateRoom(context.Background(), persistence.Room{
		Name:      name,
		Capacity:  8,
		CreatedAt: fixedClock(),
		UpdatedAt: fixedClock(),
	})
	if err != nil {
		t.Fatalf("failed to seed room %s: %v", name, err)
	}
	return room
}

func newEngine(store *memory.Store, policy conflict.Policy, notifier notify.Notifier) *ReservationService {
	return NewReservationService(store, store, store, policy, notifier, fixedClock)
}

func booking(roomID int64, start, end string) BookingInput {
	return BookingInput{RoomID: roomID, Date: "2026-05-04", Start: start, End: end}
}

func TestReservationService_Book_PersistsActiveReservation(t *testing.T) {
	t.Parallel()

	store := memory.New()
	seedUser(t, store, "alice", persistence.RoleUser, false)
	room := seedRoom(t, store, "Borealis")
	svc := newEngine(store, nil, nil)

	reservation, err := svc.Book(context.Background(), Principal{Login: "alice"}, booking(room.ID, "09:00", "10:00"))
	if err != nil {
		t.Fatalf("expected booking to succeed, got %v", err)
	}

	if reservation.ID == 0 {
		t.Fatalf("expected store to assign a reservation ID")
	}
	if reservation.Status != persistence.StatusActive {
		t.Fatalf("expected active status, got %s", reservation.Status)
	}
	if reservation.UserLogin != "alice" || reservation.RoomID != room.ID {
		t.Fatalf("unexpected reservation ownership: %+v", reservation)
	}
}

func TestReservationService_Book_RejectsBlockedUsers(t *testing.T) {
	t.Parallel()

	store := memory.New()
	seedUser(t, store, "mallory", persistence.RoleUser, true)
	room := seedRoom(t, store, "Borealis")
	svc := newEngine(store, nil, nil)

	_, err := svc.Book(context.Background(), Principal{Login: "mallory"}, booking(room.ID, "09:00", "10:00"))
	if !errors.Is(err, ErrUserBlocked) {
		t.Fatalf("expected ErrUserBlocked, got %v", err)
	}
}

func TestReservationService_Book_RejectsUnknownUser(t *testing.T) {
	t.Parallel()

	store := memory.New()
	room := seedRoom(t, store, "Borealis")
	svc := newEngine(store, nil, nil)

	_, err := svc.Book(context.Background(), Principal{Login: "ghost"}, booking(room.ID, "09:00", "10:00"))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown user, got %v", err)
	}
}

func TestReservationService_Book_RejectsUnknownRoom(t *testing.T) {
	t.Parallel()

	store := memory.New()
	seedUser(t, store, "alice", persistence.RoleUser, false)
	svc := newEngine(store, nil, nil)

	_, err := svc.Book(context.Background(), Principal{Login: "alice"}, booking(99, "09:00", "10:00"))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown room, got %v", err)
	}
}

func TestReservationService_Book_EnforcesOperatingWindow(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		start  string
		end    string
		wantOK bool
		field  string
	}{
		{name: "opens exactly at seven", start: "07:00", end: "08:00", wantOK: true},
		{name: "full day window", start: "07:00", end: "22:00", wantOK: true},
		{name: "ends exactly at close", start: "21:00", end: "22:00", wantOK: true},
		{name: "starts before opening", start: "06:59", end: "08:00", field: "start"},
		{name: "ends after close", start: "21:00", end: "22:01", field: "end"},
		{name: "starts at close", start: "22:00", end: "22:30", field: "start"},
		{name: "ends at opening", start: "06:00", end: "07:00", field: "end"},
		{name: "start not before end", start: "10:00", end: "10:00", field: "time"},
		{name: "inverted interval", start: "11:00", end: "10:00", field: "time"},
		{name: "malformed start", start: "9am", end: "10:00", field: "start"},
		{name: "malformed date", start: "09:00", end: "10:00", field: "date"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			store := memory.New()
			seedUser(t, store, "alice", persistence.RoleUser, false)
			room := seedRoom(t, store, "Borealis")
			svc := newEngine(store, nil, nil)

			input := booking(room.ID, tc.start, tc.end)
			if tc.field == "date" {
				input.Date = "04/05/2026"
			}

			_, err := svc.Book(context.Background(), Principal{Login: "alice"}, input)
			if tc.wantOK {
				if err != nil {
					t.Fatalf("expected booking to succeed, got %v", err)
				}
				return
			}

			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if _, ok := vErr.FieldErrors[tc.field]; !ok {
				t.Fatalf("expected %s validation error, got %v", tc.field, vErr.FieldErrors)
			}
		})
	}
}

func TestReservationService_Book_EnforcesActiveQuota(t *testing.T) {
	t.Parallel()

	store := memory.New()
	seedUser(t, store, "alice", persistence.RoleUser, false)
	room := seedRoom(t, store, "Borealis")
	svc := newEngine(store, nil, nil)
	principal := Principal{Login: "alice"}

	var last persistence.Reservation
	for i := 0; i < DefaultActiveQuota; i++ {
		start := fmt.Sprintf("%02d:00", 9+i)
		end := fmt.Sprintf("%02d:00", 10+i)
		reservation, err := svc.Book(context.Background(), principal, booking(room.ID, start, end))
		if err != nil {
			t.Fatalf("expected booking %d to succeed, got %v", i+1, err)
		}
		last = reservation
	}

	_, err := svc.Book(context.Background(), principal, booking(room.ID, "13:00", "14:00"))
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}

	if _, err := svc.Cancel(context.Background(), principal, last.ID); err != nil {
		t.Fatalf("expected cancellation to succeed, got %v", err)
	}

	if _, err := svc.Book(context.Background(), principal, booking(room.ID, "13:00", "14:00")); err != nil {
		t.Fatalf("expected booking to succeed after cancellation freed quota, got %v", err)
	}
}

func TestReservationService_Book_CountsQuotaAcrossRooms(t *testing.T) {
	t.Parallel()

	store := memory.New()
	seedUser(t, store, "alice", persistence.RoleUser, false)
	first := seedRoom(t, store, "Borealis")
	second := seedRoom(t, store, "Cascade")
	svc := newEngine(store, nil, nil)
	svc.SetActiveQuota(1)

	if _, err := svc.Book(context.Background(), Principal{Login: "alice"}, booking(first.ID, "09:00", "10:00")); err != nil {
		t.Fatalf("expected booking to succeed, got %v", err)
	}

	_, err := svc.Book(context.Background(), Principal{Login: "alice"}, booking(second.ID, "09:00", "10:00"))
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("expected quota to span rooms, got %v", err)
	}
}

func TestReservationService_Book_DetectsStrictConflicts(t *testing.T) {
	t.Parallel()

	store := memory.New()
	seedUser(t, store, "alice", persistence.RoleUser, false)
	seedUser(t, store, "bob", persistence.RoleUser, false)
	room := seedRoom(t, store, "Borealis")
	svc := newEngine(store, conflict.Strict{}, nil)

	if _, err := svc.Book(context.Background(), Principal{Login: "alice"}, booking(room.ID, "09:00", "10:00")); err != nil {
		t.Fatalf("expected first booking to succeed, got %v", err)
	}

	_, err := svc.Book(context.Background(), Principal{Login: "bob"}, booking(room.ID, "09:30", "10:30"))
	var cErr *ConflictError
	if !errors.As(err, &cErr) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if cErr.Policy != "strict" {
		t.Fatalf("expected strict policy in conflict, got %s", cErr.Policy)
	}
	if len(cErr.Conflicts) != 1 {
		t.Fatalf("expected one conflict, got %v", cErr.Conflicts)
	}

	// Back to back is fine under strict.
	if _, err := svc.Book(context.Background(), Principal{Login: "bob"}, booking(room.ID, "10:00", "11:00")); err != nil {
		t.Fatalf("expected back-to-back booking to succeed under strict, got %v", err)
	}
}

func TestReservationService_Book_HonoursLenientMargin(t *testing.T) {
	t.Parallel()

	store := memory.New()
	seedUser(t, store, "alice", persistence.RoleUser, false)
	seedUser(t, store, "bob", persistence.RoleUser, false)
	room := seedRoom(t, store, "Borealis")
	svc := newEngine(store, conflict.Lenient{MarginMinutes: conflict.DefaultLenientMargin}, nil)

	if _, err := svc.Book(context.Background(), Principal{Login: "alice"}, booking(room.ID, "09:00", "10:00")); err != nil {
		t.Fatalf("expected first booking to succeed, got %v", err)
	}

	if _, err := svc.Book(context.Background(), Principal{Login: "bob"}, booking(room.ID, "10:04", "11:00")); err == nil {
		t.Fatalf("expected lenient policy to reject a four minute gap")
	}

	if _, err := svc.Book(context.Background(), Principal{Login: "bob"}, booking(room.ID, "10:05", "11:00")); err != nil {
		t.Fatalf("expected five minute gap to satisfy lenient policy, got %v", err)
	}
}

func TestReservationService_SetPolicy_AppliesToLaterBookingsOnly(t *testing.T) {
	t.Parallel()

	store := memory.New()
	seedUser(t, store, "alice", persistence.RoleUser, false)
	seedUser(t, store, "bob", persistence.RoleUser, false)
	room := seedRoom(t, store, "Borealis")
	svc := newEngine(store, conflict.Strict{}, nil)

	if _, err := svc.Book(context.Background(), Principal{Login: "alice"}, booking(room.ID, "09:00", "10:00")); err != nil {
		t.Fatalf("expected booking to succeed, got %v", err)
	}

	// Adjacent is fine under strict but not under the lenient margin.
	svc.SetPolicy(conflict.Lenient{MarginMinutes: conflict.DefaultLenientMargin})
	if svc.Policy().Name() != "lenient" {
		t.Fatalf("expected policy swap to lenient, got %s", svc.Policy().Name())
	}

	if _, err := svc.Book(context.Background(), Principal{Login: "bob"}, booking(room.ID, "10:00", "11:00")); err == nil {
		t.Fatalf("expected adjacent booking to be rejected after policy swap")
	}
}

func TestReservationService_Book_IgnoresCancelledReservations(t *testing.T) {
	t.Parallel()

	store := memory.New()
	seedUser(t, store, "alice", persistence.RoleUser, false)
	seedUser(t, store, "bob", persistence.RoleUser, false)
	room := seedRoom(t, store, "Borealis")
	svc := newEngine(store, nil, nil)

	first, err := svc.Book(context.Background(), Principal{Login: "alice"}, booking(room.ID, "09:00", "10:00"))
	if err != nil {
		t.Fatalf("expected booking to succeed, got %v", err)
	}
	if _, err := svc.Cancel(context.Background(), Principal{Login: "alice"}, first.ID); err != nil {
		t.Fatalf("expected cancellation to succeed, got %v", err)
	}

	if _, err := svc.Book(context.Background(), Principal{Login: "bob"}, booking(room.ID, "09:00", "10:00")); err != nil {
		t.Fatalf("expected slot freed by cancellation to be bookable, got %v", err)
	}
}

func TestReservationService_Book_SendsConfirmation(t *testing.T) {
	t.Parallel()

	store := memory.New()
	seedUser(t, store, "alice", persistence.RoleUser, false)
	room := seedRoom(t, store, "Borealis")
	notifier := &notifierStub{}
	svc := newEngine(store, nil, notifier)

	reservation, err := svc.Book(context.Background(), Principal{Login: "alice"}, booking(room.ID, "09:00", "10:00"))
	if err != nil {
		t.Fatalf("expected booking to succeed, got %v", err)
	}

	if len(notifier.sent) != 1 {
		t.Fatalf("expected one confirmation, got %d", len(notifier.sent))
	}
	sent := notifier.sent[0]
	if sent.ReservationID != reservation.ID || sent.Login != "alice" || sent.RoomName != "Borealis" {
		t.Fatalf("unexpected confirmation payload: %+v", sent)
	}
}

func TestReservationService_Book_SucceedsWhenNotifierFails(t *testing.T) {
	t.Parallel()

	store := memory.New()
	seedUser(t, store, "alice", persistence.RoleUser, false)
	room := seedRoom(t, store, "Borealis")
	svc := newEngine(store, nil, &notifierStub{err: errors.New("broker unavailable")})

	if _, err := svc.Book(context.Background(), Principal{Login: "alice"}, booking(room.ID, "09:00", "10:00")); err != nil {
		t.Fatalf("expected booking to succeed despite notifier failure, got %v", err)
	}
}

func TestReservationService_Cancel_Permissions(t *testing.T) {
	t.Parallel()

	newFixture := func(t *testing.T) (*ReservationService, persistence.Reservation) {
		t.Helper()
		store := memory.New()
		seedUser(t, store, "alice", persistence.RoleUser, false)
		seedUser(t, store, "bob", persistence.RoleUser, false)
		seedUser(t, store, "admin", persistence.RoleAdmin, false)
		room := seedRoom(t, store, "Borealis")
		svc := newEngine(store, nil, nil)
		reservation, err := svc.Book(context.Background(), Principal{Login: "alice"}, booking(room.ID, "09:00", "10:00"))
		if err != nil {
			t.Fatalf("failed to seed reservation: %v", err)
		}
		return svc, reservation
	}

	t.Run("owner may cancel", func(t *testing.T) {
		t.Parallel()
		svc, reservation := newFixture(t)
		cancelled, err := svc.Cancel(context.Background(), Principal{Login: "alice"}, reservation.ID)
		if err != nil {
			t.Fatalf("expected owner cancel to succeed, got %v", err)
		}
		if cancelled.Status != persistence.StatusCancelled {
			t.Fatalf("expected cancelled status, got %s", cancelled.Status)
		}
	})

	t.Run("other users may not cancel", func(t *testing.T) {
		t.Parallel()
		svc, reservation := newFixture(t)
		_, err := svc.Cancel(context.Background(), Principal{Login: "bob"}, reservation.ID)
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("admins may cancel any reservation", func(t *testing.T) {
		t.Parallel()
		svc, reservation := newFixture(t)
		if _, err := svc.Cancel(context.Background(), Principal{Login: "admin", IsAdmin: true}, reservation.ID); err != nil {
			t.Fatalf("expected admin cancel to succeed, got %v", err)
		}
	})

	t.Run("unknown reservation", func(t *testing.T) {
		t.Parallel()
		svc, _ := newFixture(t)
		_, err := svc.Cancel(context.Background(), Principal{Login: "alice"}, 404)
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("double cancel is a no-op", func(t *testing.T) {
		t.Parallel()
		svc, reservation := newFixture(t)
		first, err := svc.Cancel(context.Background(), Principal{Login: "alice"}, reservation.ID)
		if err != nil {
			t.Fatalf("expected first cancel to succeed, got %v", err)
		}
		second, err := svc.Cancel(context.Background(), Principal{Login: "alice"}, reservation.ID)
		if err != nil {
			t.Fatalf("expected repeated cancel to succeed, got %v", err)
		}
		if !reflect.DeepEqual(first, second) {
			t.Fatalf("expected repeated cancel to return the reservation unchanged: %+v vs %+v", first, second)
		}
	})
}

func TestReservationService_Availability(t *testing.T) {
	t.Parallel()

	store := memory.New()
	seedUser(t, store, "alice", persistence.RoleUser, false)
	busy := seedRoom(t, store, "Borealis")
	seedRoom(t, store, "Cascade")
	doomed := seedRoom(t, store, "Dunes")
	svc := newEngine(store, nil, nil)
	principal := Principal{Login: "alice"}

	if _, err := svc.Book(context.Background(), principal, booking(busy.ID, "13:00", "14:00")); err != nil {
		t.Fatalf("failed to seed booking: %v", err)
	}
	if _, err := svc.Book(context.Background(), principal, booking(busy.ID, "09:00", "10:00")); err != nil {
		t.Fatalf("failed to seed booking: %v", err)
	}
	if _, err := svc.Book(context.Background(), principal, booking(doomed.ID, "09:00", "10:00")); err != nil {
		t.Fatalf("failed to seed booking: %v", err)
	}
	if err := store.DeleteRoom(context.Background(), doomed.ID); err != nil {
		t.Fatalf("failed to delete room: %v", err)
	}

	got, err := svc.Availability(context.Background(), "2026-05-04")
	if err != nil {
		t.Fatalf("expected availability to succeed, got %v", err)
	}

	want := map[string][]string{
		"Borealis": {"09:00-10:00", "13:00-14:00"},
		"Cascade":  {},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected availability: got %v want %v", got, want)
	}

	// A different date shows every room as free.
	other, err := svc.Availability(context.Background(), "2026-05-05")
	if err != nil {
		t.Fatalf("expected availability to succeed, got %v", err)
	}
	if len(other["Borealis"]) != 0 || len(other["Cascade"]) != 0 {
		t.Fatalf("expected empty slots on another date, got %v", other)
	}
}

func TestReservationService_Availability_ReflectsCancellations(t *testing.T) {
	t.Parallel()

	store := memory.New()
	seedUser(t, store, "alice", persistence.RoleUser, false)
	room := seedRoom(t, store, "Borealis")
	svc := newEngine(store, nil, nil)
	principal := Principal{Login: "alice"}

	reservation, err := svc.Book(context.Background(), principal, booking(room.ID, "09:00", "10:00"))
	if err != nil {
		t.Fatalf("failed to seed booking: %v", err)
	}

	before, err := svc.Availability(context.Background(), "2026-05-04")
	if err != nil {
		t.Fatalf("expected availability to succeed, got %v", err)
	}
	if len(before["Borealis"]) != 1 {
		t.Fatalf("expected one occupied slot before cancel, got %v", before)
	}

	if _, err := svc.Cancel(context.Background(), principal, reservation.ID); err != nil {
		t.Fatalf("expected cancel to succeed, got %v", err)
	}

	after, err := svc.Availability(context.Background(), "2026-05-04")
	if err != nil {
		t.Fatalf("expected availability to succeed, got %v", err)
	}
	if len(after["Borealis"]) != 0 {
		t.Fatalf("expected cache invalidation after cancel, got %v", after)
	}
}

func TestReservationService_Availability_ReflectsCatalogChanges(t *testing.T) {
	t.Parallel()

	store := memory.New()
	alpha := seedRoom(t, store, "Alpha")
	svc := newEngine(store, nil, nil)
	rooms := NewRoomService(store, fixedClock)
	rooms.NotifyCatalogChange(svc.InvalidateAvailability)
	admin := Principal{Login: "admin", IsAdmin: true}

	first, err := svc.Availability(context.Background(), "2026-05-10")
	if err != nil {
		t.Fatalf("expected availability to succeed, got %v", err)
	}
	if !reflect.DeepEqual(first, map[string][]string{"Alpha": {}}) {
		t.Fatalf("unexpected availability before catalog change: %v", first)
	}

	if _, err := rooms.Create(context.Background(), admin, RoomInput{Name: "Beta", Capacity: 8}); err != nil {
		t.Fatalf("failed to create room: %v", err)
	}

	withBeta, err := svc.Availability(context.Background(), "2026-05-10")
	if err != nil {
		t.Fatalf("expected availability to succeed, got %v", err)
	}
	if _, ok := withBeta["Beta"]; !ok {
		t.Fatalf("expected new room in availability, got %v", withBeta)
	}

	if err := rooms.Delete(context.Background(), admin, alpha.ID); err != nil {
		t.Fatalf("failed to delete room: %v", err)
	}

	withoutAlpha, err := svc.Availability(context.Background(), "2026-05-10")
	if err != nil {
		t.Fatalf("expected availability to succeed, got %v", err)
	}
	if _, ok := withoutAlpha["Alpha"]; ok {
		t.Fatalf("expected deleted room to leave availability, got %v", withoutAlpha)
	}
}

func TestReservationService_ReservationsForUser(t *testing.T) {
	t.Parallel()

	store := memory.New()
	seedUser(t, store, "alice", persistence.RoleUser, false)
	seedUser(t, store, "bob", persistence.RoleUser, false)
	room := seedRoom(t, store, "Borealis")
	svc := newEngine(store, nil, nil)

	first, err := svc.Book(context.Background(), Principal{Login: "alice"}, booking(room.ID, "09:00", "10:00"))
	if err != nil {
		t.Fatalf("failed to seed booking: %v", err)
	}
	if _, err := svc.Book(context.Background(), Principal{Login: "bob"}, booking(room.ID, "10:00", "11:00")); err != nil {
		t.Fatalf("failed to seed booking: %v", err)
	}
	if _, err := svc.Cancel(context.Background(), Principal{Login: "alice"}, first.ID); err != nil {
		t.Fatalf("failed to cancel: %v", err)
	}
	if _, err := svc.Book(context.Background(), Principal{Login: "alice"}, booking(room.ID, "11:00", "12:00")); err != nil {
		t.Fatalf("failed to seed booking: %v", err)
	}

	mine, err := svc.ReservationsForUser(context.Background(), "alice")
	if err != nil {
		t.Fatalf("expected listing to succeed, got %v", err)
	}
	if len(mine) != 2 {
		t.Fatalf("expected cancelled reservations to be included, got %v", mine)
	}
	if mine[0].ID > mine[1].ID {
		t.Fatalf("expected reservations ordered by ID, got %v", mine)
	}
	if mine[0].Status != persistence.StatusCancelled {
		t.Fatalf("expected first reservation cancelled, got %s", mine[0].Status)
	}

	if _, err := svc.ReservationsForUser(context.Background(), "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown login, got %v", err)
	}
}

func TestReservationService_UsageReport(t *testing.T) {
	t.Parallel()

	store := memory.New()
	seedUser(t, store, "alice", persistence.RoleUser, false)
	seedUser(t, store, "bob", persistence.RoleUser, false)
	busy := seedRoom(t, store, "Borealis")
	seedRoom(t, store, "Cascade")
	svc := newEngine(store, nil, nil)

	if _, err := svc.Book(context.Background(), Principal{Login: "alice"}, booking(busy.ID, "09:00", "10:00")); err != nil {
		t.Fatalf("failed to seed booking: %v", err)
	}
	if _, err := svc.Book(context.Background(), Principal{Login: "bob"}, booking(busy.ID, "10:00", "11:00")); err != nil {
		t.Fatalf("failed to seed booking: %v", err)
	}
	cancelled, err := svc.Book(context.Background(), Principal{Login: "alice"}, booking(busy.ID, "11:00", "12:00"))
	if err != nil {
		t.Fatalf("failed to seed booking: %v", err)
	}
	if _, err := svc.Cancel(context.Background(), Principal{Login: "alice"}, cancelled.ID); err != nil {
		t.Fatalf("failed to cancel: %v", err)
	}

	report, err := svc.UsageReport(context.Background())
	if err != nil {
		t.Fatalf("expected report to succeed, got %v", err)
	}

	want := map[string]int{"Borealis": 2}
	if !reflect.DeepEqual(report, want) {
		t.Fatalf("unexpected usage report: got %v want %v", report, want)
	}
}

func TestReservationService_SnapshotRestore_RoundTrip(t *testing.T) {
	t.Parallel()

	store := memory.New()
	seedUser(t, store, "alice", persistence.RoleUser, false)
	room := seedRoom(t, store, "Borealis")
	svc := newEngine(store, nil, nil)

	if _, err := svc.Book(context.Background(), Principal{Login: "alice"}, booking(room.ID, "09:00", "10:00")); err != nil {
		t.Fatalf("failed to seed booking: %v", err)
	}

	snapshot, err := svc.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("expected snapshot to succeed, got %v", err)
	}

	if err := svc.Restore(context.Background(), snapshot); err != nil {
		t.Fatalf("expected restore to succeed, got %v", err)
	}

	after, err := svc.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("expected snapshot to succeed, got %v", err)
	}
	if !reflect.DeepEqual(snapshot, after) {
		t.Fatalf("expected restore of own snapshot to be a no-op")
	}
}

func TestReservationService_UndoRedo_WithHistoryService(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memory.New()
	seedUser(t, store, "alice", persistence.RoleUser, false)
	room := seedRoom(t, store, "Borealis")
	svc := newEngine(store, nil, nil)
	hist := history.NewService(history.DefaultCapacity)

	before, err := svc.Snapshot(ctx)
	if err != nil {
		t.Fatalf("expected snapshot to succeed, got %v", err)
	}

	reservation, err := svc.Book(ctx, Principal{Login: "alice"}, booking(room.ID, "09:00", "10:00"))
	if err != nil {
		t.Fatalf("expected booking to succeed, got %v", err)
	}
	hist.Push(before)

	current, err := svc.Snapshot(ctx)
	if err != nil {
		t.Fatalf("expected snapshot to succeed, got %v", err)
	}
	restored, ok := hist.Undo(current)
	if !ok {
		t.Fatalf("expected undo to yield a snapshot")
	}
	if err := svc.Restore(ctx, restored); err != nil {
		t.Fatalf("expected restore to succeed, got %v", err)
	}

	if _, err := store.GetReservation(ctx, reservation.ID); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected booking to be undone, got %v", err)
	}

	current, err = svc.Snapshot(ctx)
	if err != nil {
		t.Fatalf("expected snapshot to succeed, got %v", err)
	}
	replayed, ok := hist.Redo(current)
	if !ok {
		t.Fatalf("expected redo to yield a snapshot")
	}
	if err := svc.Restore(ctx, replayed); err != nil {
		t.Fatalf("expected restore to succeed, got %v", err)
	}

	got, err := store.GetReservation(ctx, reservation.ID)
	if err != nil {
		t.Fatalf("expected reinstated reservation, got %v", err)
	}
	if got.ID != reservation.ID || got.Status != persistence.StatusActive {
		t.Fatalf("expected redo to reinstate the same reservation, got %+v", got)
	}
}

func TestReservationService_IDsNotReusedAfterUndo(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memory.New()
	seedUser(t, store, "alice", persistence.RoleUser, false)
	room := seedRoom(t, store, "Borealis")
	svc := newEngine(store, nil, nil)

	before, err := svc.Snapshot(ctx)
	if err != nil {
		t.Fatalf("expected snapshot to succeed, got %v", err)
	}

	first, err := svc.Book(ctx, Principal{Login: "alice"}, booking(room.ID, "09:00", "10:00"))
	if err != nil {
		t.Fatalf("expected booking to succeed, got %v", err)
	}

	if err := svc.Restore(ctx, before); err != nil {
		t.Fatalf("expected restore to succeed, got %v", err)
	}

	second, err := svc.Book(ctx, Principal{Login: "alice"}, booking(room.ID, "09:00", "10:00"))
	if err != nil {
		t.Fatalf("expected booking to succeed, got %v", err)
	}
	if second.ID <= first.ID {
		t.Fatalf("expected a fresh ID after undo, got %d then %d", first.ID, second.ID)
	}
}
