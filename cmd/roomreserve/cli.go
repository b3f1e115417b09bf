package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/example/roomreserve/internal/application"
	"github.com/example/roomreserve/internal/config"
	"github.com/example/roomreserve/internal/conflict"
	"github.com/example/roomreserve/internal/history"
)

// cli drives the interactive menu session on stdin/stdout.
type cli struct {
	in      io.Reader
	out     io.Writer
	logger  *slog.Logger
	engine  *application.ReservationService
	users   *application.UserService
	rooms   *application.RoomService
	auth    *application.AuthService
	history *history.Service
	cfg     config.Config

	scanner *bufio.Scanner
}

func (c *cli) run(ctx context.Context) error {
	c.scanner = bufio.NewScanner(c.in)
	c.printf("Room reservation service")

	for ctx.Err() == nil {
		c.printf("")
		c.printf("1) Sign in")
		c.printf("2) Register")
		c.printf("0) Exit")

		choice, ok := c.prompt("> ")
		if !ok {
			return nil
		}

		switch choice {
		case "1":
			c.signIn(ctx)
		case "2":
			c.register(ctx)
		case "0":
			return nil
		default:
			c.printf("unknown option %q", choice)
		}
	}
	return ctx.Err()
}

func (c *cli) signIn(ctx context.Context) {
	login, ok := c.prompt("login: ")
	if !ok {
		return
	}
	password, ok := c.prompt("password: ")
	if !ok {
		return
	}

	user, err := c.auth.Authenticate(ctx, login, password)
	if err != nil {
		c.printf("error: %v", err)
		return
	}

	principal := application.PrincipalFor(user)
	c.printf("welcome, %s", user.Name)
	if principal.IsAdmin {
		c.adminSession(ctx, principal)
		return
	}
	c.userSession(ctx, principal)
}

func (c *cli) register(ctx context.Context) {
	name, ok := c.prompt("name: ")
	if !ok {
		return
	}
	login, ok := c.prompt("login: ")
	if !ok {
		return
	}
	password, ok := c.prompt("password: ")
	if !ok {
		return
	}

	err := c.recordMutation(ctx, func() error {
		_, err := c.users.Register(ctx, application.RegisterInput{Name: name, Login: login, Password: password})
		return err
	})
	if err != nil {
		c.printf("error: %v", err)
		return
	}
	c.printf("account %s created, you can sign in now", login)
}

func (c *cli) userSession(ctx context.Context, principal application.Principal) {
	for ctx.Err() == nil {
		c.printf("")
		c.printf("1) Book a room")
		c.printf("2) My reservations")
		c.printf("3) Cancel a reservation")
		c.printf("4) Availability for a date")
		c.printf("5) Rooms")
		c.printf("0) Sign out")

		choice, ok := c.prompt("> ")
		if !ok {
			return
		}

		switch choice {
		case "1":
			c.book(ctx, principal)
		case "2":
			c.myReservations(ctx, principal.Login)
		case "3":
			c.cancel(ctx, principal)
		case "4":
			c.availability(ctx)
		case "5":
			c.listRooms(ctx)
		case "0":
			return
		default:
			c.printf("unknown option %q", choice)
		}
	}
}

func (c *cli) adminSession(ctx context.Context, principal application.Principal) {
	for ctx.Err() == nil {
		c.printf("")
		c.printf(" 1) Book a room")
		c.printf(" 2) My reservations")
		c.printf(" 3) Cancel a reservation")
		c.printf(" 4) Availability for a date")
		c.printf(" 5) Rooms")
		c.printf(" 6) User's reservations")
		c.printf(" 7) Create room")
		c.printf(" 8) Delete room")
		c.printf(" 9) Users")
		c.printf("10) Block user")
		c.printf("11) Usage report")
		c.printf("12) Undo")
		c.printf("13) Redo")
		c.printf("14) Conflict policy")
		c.printf(" 0) Sign out")

		choice, ok := c.prompt("> ")
		if !ok {
			return
		}

		switch choice {
		case "1":
			c.book(ctx, principal)
		case "2":
			c.myReservations(ctx, principal.Login)
		case "3":
			c.cancel(ctx, principal)
		case "4":
			c.availability(ctx)
		case "5":
			c.listRooms(ctx)
		case "6":
			c.userReservations(ctx)
		case "7":
			c.createRoom(ctx, principal)
		case "8":
			c.deleteRoom(ctx, principal)
		case "9":
			c.listUsers(ctx, principal)
		case "10":
			c.blockUser(ctx, principal)
		case "11":
			c.usageReport(ctx)
		case "12":
			c.undo(ctx)
		case "13":
			c.redo(ctx)
		case "14":
			c.switchPolicy()
		case "0":
			return
		default:
			c.printf("unknown option %q", choice)
		}
	}
}

func (c *cli) book(ctx context.Context, principal application.Principal) {
	roomID, ok := c.promptInt64("room ID: ")
	if !ok {
		return
	}
	date, ok := c.prompt("date (YYYY-MM-DD): ")
	if !ok {
		return
	}
	start, ok := c.prompt("start (HH:MM): ")
	if !ok {
		return
	}
	end, ok := c.prompt("end (HH:MM): ")
	if !ok {
		return
	}

	var reservationID int64
	err := c.recordMutation(ctx, func() error {
		booked, err := c.engine.Book(ctx, principal, application.BookingInput{
			RoomID: roomID,
			Date:   date,
			Start:  start,
			End:    end,
		})
		reservationID = booked.ID
		return err
	})
	if err != nil {
		c.printf("error: %v", err)
		return
	}
	c.printf("reservation %d booked", reservationID)
}

func (c *cli) cancel(ctx context.Context, principal application.Principal) {
	reservationID, ok := c.promptInt64("reservation ID: ")
	if !ok {
		return
	}

	err := c.recordMutation(ctx, func() error {
		_, err := c.engine.Cancel(ctx, principal, reservationID)
		return err
	})
	if err != nil {
		c.printf("error: %v", err)
		return
	}
	c.printf("reservation %d cancelled", reservationID)
}

func (c *cli) myReservations(ctx context.Context, login string) {
	reservations, err := c.engine.ReservationsForUser(ctx, login)
	if err != nil {
		c.printf("error: %v", err)
		return
	}
	if len(reservations) == 0 {
		c.printf("no reservations")
		return
	}
	for _, r := range reservations {
		c.printf("#%d room %d on %s %s-%s [%s]", r.ID, r.RoomID, r.Date, r.Start, r.End, r.Status)
	}
}

func (c *cli) userReservations(ctx context.Context) {
	login, ok := c.prompt("login: ")
	if !ok {
		return
	}
	c.myReservations(ctx, login)
}

func (c *cli) availability(ctx context.Context) {
	date, ok := c.prompt("date (YYYY-MM-DD): ")
	if !ok {
		return
	}

	slots, err := c.engine.Availability(ctx, date)
	if err != nil {
		c.printf("error: %v", err)
		return
	}
	if len(slots) == 0 {
		c.printf("no rooms")
		return
	}

	names := make([]string, 0, len(slots))
	for name := range slots {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if len(slots[name]) == 0 {
			c.printf("%s: free all day", name)
			continue
		}
		c.printf("%s: occupied %s", name, strings.Join(slots[name], ", "))
	}
}

func (c *cli) listRooms(ctx context.Context) {
	rooms, err := c.rooms.List(ctx)
	if err != nil {
		c.printf("error: %v", err)
		return
	}
	if len(rooms) == 0 {
		c.printf("no rooms")
		return
	}
	for _, room := range rooms {
		line := fmt.Sprintf("#%d %s (capacity %d)", room.ID, room.Name, room.Capacity)
		if len(room.Resources) > 0 {
			line += " " + strings.Join(room.Resources, ", ")
		}
		c.printf("%s", line)
	}
}

func (c *cli) createRoom(ctx context.Context, principal application.Principal) {
	name, ok := c.prompt("name: ")
	if !ok {
		return
	}
	capacity, ok := c.promptInt("capacity: ")
	if !ok {
		return
	}
	resourcesLine, ok := c.prompt("resources (comma separated, empty for none): ")
	if !ok {
		return
	}
	var resources []string
	if resourcesLine != "" {
		resources = strings.Split(resourcesLine, ",")
	}

	var roomID int64
	err := c.recordMutation(ctx, func() error {
		created, err := c.rooms.Create(ctx, principal, application.RoomInput{Name: name, Capacity: capacity, Resources: resources})
		roomID = created.ID
		return err
	})
	if err != nil {
		c.printf("error: %v", err)
		return
	}
	c.printf("room %d created", roomID)
}

func (c *cli) deleteRoom(ctx context.Context, principal application.Principal) {
	roomID, ok := c.promptInt64("room ID: ")
	if !ok {
		return
	}

	err := c.recordMutation(ctx, func() error {
		return c.rooms.Delete(ctx, principal, roomID)
	})
	if err != nil {
		c.printf("error: %v", err)
		return
	}
	c.printf("room %d deleted", roomID)
}

func (c *cli) listUsers(ctx context.Context, principal application.Principal) {
	users, err := c.users.List(ctx, principal)
	if err != nil {
		c.printf("error: %v", err)
		return
	}
	for _, user := range users {
		line := fmt.Sprintf("%s (%s, %s)", user.Login, user.Name, user.Role)
		if user.Blocked {
			line += " [blocked]"
		}
		c.printf("%s", line)
	}
}

func (c *cli) blockUser(ctx context.Context, principal application.Principal) {
	login, ok := c.prompt("login to block: ")
	if !ok {
		return
	}

	err := c.recordMutation(ctx, func() error {
		return c.users.Block(ctx, principal, login)
	})
	if err != nil {
		c.printf("error: %v", err)
		return
	}
	c.printf("user %s blocked", login)
}

func (c *cli) usageReport(ctx context.Context) {
	report, err := c.engine.UsageReport(ctx)
	if err != nil {
		c.printf("error: %v", err)
		return
	}
	if len(report) == 0 {
		c.printf("no active reservations")
		return
	}

	names := make([]string, 0, len(report))
	for name := range report {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		c.printf("%s: %d active", name, report[name])
	}
}

func (c *cli) undo(ctx context.Context) {
	current, err := c.engine.Snapshot(ctx)
	if err != nil {
		c.printf("error: %v", err)
		return
	}
	snapshot, ok := c.history.Undo(current)
	if !ok {
		c.printf("nothing to undo")
		return
	}
	if err := c.engine.Restore(ctx, snapshot); err != nil {
		c.printf("error: %v", err)
		return
	}
	c.printf("undone")
}

func (c *cli) redo(ctx context.Context) {
	current, err := c.engine.Snapshot(ctx)
	if err != nil {
		c.printf("error: %v", err)
		return
	}
	snapshot, ok := c.history.Redo(current)
	if !ok {
		c.printf("nothing to redo")
		return
	}
	if err := c.engine.Restore(ctx, snapshot); err != nil {
		c.printf("error: %v", err)
		return
	}
	c.printf("redone")
}

func (c *cli) switchPolicy() {
	name, ok := c.prompt("policy (strict/lenient): ")
	if !ok {
		return
	}

	policy, err := conflict.ParsePolicy(name)
	if err != nil {
		c.printf("error: %v", err)
		return
	}
	if lenient, isLenient := policy.(conflict.Lenient); isLenient {
		lenient.MarginMinutes = c.cfg.LenientMargin
		policy = lenient
	}

	c.engine.SetPolicy(policy)
	c.printf("conflict policy set to %s", policy.Name())
}

// recordMutation snapshots the state, runs the mutation, and pushes the
// snapshot to the undo pile only when the mutation succeeded.
func (c *cli) recordMutation(ctx context.Context, fn func() error) error {
	before, err := c.engine.Snapshot(ctx)
	if err != nil {
		return err
	}
	if err := fn(); err != nil {
		return err
	}
	c.history.Push(before)
	return nil
}

func (c *cli) prompt(label string) (string, bool) {
	fmt.Fprint(c.out, label)
	if !c.scanner.Scan() {
		return "", false
	}
	return strings.TrimSpace(c.scanner.Text()), true
}

func (c *cli) promptInt(label string) (int, bool) {
	value, ok := c.prompt(label)
	if !ok {
		return 0, false
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		c.printf("error: %q is not a number", value)
		return 0, false
	}
	return parsed, true
}

func (c *cli) promptInt64(label string) (int64, bool) {
	value, ok := c.prompt(label)
	if !ok {
		return 0, false
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		c.printf("error: %q is not a number", value)
		return 0, false
	}
	return parsed, true
}

func (c *cli) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format+"\n", args...)
}
