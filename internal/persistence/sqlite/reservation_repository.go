package sqlite

import (
	"context"
	"database/sql"

	"github.com/example/roomreserve/internal/persistence"
)

const reservationColumns = "id, user_login, room_id, date, start_time, end_time, status, created_at, updated_at"

// CreateReservation inserts a new reservation and returns it with the
// assigned ID.
func (s *Store) CreateReservation(ctx context.Context, reservation persistence.Reservation) (persistence.Reservation, error) {
	result, err := s.db.ExecContext(ctx,
		"INSERT INTO reservations (user_login, room_id, date, start_time, end_time, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		reservation.UserLogin, reservation.RoomID, reservation.Date,
		reservation.Start, reservation.End, string(reservation.Status),
		encodeTime(reservation.CreatedAt), encodeTime(reservation.UpdatedAt),
	)
	if err != nil {
		return persistence.Reservation{}, mapError(err)
	}

	reservation.ID, err = result.LastInsertId()
	if err != nil {
		return persistence.Reservation{}, mapError(err)
	}
	return reservation, nil
}

// GetReservation retrieves a reservation by ID.
func (s *Store) GetReservation(ctx context.Context, id int64) (persistence.Reservation, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+reservationColumns+" FROM reservations WHERE id = ?", id)
	return scanReservation(row)
}

// ListReservations returns all reservations ordered by ID.
func (s *Store) ListReservations(ctx context.Context) ([]persistence.Reservation, error) {
	return s.queryReservations(ctx, "SELECT "+reservationColumns+" FROM reservations ORDER BY id")
}

// ListActiveByRoomAndDate returns active reservations for a room on a date,
// ordered by start time.
func (s *Store) ListActiveByRoomAndDate(ctx context.Context, roomID int64, date string) ([]persistence.Reservation, error) {
	return s.queryReservations(ctx,
		"SELECT "+reservationColumns+" FROM reservations WHERE room_id = ? AND date = ? AND status = ? ORDER BY start_time, id",
		roomID, date, string(persistence.StatusActive),
	)
}

// ListActiveByUser returns a user's active reservations ordered by ID.
func (s *Store) ListActiveByUser(ctx context.Context, login string) ([]persistence.Reservation, error) {
	return s.queryReservations(ctx,
		"SELECT "+reservationColumns+" FROM reservations WHERE user_login = ? AND status = ? ORDER BY id",
		login, string(persistence.StatusActive),
	)
}

// UpdateReservation overwrites an existing reservation.
func (s *Store) UpdateReservation(ctx context.Context, reservation persistence.Reservation) (persistence.Reservation, error) {
	result, err := s.db.ExecContext(ctx,
		"UPDATE reservations SET user_login = ?, room_id = ?, date = ?, start_time = ?, end_time = ?, status = ?, created_at = ?, updated_at = ? WHERE id = ?",
		reservation.UserLogin, reservation.RoomID, reservation.Date,
		reservation.Start, reservation.End, string(reservation.Status),
		encodeTime(reservation.CreatedAt), encodeTime(reservation.UpdatedAt), reservation.ID,
	)
	if err != nil {
		return persistence.Reservation{}, mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.Reservation{}, mapError(err)
	}
	if affected == 0 {
		return persistence.Reservation{}, persistence.ErrNotFound
	}
	return reservation, nil
}

// ReplaceAllReservations swaps the full reservation set in a single
// transaction. AUTOINCREMENT keeps the ID sequence monotonic across the
// replacement.
func (s *Store) ReplaceAllReservations(ctx context.Context, reservations []persistence.Reservation) error {
	return s.WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM reservations"); err != nil {
			return mapError(err)
		}
		for _, reservation := range reservations {
			if _, err := tx.Exec(
				"INSERT INTO reservations ("+reservationColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
				reservation.ID, reservation.UserLogin, reservation.RoomID, reservation.Date,
				reservation.Start, reservation.End, string(reservation.Status),
				encodeTime(reservation.CreatedAt), encodeTime(reservation.UpdatedAt),
			); err != nil {
				return mapError(err)
			}
		}
		return nil
	})
}

func (s *Store) queryReservations(ctx context.Context, query string, args ...any) ([]persistence.Reservation, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	reservations := make([]persistence.Reservation, 0)
	for rows.Next() {
		reservation, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		reservations = append(reservations, reservation)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return reservations, nil
}

func scanReservation(row rowScanner) (persistence.Reservation, error) {
	var (
		reservation persistence.Reservation
		status      string
		createdAt   string
		updatedAt   string
	)
	if err := row.Scan(&reservation.ID, &reservation.UserLogin, &reservation.RoomID,
		&reservation.Date, &reservation.Start, &reservation.End, &status, &createdAt, &updatedAt); err != nil {
		return persistence.Reservation{}, mapError(err)
	}
	reservation.Status = persistence.ReservationStatus(status)

	var err error
	if reservation.CreatedAt, err = decodeTime(createdAt); err != nil {
		return persistence.Reservation{}, err
	}
	if reservation.UpdatedAt, err = decodeTime(updatedAt); err != nil {
		return persistence.Reservation{}, err
	}
	return reservation, nil
}
