package sqlite

import (
	"context"
	"database/sql"

	"github.com/example/roomreserve/internal/persistence"
)

const roomColumns = "id, name, capacity, resources, created_at, updated_at"

// CreateRoom inserts a new room and returns it with the assigned ID.
func (s *Store) CreateRoom(ctx context.Context, room persistence.Room) (persistence.Room, error) {
	resources, err := encodeResources(room.Resources)
	if err != nil {
		return persistence.Room{}, err
	}

	result, err := s.db.ExecContext(ctx,
		"INSERT INTO rooms (name, capacity, resources, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
		room.Name, room.Capacity, resources,
		encodeTime(room.CreatedAt), encodeTime(room.UpdatedAt),
	)
	if err != nil {
		return persistence.Room{}, mapError(err)
	}

	room.ID, err = result.LastInsertId()
	if err != nil {
		return persistence.Room{}, mapError(err)
	}
	return room, nil
}

// GetRoom retrieves a room by ID.
func (s *Store) GetRoom(ctx context.Context, id int64) (persistence.Room, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+roomColumns+" FROM rooms WHERE id = ?", id)
	return scanRoom(row)
}

// ListRooms returns all rooms ordered by ID.
func (s *Store) ListRooms(ctx context.Context) ([]persistence.Room, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+roomColumns+" FROM rooms ORDER BY id")
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	rooms := make([]persistence.Room, 0)
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return rooms, nil
}

// DeleteRoom removes a room by ID. Reservations referencing the room are
// kept; they simply point at a room that no longer exists.
func (s *Store) DeleteRoom(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM rooms WHERE id = ?", id)
	if err != nil {
		return mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return mapError(err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// ReplaceAllRooms swaps the full room catalog in a single transaction.
// AUTOINCREMENT keeps the ID sequence monotonic across the replacement, so
// IDs from deleted snapshots are never handed out again.
func (s *Store) ReplaceAllRooms(ctx context.Context, rooms []persistence.Room) error {
	return s.WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM rooms"); err != nil {
			return mapError(err)
		}
		for _, room := range rooms {
			resources, err := encodeResources(room.Resources)
			if err != nil {
				return err
			}
			if _, err := tx.Exec(
				"INSERT INTO rooms ("+roomColumns+") VALUES (?, ?, ?, ?, ?, ?)",
				room.ID, room.Name, room.Capacity, resources,
				encodeTime(room.CreatedAt), encodeTime(room.UpdatedAt),
			); err != nil {
				return mapError(err)
			}
		}
		return nil
	})
}

func scanRoom(row rowScanner) (persistence.Room, error) {
	var (
		room      persistence.Room
		resources string
		createdAt string
		updatedAt string
	)
	if err := row.Scan(&room.ID, &room.Name, &room.Capacity, &resources, &createdAt, &updatedAt); err != nil {
		return persistence.Room{}, mapError(err)
	}

	var err error
	if room.Resources, err = decodeResources(resources); err != nil {
		return persistence.Room{}, err
	}
	if room.CreatedAt, err = decodeTime(createdAt); err != nil {
		return persistence.Room{}, err
	}
	if room.UpdatedAt, err = decodeTime(updatedAt); err != nil {
		return persistence.Room{}, err
	}
	return room, nil
}
