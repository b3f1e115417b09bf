package sqlite

import (
	"context"
	"database/sql"

	"github.com/example/roomreserve/internal/persistence"
)

const userColumns = "login, name, password_hash, role, blocked, created_at, updated_at"

// CreateUser inserts a new account. A duplicate login surfaces as
// persistence.ErrDuplicate.
func (s *Store) CreateUser(ctx context.Context, user persistence.User) (persistence.User, error) {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO users ("+userColumns+") VALUES (?, ?, ?, ?, ?, ?, ?)",
		user.Login, user.Name, user.PasswordHash, string(user.Role), user.Blocked,
		encodeTime(user.CreatedAt), encodeTime(user.UpdatedAt),
	)
	if err != nil {
		return persistence.User{}, mapError(err)
	}
	return user, nil
}

// GetUserByLogin retrieves an account by login.
func (s *Store) GetUserByLogin(ctx context.Context, login string) (persistence.User, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE login = ?", login)
	return scanUser(row)
}

// ListUsers returns all accounts ordered by login.
func (s *Store) ListUsers(ctx context.Context) ([]persistence.User, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY login")
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	users := make([]persistence.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return users, nil
}

// UpdateUser overwrites an existing account.
func (s *Store) UpdateUser(ctx context.Context, user persistence.User) (persistence.User, error) {
	result, err := s.db.ExecContext(ctx,
		"UPDATE users SET name = ?, password_hash = ?, role = ?, blocked = ?, created_at = ?, updated_at = ? WHERE login = ?",
		user.Name, user.PasswordHash, string(user.Role), user.Blocked,
		encodeTime(user.CreatedAt), encodeTime(user.UpdatedAt), user.Login,
	)
	if err != nil {
		return persistence.User{}, mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.User{}, mapError(err)
	}
	if affected == 0 {
		return persistence.User{}, persistence.ErrNotFound
	}
	return user, nil
}

// DeleteUser removes an account by login.
func (s *Store) DeleteUser(ctx context.Context, login string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM users WHERE login = ?", login)
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

// ReplaceAllUsers swaps the full account set in a single transaction.
func (s *Store) ReplaceAllUsers(ctx context.Context, users []persistence.User) error {
	return s.WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM users"); err != nil {
			return mapError(err)
		}
		for _, user := range users {
			if _, err := tx.Exec(
				"INSERT INTO users ("+userColumns+") VALUES (?, ?, ?, ?, ?, ?, ?)",
				user.Login, user.Name, user.PasswordHash, string(user.Role), user.Blocked,
				encodeTime(user.CreatedAt), encodeTime(user.UpdatedAt),
			); err != nil {
				return mapError(err)
			}
		}
		return nil
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (persistence.User, error) {
	var (
		user      persistence.User
		role      string
		createdAt string
		updatedAt string
	)
	if err := row.Scan(&user.Login, &user.Name, &user.PasswordHash, &role, &user.Blocked, &createdAt, &updatedAt); err != nil {
		return persistence.User{}, mapError(err)
	}
	user.Role = persistence.Role(role)

	var err error
	if user.CreatedAt, err = decodeTime(createdAt); err != nil {
		return persistence.User{}, err
	}
	if user.UpdatedAt, err = decodeTime(updatedAt); err != nil {
		return persistence.User{}, err
	}
	return user, nil
}
