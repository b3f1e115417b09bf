package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/roomreserve/internal/persistence"
)

// PasswordHasher derives the stored hash for a plaintext password.
type PasswordHasher func(password string) (string, error)

// UserService orchestrates account registration and user administration.
type UserService struct {
	users        persistence.UserRepository
	hashPassword PasswordHasher
	now          func() time.Time
	logger       *slog.Logger
}

// NewUserService wires dependencies for the user service.
func NewUserService(users persistence.UserRepository, hashPassword PasswordHasher, now func() time.Time) *UserService {
	return NewUserServiceWithLogger(users, hashPassword, now, nil)
}

// NewUserServiceWithLogger constructs a user service with a specified logger.
func NewUserServiceWithLogger(users persistence.UserRepository, hashPassword PasswordHasher, now func() time.Time, logger *slog.Logger) *UserService {
	if hashPassword == nil {
		hashPassword = HashPassword
	}
	if now == nil {
		now = time.Now
	}
	return &UserService{users: users, hashPassword: hashPassword, now: now, logger: defaultLogger(logger)}
}

func (s *UserService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "UserService", operation, attrs...)
}

// Register validates the input and persists a new account. Registration is
// open: no principal is required, and the role defaults to the ordinary user
// role.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (user persistence.User, err error) {
	if s == nil {
		err = fmt.Errorf("UserService is nil")
		return
	}

	logger := s.loggerWith(ctx, "Register", "login", input.Login)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to register user", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "user registered")
	}()

	normalized := normalizeRegisterInput(input)
	vErr := validateRegisterInput(normalized)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	if _, lookupErr := s.users.GetUserByLogin(ctx, normalized.Login); lookupErr == nil {
		vErr := &ValidationError{}
		vErr.add("login", "already in use")
		err = vErr
		return
	} else if !errors.Is(lookupErr, persistence.ErrNotFound) {
		err = lookupErr
		return
	}

	var hash string
	hash, err = s.hashPassword(normalized.Password)
	if err != nil {
		return
	}

	createdAt := s.now()
	user, err = s.users.CreateUser(ctx, persistence.User{
		Login:        normalized.Login,
		Name:         normalized.Name,
		PasswordHash: hash,
		Role:         normalized.Role,
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	})
	if err != nil {
		err = mapStoreError(err)
		return
	}

	return user, nil
}

// Block marks the target account as blocked, preventing new bookings.
// Administrators only; an admin cannot block their own account.
func (s *UserService) Block(ctx context.Context, principal Principal, targetLogin string) (err error) {
	if s == nil {
		return fmt.Errorf("UserService is nil")
	}

	logger := s.loggerWith(ctx, "Block",
		"principal", principal.Login,
		"target", targetLogin,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to block user", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "user blocked")
	}()

	if !principal.IsAdmin {
		err = ErrUnauthorized
		return
	}
	if principal.Login == targetLogin {
		vErr := &ValidationError{}
		vErr.add("login", "cannot block own account")
		err = vErr
		return
	}

	var user persistence.User
	user, err = s.users.GetUserByLogin(ctx, targetLogin)
	if err != nil {
		err = mapStoreError(err)
		return
	}

	user.Blocked = true
	user.UpdatedAt = s.now()

	if _, err = s.users.UpdateUser(ctx, user); err != nil {
		err = mapStoreError(err)
		return
	}

	return nil
}

// List returns all accounts for administrators, ordered by login.
func (s *UserService) List(ctx context.Context, principal Principal) ([]persistence.User, error) {
	if s == nil {
		return nil, fmt.Errorf("UserService is nil")
	}
	if !principal.IsAdmin {
		return nil, ErrUnauthorized
	}

	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	return users, nil
}

func normalizeRegisterInput(input RegisterInput) RegisterInput {
	input.Name = strings.TrimSpace(input.Name)
	input.Login = strings.TrimSpace(input.Login)
	if input.Role == "" {
		input.Role = persistence.RoleUser
	}
	return input
}

func validateRegisterInput(input RegisterInput) *ValidationError {
	vErr := &ValidationError{}

	if input.Name == "" {
		vErr.add("name", "name is required")
	}
	if input.Login == "" {
		vErr.add("login", "login is required")
	}
	if input.Password == "" {
		vErr.add("password", "password is required")
	}
	if input.Role != persistence.RoleUser && input.Role != persistence.RoleAdmin {
		vErr.add("role", "role must be user or admin")
	}

	return vErr
}
