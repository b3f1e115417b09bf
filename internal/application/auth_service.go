package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/example/roomreserve/internal/persistence"
)

// PasswordVerifier compares a stored hash with a candidate password.
type PasswordVerifier func(hashedPassword, password string) error

// AuthService resolves login/password pairs to accounts. Blocking does not
// prevent authentication: a blocked user may still sign in to review or
// cancel existing reservations, only new bookings are refused.
type AuthService struct {
	users          persistence.UserRepository
	verifyPassword PasswordVerifier
	logger         *slog.Logger
}

// NewAuthService constructs an AuthService with the provided dependencies.
func NewAuthService(users persistence.UserRepository, verify PasswordVerifier) *AuthService {
	return NewAuthServiceWithLogger(users, verify, nil)
}

// NewAuthServiceWithLogger constructs an AuthService with a specified logger.
func NewAuthServiceWithLogger(users persistence.UserRepository, verify PasswordVerifier, logger *slog.Logger) *AuthService {
	if verify == nil {
		verify = VerifyPassword
	}
	return &AuthService{users: users, verifyPassword: verify, logger: defaultLogger(logger)}
}

func (s *AuthService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AuthService", operation, attrs...)
}

// Authenticate validates the credentials and returns the matching account.
// Unknown logins and wrong passwords are indistinguishable to the caller.
func (s *AuthService) Authenticate(ctx context.Context, login, password string) (user persistence.User, err error) {
	if s == nil {
		err = fmt.Errorf("AuthService is nil")
		return
	}

	login = strings.TrimSpace(login)

	logger := s.loggerWith(ctx, "Authenticate", "login", login)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "authentication failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "authentication succeeded")
	}()

	if login == "" || password == "" {
		err = ErrInvalidCredentials
		return
	}

	user, err = s.users.GetUserByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			err = ErrInvalidCredentials
		}
		return
	}

	if err = s.verifyPassword(user.PasswordHash, password); err != nil {
		user = persistence.User{}
		err = ErrInvalidCredentials
		return
	}

	return user, nil
}
