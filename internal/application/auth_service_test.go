package application

import (
	"context"
	"errors"
	"testing"

	"github.com/example/roomreserve/internal/persistence"
	"github.com/example/roomreserve/internal/persistence/memory"
)

func stubVerifier(hashedPassword, password string) error {
	if hashedPassword == "hashed:"+password {
		return nil
	}
	return ErrInvalidCredentials
}

func TestAuthService_Authenticate_Succeeds(t *testing.T) {
	t.Parallel()

	store := memory.New()
	if _, err := store.CreateUser(context.Background(), persistence.User{
		Login:        "alice",
		Name:         "Alice",
		PasswordHash: "hashed:wonderland",
		Role:         persistence.RoleUser,
	}); err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	svc := NewAuthService(store, stubVerifier)

	user, err := svc.Authenticate(context.Background(), "alice", "wonderland")
	if err != nil {
		t.Fatalf("expected authentication to succeed, got %v", err)
	}
	if user.Login != "alice" {
		t.Fatalf("expected authenticated user, got %+v", user)
	}
}

func TestAuthService_Authenticate_RejectsWrongPassword(t *testing.T) {
	t.Parallel()

	store := memory.New()
	if _, err := store.CreateUser(context.Background(), persistence.User{
		Login:        "alice",
		PasswordHash: "hashed:wonderland",
		Role:         persistence.RoleUser,
	}); err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	svc := NewAuthService(store, stubVerifier)

	user, err := svc.Authenticate(context.Background(), "alice", "guess")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if user.Login != "" {
		t.Fatalf("expected no user data on failure, got %+v", user)
	}
}

func TestAuthService_Authenticate_UnknownLoginLooksLikeBadPassword(t *testing.T) {
	t.Parallel()

	svc := NewAuthService(memory.New(), stubVerifier)

	_, err := svc.Authenticate(context.Background(), "ghost", "whatever")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_Authenticate_RejectsEmptyCredentials(t *testing.T) {
	t.Parallel()

	svc := NewAuthService(memory.New(), stubVerifier)

	if _, err := svc.Authenticate(context.Background(), "", "secret"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for empty login, got %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), "alice", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for empty password, got %v", err)
	}
}

func TestAuthService_Authenticate_AllowsBlockedUsers(t *testing.T) {
	t.Parallel()

	store := memory.New()
	if _, err := store.CreateUser(context.Background(), persistence.User{
		Login:        "mallory",
		PasswordHash: "hashed:secret",
		Role:         persistence.RoleUser,
		Blocked:      true,
	}); err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	svc := NewAuthService(store, stubVerifier)

	user, err := svc.Authenticate(context.Background(), "mallory", "secret")
	if err != nil {
		t.Fatalf("expected blocked user to authenticate, got %v", err)
	}
	if !user.Blocked {
		t.Fatalf("expected blocked flag to survive authentication")
	}
}
