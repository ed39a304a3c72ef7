package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/courtlive/courtroom-server/internal/store/sqlite"
)

func newTestAuthService(t *testing.T) *Service {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	jwtConfig := &JWTConfig{
		Secret:   []byte("test-secret-change-me"),
		Issuer:   "test",
		Audience: "test",
		TTL:      24 * time.Hour,
	}

	return NewService(st, jwtConfig)
}

func TestRegister_RejectsInvalidUsername(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "ab", "password123"); !errors.Is(err, ErrInvalidUsername) {
		t.Fatalf("expected ErrInvalidUsername, got %v", err)
	}

	// Should be validated after trimming whitespace.
	if _, err := svc.Register(ctx, " ab ", "password123"); !errors.Is(err, ErrInvalidUsername) {
		t.Fatalf("expected ErrInvalidUsername, got %v", err)
	}
}

func TestRegister_RejectsInvalidPassword(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "abc", "12345"); !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("expected ErrInvalidPassword, got %v", err)
	}
}

func TestRegister_TrimsUsernameAndCreatesUser(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	token, err := svc.Register(ctx, " alice ", "password123")
	if err != nil {
		t.Fatalf("expected registration success, got %v", err)
	}
	if token == "" {
		t.Fatalf("expected non-empty token")
	}

	// Should collide because the stored username is trimmed.
	if _, err := svc.Register(ctx, "alice", "password123"); !errors.Is(err, ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestCreateGuestUser(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	token, sessionID, err := svc.CreateGuestUser(ctx, " phoenix ")
	if err != nil {
		t.Fatalf("create guest: %v", err)
	}
	if sessionID == "" {
		t.Fatal("expected a session id")
	}

	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("validate guest token: %v", err)
	}
	if !claims.IsGuest || claims.Username != "phoenix" {
		t.Fatalf("unexpected guest claims: %+v", claims)
	}

	// Guests are ephemeral, so the same display name may be reused.
	if _, _, err := svc.CreateGuestUser(ctx, "phoenix"); err != nil {
		t.Fatalf("second guest with same name: %v", err)
	}
}

func TestCreateGuestUser_GeneratesName(t *testing.T) {
	svc := newTestAuthService(t)

	token, sessionID, err := svc.CreateGuestUser(context.Background(), "  ")
	if err != nil {
		t.Fatalf("create guest: %v", err)
	}

	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("validate guest token: %v", err)
	}
	if claims.Username != "guest-"+sessionID[:8] {
		t.Fatalf("expected generated name, got %q", claims.Username)
	}
}

func TestLogin(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "alice", "password123"); err != nil {
		t.Fatalf("register: %v", err)
	}

	token, err := svc.Login(ctx, "alice", "password123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("validate token: %v", err)
	}
	if claims.Username != "alice" || claims.IsGuest {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	if _, err := svc.Login(ctx, "alice", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login(ctx, "nobody", "password123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}
