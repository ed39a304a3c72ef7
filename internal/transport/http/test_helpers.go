package http

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/courtlive/courtroom-server/internal/auth"
	"github.com/courtlive/courtroom-server/internal/config"
	"github.com/courtlive/courtroom-server/internal/core"
	"github.com/courtlive/courtroom-server/internal/store"
	"github.com/courtlive/courtroom-server/internal/store/sqlite"
)

// createTestStore creates an in-memory SQLite store with the schema applied.
func createTestStore(t *testing.T) store.Store {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

// createTestAuthService creates an auth service for testing.
func createTestAuthService(t *testing.T, st store.Store, jwtSecret string) *auth.Service {
	t.Helper()

	jwtConfig := &auth.JWTConfig{
		Secret:   []byte(jwtSecret),
		Issuer:   "test",
		Audience: "test",
		TTL:      24 * time.Hour,
	}

	return auth.NewService(st, jwtConfig)
}

// startTestServer wires a hub, store and auth service behind an httptest
// server with all routes registered.
func startTestServer(t *testing.T) (*httptest.Server, store.Store, *auth.Service) {
	t.Helper()

	st := createTestStore(t)
	authService := createTestAuthService(t, st, "test-secret")

	hub := core.NewHub(st, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	disabledLogger := zerolog.New(nil)
	cfg := config.Config{
		Addr:              ":0",
		ReadHeaderTimeout: time.Second,
		ShutdownTimeout:   time.Second,
	}

	server := NewServer(hub, st, authService, cfg, &disabledLogger)
	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	return ts, st, authService
}
