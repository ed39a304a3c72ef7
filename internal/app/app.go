// Package app wires the store, session loop, auth and transport together.
package app

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/courtlive/courtroom-server/internal/ai"
	"github.com/courtlive/courtroom-server/internal/auth"
	"github.com/courtlive/courtroom-server/internal/config"
	"github.com/courtlive/courtroom-server/internal/core"
	"github.com/courtlive/courtroom-server/internal/store"
	"github.com/courtlive/courtroom-server/internal/store/sqlite"
	transporthttp "github.com/courtlive/courtroom-server/internal/transport/http"
)

// App wires together core and transport layers.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	hub             *core.Hub
	store           store.Store
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg config.Config, logger *zerolog.Logger) (*App, error) {
	st, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	logger.Info().Str("db_path", cfg.DatabasePath).Msg("database initialized")

	jwtConfig := &auth.JWTConfig{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      cfg.JWTTTL,
	}
	authService := auth.NewService(st, jwtConfig)

	// Without an API key the loop runs with generation disabled; rooms,
	// chat and replay keep working.
	var gen ai.Generator
	if cfg.AIAPIKey != "" {
		gen = ai.NewClient(ai.Config{
			APIKey:    cfg.AIAPIKey,
			BaseURL:   cfg.AIBaseURL,
			Model:     cfg.AIModel,
			MaxTokens: cfg.AIMaxTokens,
		})
	} else {
		logger.Warn().Msg("no AI api key configured, generation features disabled")
	}

	hub := core.NewHub(st, gen, logger)
	if cfg.ReplayDelay > 0 {
		hub.ReplayDelay = cfg.ReplayDelay
	}

	server := transporthttp.NewServer(hub, st, authService, cfg, logger)

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		hub:             hub,
		store:           st,
		log:             logger,
	}, nil
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go a.hub.Run(ctx)

	go func() {
		if err := a.server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		a.cleanup()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.cleanup()
			return err
		}

		a.cleanup()
		return <-serverErr
	}
}

// cleanup closes database and other resources.
func (a *App) cleanup() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
}
