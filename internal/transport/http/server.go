// Package http exposes the websocket session endpoint and the REST surface
// around it: auth, the lobby, persisted history and bot battle control.
package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/courtlive/courtroom-server/internal/auth"
	"github.com/courtlive/courtroom-server/internal/config"
	"github.com/courtlive/courtroom-server/internal/core"
	"github.com/courtlive/courtroom-server/internal/store"
)

// NewServer builds the HTTP server with all routes wired.
func NewServer(hub *core.Hub, st store.Store, authService *auth.Service, cfg config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware(logger))

	router.GET("/health", healthHandler)
	router.GET("/ws", gin.WrapH(NewWSHandler(hub, logger)))

	apiHandlers := NewAPIHandlers(authService, logger)
	roomHandlers := NewRoomHandlers(hub, st, logger)
	userHandlers := NewUserHandlers(st, logger)

	api := router.Group("/api")
	{
		api.POST("/register", apiHandlers.Register)
		api.POST("/login", apiHandlers.Login)
		api.POST("/guest", apiHandlers.GuestLogin)

		api.GET("/rooms/open", roomHandlers.ListOpenRooms)
		api.GET("/rooms/:id/history", roomHandlers.RoomHistory)

		authed := api.Group("")
		authed.Use(AuthMiddleware(authService, logger))
		{
			authed.GET("/me", userHandlers.Me)
			authed.POST("/battle/:room/start", roomHandlers.StartBattle)
			authed.POST("/battle/:room/feed", roomHandlers.FeedBattle)
			authed.POST("/battle/:room/end", roomHandlers.EndBattle)
		}
	}

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
