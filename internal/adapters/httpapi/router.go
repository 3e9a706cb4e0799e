// Package httpapi wires the gin router: the two websocket surfaces, the
// room-code REST API, and the pixel-streaming status endpoint.
package httpapi

import (
	"context"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/alleybloom/live/internal/adapters/collab"
	"github.com/alleybloom/live/internal/adapters/pixel"
	"github.com/alleybloom/live/internal/app"
	"github.com/alleybloom/live/internal/config"
)

type Deps struct {
	Registry  *app.Registry
	Hub       *app.Hub
	Relay     *app.Relay
	Directory *app.Directory
}

func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie("ct")
		if token == "" {
			token = uuid.NewString()
			c.SetCookie("ct", token, 3600*24*7, "/", "", false, true)
		}
		c.Set("client_token", token)
		c.Next()
	}
}

func SetupRouter(ctx context.Context, cfg *config.Config, deps *Deps) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("AlleyBloomSessions", store))
	r.Use(ClientTokenMiddleware())

	collabCtl := collab.NewController(deps.Hub, deps.Registry, cfg)
	pixelCtl := pixel.NewController(deps.Relay, deps.Registry, cfg)

	r.GET("/ws/collab", func(c *gin.Context) {
		collabCtl.Handle(ctx, c)
	})
	r.GET("/ws/pixelstreaming", func(c *gin.Context) {
		pixelCtl.Handle(ctx, c)
	})

	h := &roomHandlers{directory: deps.Directory}
	s := &statusHandler{relay: deps.Relay, port: cfg.Port}

	api := r.Group("/api")
	api.POST("/rooms", h.create)
	api.GET("/rooms", h.list)
	api.GET("/rooms/:code", h.get)
	api.DELETE("/rooms/:code", h.delete)
	api.GET("/pixel-streaming/status", s.status)

	log.Info().Str("module", "adapters.httpapi").Msg("router setup")
	return r
}
