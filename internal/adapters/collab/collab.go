// Package collab is the websocket surface of the co-design space: one
// connection per client, JSON envelope events routed into the hub.
package collab

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/alleybloom/live/internal/adapters/ws"
	"github.com/alleybloom/live/internal/app"
	"github.com/alleybloom/live/internal/config"
	"github.com/alleybloom/live/internal/core"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type Controller struct {
	Hub      *app.Hub
	Registry *app.Registry

	limiter    *RateLimiter
	readLimit  int64
	pingPeriod time.Duration
	sendBuffer int
}

func NewController(hub *app.Hub, registry *app.Registry, cfg *config.Config) *Controller {
	ctl := &Controller{
		Hub:        hub,
		Registry:   registry,
		readLimit:  cfg.ReadLimit,
		pingPeriod: cfg.PingPeriod,
		sendBuffer: cfg.SendBuffer,
	}
	if cfg.EventRateLimit > 0 {
		ctl.limiter = NewRateLimiter(cfg.EventRateLimit, cfg.EventRateWindow)
	}
	return ctl
}

func (ctl *Controller) Handle(ctx context.Context, c *gin.Context) {
	sid := core.SessionID(uuid.NewString())

	raw, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "collab").Msg("ws upgrade")
		return
	}
	log.Info().Str("module", "collab").Str("sid", string(sid)).Msg("new WS connection")

	conn := ws.NewConn(raw, ctl.sendBuffer)
	ctl.Registry.Register(sid, conn)

	ctl.sendJSON(conn, struct {
		Type string `json:"type"`
		Data string `json:"data"`
	}{"connection_response", "Connected to co-design space"})

	ctx, cancel := context.WithCancel(ctx)
	go conn.WritePump(ctx, ctl.pingPeriod)
	go func() {
		conn.ReadPump(ctx, ctl.readLimit, func(f core.Frame) {
			ctl.dispatch(sid, conn, f)
		})
		ctl.Registry.Deregister(sid)
		if ctl.limiter != nil {
			ctl.limiter.Forget(sid)
		}
		cancel()
		conn.Close()
		log.Info().Str("module", "collab").Str("sid", string(sid)).Msg("connection closed")
	}()
}
