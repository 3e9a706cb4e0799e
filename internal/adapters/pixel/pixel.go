// Package pixel is the signaling surface for Unreal pixel streaming:
// streamers and players exchange WebRTC offers, answers, and ICE
// candidates through the relay; media itself flows peer to peer.
package pixel

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/alleybloom/live/internal/adapters/ws"
	"github.com/alleybloom/live/internal/app"
	"github.com/alleybloom/live/internal/config"
	"github.com/alleybloom/live/internal/core"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type peerConnectionOptions struct {
	ICEServers []webrtc.ICEServer `json:"iceServers"`
}

type Controller struct {
	Relay    *app.Relay
	Registry *app.Registry

	iceServers []webrtc.ICEServer
	readLimit  int64
	pingPeriod time.Duration
	sendBuffer int
}

func NewController(relay *app.Relay, registry *app.Registry, cfg *config.Config) *Controller {
	return &Controller{
		Relay:      relay,
		Registry:   registry,
		iceServers: []webrtc.ICEServer{{URLs: cfg.ICEServers}},
		readLimit:  cfg.ReadLimit,
		pingPeriod: cfg.PingPeriod,
		sendBuffer: cfg.SendBuffer,
	}
}

func (ctl *Controller) Handle(ctx context.Context, c *gin.Context) {
	sid := core.SessionID(uuid.NewString())

	raw, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "pixel").Msg("ws upgrade")
		return
	}
	log.Info().Str("module", "pixel").Str("sid", string(sid)).Msg("new signaling connection")

	conn := ws.NewConn(raw, ctl.sendBuffer)
	ctl.Registry.Register(sid, conn)

	// Peers need the ICE server list before they can build a peer
	// connection; send it first thing, as the config event.
	ctl.sendJSON(conn, struct {
		Type                  string                `json:"type"`
		PeerConnectionOptions peerConnectionOptions `json:"peerConnectionOptions"`
	}{"config", peerConnectionOptions{ICEServers: ctl.iceServers}})

	ctx, cancel := context.WithCancel(ctx)
	go conn.WritePump(ctx, ctl.pingPeriod)
	go func() {
		conn.ReadPump(ctx, ctl.readLimit, func(f core.Frame) {
			ctl.dispatch(sid, conn, f)
		})
		ctl.Registry.Deregister(sid)
		cancel()
		conn.Close()
		log.Info().Str("module", "pixel").Str("sid", string(sid)).Msg("signaling connection closed")
	}()
}
