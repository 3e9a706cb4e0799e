package pixel

import (
	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/alleybloom/live/internal/adapters/ws"
	"github.com/alleybloom/live/internal/core"
)

func (ctl *Controller) dispatch(sid core.SessionID, conn *ws.Conn, data core.Frame) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "pixel").Msg("bad json")
		return
	}

	switch env.Type {
	case "streamerConnect":
		ctl.Relay.RegisterStreamer(sid, conn)
	case "playerConnect":
		ctl.Relay.RegisterPlayer(sid, conn)
	case "offer":
		ctl.handleOffer(sid, data)
	case "answer":
		ctl.Relay.ForwardAnswer(sid, data)
	case "iceCandidate":
		ctl.handleICECandidate(sid, data)
	default:
		log.Warn().Str("module", "pixel").Str("type", env.Type).Msg("unknown signal")
	}
}

func (ctl *Controller) sendJSON(conn *ws.Conn, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "pixel").Msg("sendJSON marshal")
		return
	}
	_ = conn.TrySend(core.Frame(b))
}
