package collab

import (
	"errors"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/alleybloom/live/internal/adapters/ws"
	"github.com/alleybloom/live/internal/core"
	"github.com/alleybloom/live/internal/domain"
)

type alleyPayload struct {
	Type    string `json:"type"`
	AlleyID string `json:"alley_id"`
}

func (ctl *Controller) handleJoin(sid core.SessionID, conn *ws.Conn, data core.Frame) {
	var p alleyPayload
	if err := json.Unmarshal(data, &p); err != nil || p.AlleyID == "" {
		log.Error().Err(err).Str("module", "collab").Msg("bad join payload")
		ctl.sendError(conn, "bad_payload")
		return
	}

	if err := ctl.Hub.Join(sid, domain.AlleyID(p.AlleyID)); err != nil {
		if errors.Is(err, core.ErrAlleyLimit) {
			ctl.sendError(conn, "alley_limit_reached")
			return
		}
		log.Error().Err(err).Str("module", "collab").Str("sid", string(sid)).Msg("join failed")
	}
}

func (ctl *Controller) handleLeave(sid core.SessionID, conn *ws.Conn, data core.Frame) {
	var p alleyPayload
	if err := json.Unmarshal(data, &p); err != nil || p.AlleyID == "" {
		log.Error().Err(err).Str("module", "collab").Msg("bad leave payload")
		ctl.sendError(conn, "bad_payload")
		return
	}
	ctl.Hub.Leave(sid, domain.AlleyID(p.AlleyID))
}
