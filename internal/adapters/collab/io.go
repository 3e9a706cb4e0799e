package collab

import (
	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/alleybloom/live/internal/adapters/ws"
	"github.com/alleybloom/live/internal/core"
)

func (ctl *Controller) dispatch(sid core.SessionID, conn *ws.Conn, data core.Frame) {
	if ctl.limiter != nil && !ctl.limiter.Allow(sid) {
		log.Warn().Str("module", "collab").Str("sid", string(sid)).Msg("event rate limit exceeded, dropping")
		return
	}

	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "collab").Msg("bad json")
		return
	}

	switch env.Type {
	case "join_alley":
		ctl.handleJoin(sid, conn, data)
	case "leave_alley":
		ctl.handleLeave(sid, conn, data)
	case "add_item":
		ctl.handleAddItem(sid, conn, data)
	case "update_item":
		ctl.handleUpdateItem(sid, conn, data)
	case "remove_item":
		ctl.handleRemoveItem(sid, conn, data)
	case "clear_design":
		ctl.handleClearDesign(sid, conn, data)
	default:
		log.Warn().Str("module", "collab").Str("type", env.Type).Msg("unknown event")
	}
}

func (ctl *Controller) sendJSON(conn *ws.Conn, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "collab").Msg("sendJSON marshal")
		return
	}
	_ = conn.TrySend(core.Frame(b))
}

func (ctl *Controller) sendError(conn *ws.Conn, msg string) {
	ctl.sendJSON(conn, map[string]any{
		"type":  "error",
		"error": msg,
	})
}
