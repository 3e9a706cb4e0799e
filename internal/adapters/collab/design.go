package collab

import (
	"errors"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/alleybloom/live/internal/adapters/ws"
	"github.com/alleybloom/live/internal/core"
	"github.com/alleybloom/live/internal/domain"
)

type itemPayload struct {
	Type    string            `json:"type"`
	AlleyID string            `json:"alley_id"`
	Item    domain.DesignItem `json:"item"`
}

func (ctl *Controller) handleAddItem(sid core.SessionID, conn *ws.Conn, data core.Frame) {
	var p itemPayload
	if err := json.Unmarshal(data, &p); err != nil || p.AlleyID == "" {
		log.Error().Err(err).Str("module", "collab").Msg("bad add_item payload")
		ctl.sendError(conn, "bad_payload")
		return
	}
	if _, ok := p.Item.Key(); !ok {
		ctl.sendError(conn, "item_missing_id")
		return
	}

	if err := ctl.Hub.AddItem(sid, domain.AlleyID(p.AlleyID), p.Item); err != nil {
		switch {
		case errors.Is(err, core.ErrItemLimit):
			ctl.sendError(conn, "item_limit_reached")
		case errors.Is(err, core.ErrAlleyLimit):
			ctl.sendError(conn, "alley_limit_reached")
		default:
			log.Error().Err(err).Str("module", "collab").Str("sid", string(sid)).Msg("add_item failed")
		}
	}
}

func (ctl *Controller) handleUpdateItem(sid core.SessionID, conn *ws.Conn, data core.Frame) {
	var p itemPayload
	if err := json.Unmarshal(data, &p); err != nil || p.AlleyID == "" {
		log.Error().Err(err).Str("module", "collab").Msg("bad update_item payload")
		ctl.sendError(conn, "bad_payload")
		return
	}
	if _, ok := p.Item.Key(); !ok {
		ctl.sendError(conn, "item_missing_id")
		return
	}
	// Unknown ids fall through as a silent no-op inside the hub.
	ctl.Hub.UpdateItem(sid, domain.AlleyID(p.AlleyID), p.Item)
}

func (ctl *Controller) handleRemoveItem(sid core.SessionID, conn *ws.Conn, data core.Frame) {
	var p struct {
		Type    string `json:"type"`
		AlleyID string `json:"alley_id"`
		ItemID  any    `json:"item_id"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.AlleyID == "" {
		log.Error().Err(err).Str("module", "collab").Msg("bad remove_item payload")
		ctl.sendError(conn, "bad_payload")
		return
	}
	itemID, ok := domain.NormalizeID(p.ItemID)
	if !ok {
		ctl.sendError(conn, "item_missing_id")
		return
	}
	ctl.Hub.RemoveItem(sid, domain.AlleyID(p.AlleyID), itemID)
}

func (ctl *Controller) handleClearDesign(sid core.SessionID, conn *ws.Conn, data core.Frame) {
	var p alleyPayload
	if err := json.Unmarshal(data, &p); err != nil || p.AlleyID == "" {
		log.Error().Err(err).Str("module", "collab").Msg("bad clear_design payload")
		ctl.sendError(conn, "bad_payload")
		return
	}
	ctl.Hub.ClearDesign(sid, domain.AlleyID(p.AlleyID))
}
