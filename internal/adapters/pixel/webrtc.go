package pixel

import (
	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/alleybloom/live/internal/core"
)

// Handshake payloads are opaque; the server only reads the routing fields
// and forwards the inbound frame as-is.

func (ctl *Controller) handleOffer(sid core.SessionID, data core.Frame) {
	var p struct {
		Type     string `json:"type"`
		PlayerID string `json:"playerId"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "pixel").Msg("bad offer payload")
		return
	}
	ctl.Relay.ForwardOffer(sid, data, p.PlayerID)
}

func (ctl *Controller) handleICECandidate(sid core.SessionID, data core.Frame) {
	var p struct {
		Type       string `json:"type"`
		PlayerID   string `json:"playerId"`
		StreamerID string `json:"streamerId"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "pixel").Msg("bad iceCandidate payload")
		return
	}
	target := p.PlayerID
	if target == "" {
		target = p.StreamerID
	}
	ctl.Relay.ForwardICE(sid, data, target)
}
