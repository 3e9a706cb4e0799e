package app

import (
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/alleybloom/live/internal/core"
	"github.com/alleybloom/live/internal/domain"
)

// streamClient is one pixel-streaming peer. The relay keeps its own sender
// reference; it never duplicates registry-owned data beyond that.
type streamClient struct {
	sid         core.SessionID
	sender      core.Sender
	role        domain.StreamRole
	connectedAt time.Time
}

// Relay brokers the WebRTC handshake between one video source (the
// streamer) and its viewers (players). It forwards inbound frames
// unchanged, only reading the playerId/streamerId routing fields; it never
// rejects a message, it only narrows or widens the delivery set.
//
// The design assumes a single active streamer. Extra streamers are stored
// independently and answers go to the earliest registered one; streamer
// registration order is kept so the tie-break is deterministic.
type Relay struct {
	mu            sync.RWMutex
	streamers     map[core.SessionID]*streamClient
	streamerOrder []core.SessionID
	players       map[core.SessionID]*streamClient
}

func NewRelay() *Relay {
	return &Relay{
		streamers: make(map[core.SessionID]*streamClient),
		players:   make(map[core.SessionID]*streamClient),
	}
}

// RegisterStreamer records the connection as a streamer and announces it
// to every currently registered player.
func (r *Relay) RegisterStreamer(sid core.SessionID, sender core.Sender) {
	r.mu.Lock()
	if _, ok := r.streamers[sid]; !ok {
		r.streamerOrder = append(r.streamerOrder, sid)
	}
	r.streamers[sid] = &streamClient{sid: sid, sender: sender, role: domain.RoleStreamer, connectedAt: time.Now()}
	players := r.playerSnapshot()
	r.mu.Unlock()

	log.Info().Str("module", "app.relay").Str("sid", string(sid)).Msg("streamer registered")
	frame := eventFrame("streamerConnected")
	for _, p := range players {
		trySend(p, frame)
	}
}

// RegisterPlayer records the connection as a player and tells it alone
// whether a streamer is already there.
func (r *Relay) RegisterPlayer(sid core.SessionID, sender core.Sender) {
	c := &streamClient{sid: sid, sender: sender, role: domain.RolePlayer, connectedAt: time.Now()}
	r.mu.Lock()
	r.players[sid] = c
	ready := len(r.streamers) > 0
	r.mu.Unlock()

	log.Info().Str("module", "app.relay").Str("sid", string(sid)).Bool("streamer_available", ready).Msg("player registered")
	if ready {
		trySend(c, eventFrame("streamerConnected"))
	} else {
		trySend(c, eventFrame("streamerDisconnected"))
	}
}

// ForwardOffer sends an offer to the targeted player, or to every player
// except the sender when no target is named. A target that is not a known
// player narrows the delivery set to nothing.
func (r *Relay) ForwardOffer(from core.SessionID, frame core.Frame, playerID string) {
	r.mu.RLock()
	var targets []*streamClient
	if playerID != "" {
		if p, ok := r.players[core.SessionID(playerID)]; ok {
			targets = []*streamClient{p}
		}
	} else {
		targets = r.playersExcept(from)
	}
	r.mu.RUnlock()

	for _, t := range targets {
		trySend(t, frame)
	}
}

// ForwardAnswer sends an answer to the first registered streamer. With no
// per-player binding recorded, extra streamers never receive answers.
func (r *Relay) ForwardAnswer(from core.SessionID, frame core.Frame) {
	r.mu.RLock()
	var target *streamClient
	if len(r.streamerOrder) > 0 {
		target = r.streamers[r.streamerOrder[0]]
	}
	r.mu.RUnlock()

	if target == nil {
		log.Warn().Str("module", "app.relay").Str("sid", string(from)).Msg("answer with no streamer")
		return
	}
	trySend(target, frame)
}

// ForwardICE routes a candidate to the explicit target when one is named,
// else to every peer of either role except the sender.
func (r *Relay) ForwardICE(from core.SessionID, frame core.Frame, target string) {
	r.mu.RLock()
	var targets []*streamClient
	if target != "" {
		if c, ok := r.players[core.SessionID(target)]; ok {
			targets = []*streamClient{c}
		} else if c, ok := r.streamers[core.SessionID(target)]; ok {
			targets = []*streamClient{c}
		}
	} else {
		targets = append(r.playersExcept(from), r.streamersExcept(from)...)
	}
	r.mu.RUnlock()

	for _, t := range targets {
		trySend(t, frame)
	}
}

// Drop removes the connection from whichever role map holds it. When the
// last streamer goes, every player hears streamerDisconnected; a leaving
// player is silent.
func (r *Relay) Drop(sid core.SessionID) {
	r.mu.Lock()
	var players []*streamClient
	if _, ok := r.streamers[sid]; ok {
		delete(r.streamers, sid)
		for i, s := range r.streamerOrder {
			if s == sid {
				r.streamerOrder = append(r.streamerOrder[:i], r.streamerOrder[i+1:]...)
				break
			}
		}
		if len(r.streamers) == 0 {
			players = r.playerSnapshot()
		}
		log.Info().Str("module", "app.relay").Str("sid", string(sid)).Msg("streamer dropped")
	}
	if _, ok := r.players[sid]; ok {
		delete(r.players, sid)
		log.Info().Str("module", "app.relay").Str("sid", string(sid)).Msg("player dropped")
	}
	r.mu.Unlock()

	if players != nil {
		frame := eventFrame("streamerDisconnected")
		for _, p := range players {
			trySend(p, frame)
		}
	}
}

// HandleDisconnect is the registry hook wired at startup.
func (r *Relay) HandleDisconnect(conn *Connection) {
	r.Drop(conn.SID)
}

// Counts reports live streamer and player totals for the status endpoint.
func (r *Relay) Counts() (streamers, players int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.streamers), len(r.players)
}

// Ready reports whether at least one streamer is registered.
func (r *Relay) Ready() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.streamers) > 0
}

// callers hold r.mu
func (r *Relay) playerSnapshot() []*streamClient {
	out := make([]*streamClient, 0, len(r.players))
	for _, p := range r.players {
		out = append(out, p)
	}
	return out
}

func (r *Relay) playersExcept(sid core.SessionID) []*streamClient {
	out := make([]*streamClient, 0, len(r.players))
	for _, p := range r.players {
		if p.sid != sid {
			out = append(out, p)
		}
	}
	return out
}

func (r *Relay) streamersExcept(sid core.SessionID) []*streamClient {
	out := make([]*streamClient, 0, len(r.streamers))
	for _, s := range r.streamers {
		if s.sid != sid {
			out = append(out, s)
		}
	}
	return out
}

func eventFrame(event string) core.Frame {
	frame, _ := json.Marshal(struct {
		Type string `json:"type"`
	}{event})
	return core.Frame(frame)
}

func trySend(c *streamClient, frame core.Frame) {
	if err := c.sender.TrySend(frame); err != nil {
		log.Debug().Err(err).Str("module", "app.relay").Str("sid", string(c.sid)).Msg("relay send dropped")
	}
}
