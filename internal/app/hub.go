package app

import (
	"sync"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/alleybloom/live/internal/core"
	"github.com/alleybloom/live/internal/domain"
)

const (
	joinedMessage = "A resident joined the design space"
	leftMessage   = "A resident left the design space"
)

// Hub routes collaboration events: it mutates the alley's design state and
// fans the result out to the right member set. The sender never receives
// its own mutation echoed back; it already applied the change locally.
//
// A per-alley mutex is held across mutate plus fan-out, so within one
// alley events are applied and delivered in the order the hub took them.
// There is no cross-alley ordering and no delivery guarantee: sends are
// fire-and-forget and backpressure drops are only logged.
type Hub struct {
	registry *Registry
	designs  *core.DesignStore

	mu    sync.Mutex
	locks map[domain.AlleyID]*sync.Mutex
}

func NewHub(registry *Registry, designs *core.DesignStore) *Hub {
	return &Hub{
		registry: registry,
		designs:  designs,
		locks:    make(map[domain.AlleyID]*sync.Mutex),
	}
}

func (h *Hub) alleyLock(alley domain.AlleyID) *sync.Mutex {
	h.mu.Lock()
	defer h.mu.Unlock()
	l, ok := h.locks[alley]
	if !ok {
		l = &sync.Mutex{}
		h.locks[alley] = l
	}
	return l
}

// Join puts the connection into the alley, replies with the full current
// design to the sender alone, and tells everyone already there.
func (h *Hub) Join(sid core.SessionID, alley domain.AlleyID) error {
	l := h.alleyLock(alley)
	l.Lock()
	defer l.Unlock()

	design, err := h.designs.GetOrCreate(alley)
	if err != nil {
		return err
	}
	h.registry.SetAlley(sid, alley)

	if conn, ok := h.registry.Lookup(sid); ok {
		h.send(conn, struct {
			Type  string              `json:"type"`
			Items []domain.DesignItem `json:"items"`
		}{"load_design", design.Snapshot()})
	}

	h.fanout(alley, sid, struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	}{"user_joined", joinedMessage})

	log.Info().Str("module", "app.hub").Str("sid", string(sid)).Str("alley", string(alley)).Msg("joined alley")
	return nil
}

// Leave removes the connection from the alley and tells the remaining
// members. The design itself stays; alleys outlive their sessions.
func (h *Hub) Leave(sid core.SessionID, alley domain.AlleyID) {
	l := h.alleyLock(alley)
	l.Lock()
	defer l.Unlock()

	if current, ok := h.registry.AlleyOf(sid); !ok || current != alley {
		return
	}
	h.registry.ClearAlley(sid)

	h.fanout(alley, sid, struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	}{"user_left", leftMessage})

	log.Info().Str("module", "app.hub").Str("sid", string(sid)).Str("alley", string(alley)).Msg("left alley")
}

// AddItem appends the item and fans item_added out to everyone else.
func (h *Hub) AddItem(sid core.SessionID, alley domain.AlleyID, item domain.DesignItem) error {
	l := h.alleyLock(alley)
	l.Lock()
	defer l.Unlock()

	design, err := h.designs.GetOrCreate(alley)
	if err != nil {
		return err
	}
	if err := design.Append(item); err != nil {
		return err
	}

	h.fanout(alley, sid, struct {
		Type string            `json:"type"`
		Item domain.DesignItem `json:"item"`
	}{"item_added", item})
	return nil
}

// UpdateItem replaces the first item with a matching id. An unknown id is
// a strict no-op: no state change and no outbound event.
func (h *Hub) UpdateItem(sid core.SessionID, alley domain.AlleyID, item domain.DesignItem) {
	l := h.alleyLock(alley)
	l.Lock()
	defer l.Unlock()

	design, ok := h.designs.Get(alley)
	if !ok || !design.Replace(item) {
		return
	}

	h.fanout(alley, sid, struct {
		Type string            `json:"type"`
		Item domain.DesignItem `json:"item"`
	}{"item_updated", item})
}

// RemoveItem drops every item with the id. The fan-out is unconditional;
// removing an absent id still emits item_removed, so the call is
// idempotent from the members' point of view.
func (h *Hub) RemoveItem(sid core.SessionID, alley domain.AlleyID, itemID string) {
	l := h.alleyLock(alley)
	l.Lock()
	defer l.Unlock()

	if design, ok := h.designs.Get(alley); ok {
		design.Remove(itemID)
	}

	h.fanout(alley, sid, struct {
		Type   string `json:"type"`
		ItemID string `json:"item_id"`
	}{"item_removed", itemID})
}

// ClearDesign empties the alley's item list.
func (h *Hub) ClearDesign(sid core.SessionID, alley domain.AlleyID) {
	l := h.alleyLock(alley)
	l.Lock()
	defer l.Unlock()

	if design, ok := h.designs.Get(alley); ok {
		design.Clear()
	}

	h.fanout(alley, sid, struct {
		Type string `json:"type"`
	}{"design_cleared"})
}

// HandleDisconnect is the registry hook: a vanished connection leaves its
// alley like an explicit leave_alley would.
func (h *Hub) HandleDisconnect(conn *Connection) {
	if conn.Alley == "" {
		return
	}
	l := h.alleyLock(conn.Alley)
	l.Lock()
	defer l.Unlock()

	h.fanout(conn.Alley, conn.SID, struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	}{"user_left", leftMessage})
}

func (h *Hub) fanout(alley domain.AlleyID, except core.SessionID, v any) {
	frame, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "app.hub").Msg("fanout marshal")
		return
	}
	sent, dropped := 0, 0
	for _, conn := range h.registry.MembersOf(alley) {
		if conn.SID == except {
			continue
		}
		if err := conn.Sender.TrySend(core.Frame(frame)); err != nil {
			dropped++
			continue
		}
		sent++
	}
	log.Debug().Str("module", "app.hub").Str("alley", string(alley)).Int("sent_to", sent).Int("dropped", dropped).Msg("fanout result")
}

func (h *Hub) send(conn *Connection, v any) {
	frame, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "app.hub").Msg("send marshal")
		return
	}
	if err := conn.Sender.TrySend(core.Frame(frame)); err != nil {
		log.Warn().Err(err).Str("module", "app.hub").Str("sid", string(conn.SID)).Msg("send dropped")
	}
}
