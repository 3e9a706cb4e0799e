package app

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/alleybloom/live/internal/core"
	"github.com/alleybloom/live/internal/domain"
)

// Connection is one live duplex channel. A connection belongs to at most
// one alley at a time; pixel-streaming roles live in the relay instead.
type Connection struct {
	SID       core.SessionID
	Sender    core.Sender
	Alley     domain.AlleyID
	CreatedAt time.Time
}

// Registry owns all live connections. Components holding per-connection
// state register a deregister hook so a disconnect never leaves a
// dangling membership entry behind.
type Registry struct {
	mu    sync.RWMutex
	conns map[core.SessionID]*Connection
	hooks []func(*Connection)
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[core.SessionID]*Connection)}
}

// OnDeregister adds a cleanup hook. Hooks must be registered before the
// registry starts serving connections; they run outside the registry lock.
func (r *Registry) OnDeregister(fn func(*Connection)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks = append(r.hooks, fn)
}

func (r *Registry) Register(sid core.SessionID, sender core.Sender) *Connection {
	conn := &Connection{SID: sid, Sender: sender, CreatedAt: time.Now()}
	r.mu.Lock()
	r.conns[sid] = conn
	r.mu.Unlock()
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("registered connection")
	return conn
}

func (r *Registry) Deregister(sid core.SessionID) {
	r.mu.Lock()
	conn, ok := r.conns[sid]
	if ok {
		delete(r.conns, sid)
	}
	hooks := r.hooks
	r.mu.Unlock()
	if !ok {
		return
	}
	for _, fn := range hooks {
		fn(conn)
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("deregistered connection")
}

func (r *Registry) Lookup(sid core.SessionID) (*Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.conns[sid]
	return conn, ok
}

// SetAlley records the connection's current alley. Reports false when the
// connection is unknown, which callers treat as a no-op signal.
func (r *Registry) SetAlley(sid core.SessionID, alley domain.AlleyID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	conn, ok := r.conns[sid]
	if !ok {
		return false
	}
	conn.Alley = alley
	return true
}

func (r *Registry) ClearAlley(sid core.SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if conn, ok := r.conns[sid]; ok {
		conn.Alley = ""
	}
}

func (r *Registry) AlleyOf(sid core.SessionID) (domain.AlleyID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.conns[sid]
	if !ok || conn.Alley == "" {
		return "", false
	}
	return conn.Alley, true
}

// MembersOf snapshots the connections currently in the given alley.
func (r *Registry) MembersOf(alley domain.AlleyID) []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Connection, 0, len(r.conns))
	for _, conn := range r.conns {
		if conn.Alley == alley {
			out = append(out, conn)
		}
	}
	return out
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
