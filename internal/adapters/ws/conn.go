// Package ws wraps a gorilla websocket in the buffered-send connection
// shape both live surfaces share: a write pump draining a bounded channel
// and a read pump feeding an event dispatcher.
package ws

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/alleybloom/live/internal/core"
)

var ErrBackpressure = errors.New("backpressure")

const writeWait = 5 * time.Second

type Conn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func NewConn(conn *websocket.Conn, sendBuffer int) *Conn {
	return &Conn{
		conn: conn,
		send: make(chan core.Frame, sendBuffer),
	}
}

// TrySend queues a frame without blocking. A full buffer means the peer
// is not keeping up; the frame is dropped and the caller decides what the
// drop means.
func (c *Conn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *Conn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

// WritePump drains the send channel onto the wire and keeps the
// connection alive with periodic pings.
func (c *Conn) WritePump(ctx context.Context, pingPeriod time.Duration) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "adapters.ws").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "adapters.ws").Msg("writePump write error")
				return
			}
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ReadPump reads frames until the transport errors and hands each one to
// the handler. It returns when the peer is gone; the caller owns cleanup.
func (c *Conn) ReadPump(ctx context.Context, readLimit int64, handler func(core.Frame)) {
	if readLimit > 0 {
		c.conn.SetReadLimit(readLimit)
	}
	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.Debug().Err(err).Str("module", "adapters.ws").Msg("readPump read error")
				}
				return
			}
			handler(core.Frame(data))
		}
	}
}
