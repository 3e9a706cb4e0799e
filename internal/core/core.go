// Package core holds the transport-agnostic contracts shared between the
// app layer and the connection adapters.
package core

// SessionID identifies one live duplex connection.
type SessionID string

// Frame is an encoded outbound message.
type Frame []byte

// Sender is the outbound half of a connection. TrySend must never block;
// it fails instead when the peer cannot keep up.
type Sender interface {
	TrySend(Frame) error
	Close()
}
