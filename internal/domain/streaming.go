package domain

import "time"

// StreamRole tags a pixel-streaming connection.
type StreamRole string

const (
	RoleStreamer StreamRole = "streamer"
	RolePlayer   StreamRole = "player"
)

// RoomCode maps a short shareable code to its creator's network address.
// Codes never expire; they live until deleted or the process restarts.
type RoomCode struct {
	Code        string    `json:"code"`
	Address     string    `json:"address"`
	CreatorAddr string    `json:"-"`
	CreatedAt   time.Time `json:"createdAt"`
}
