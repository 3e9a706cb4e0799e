package httpapi

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/alleybloom/live/internal/app"
)

type statusHandler struct {
	relay *app.Relay
	port  int
}

func (s *statusHandler) status(c *gin.Context) {
	streamers, players := s.relay.Counts()
	state := "waiting_for_streamer"
	if streamers > 0 {
		state = "ready"
	}
	c.JSON(http.StatusOK, gin.H{
		"streamers_connected": streamers,
		"players_connected":   players,
		"server_url":          fmt.Sprintf("ws://localhost:%d/ws/pixelstreaming", s.port),
		"status":              state,
	})
}
