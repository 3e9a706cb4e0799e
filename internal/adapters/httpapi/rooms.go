package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/alleybloom/live/internal/app"
	"github.com/alleybloom/live/internal/domain"
)

type roomHandlers struct {
	directory *app.Directory
}

type roomView struct {
	Code      string `json:"code"`
	Address   string `json:"address"`
	CreatedAt string `json:"createdAt"`
}

func viewOf(rc *domain.RoomCode) roomView {
	return roomView{
		Code:      rc.Code,
		Address:   rc.Address,
		CreatedAt: rc.CreatedAt.Format(time.RFC3339),
	}
}

func (h *roomHandlers) create(c *gin.Context) {
	rc, err := h.directory.Create(c.ClientIP())
	if err != nil {
		if errors.Is(err, app.ErrDirectoryFull) {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "room capacity reached"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":     rc.Code,
		"address":  rc.Address,
		"shareUrl": fmt.Sprintf("/digital-twin?room=%s", rc.Code),
	})
}

func (h *roomHandlers) get(c *gin.Context) {
	rc, ok := h.directory.Lookup(c.Param("code"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Room not found"})
		return
	}
	c.JSON(http.StatusOK, viewOf(rc))
}

func (h *roomHandlers) list(c *gin.Context) {
	live := h.directory.List()
	rooms := make([]roomView, 0, len(live))
	for _, rc := range live {
		rooms = append(rooms, viewOf(rc))
	}
	c.JSON(http.StatusOK, gin.H{"rooms": rooms})
}

func (h *roomHandlers) delete(c *gin.Context) {
	if !h.directory.Delete(c.Param("code")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Room not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
