package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/assert/v2"
	"github.com/goccy/go-json"

	"github.com/alleybloom/live/internal/app"
	"github.com/alleybloom/live/internal/config"
	"github.com/alleybloom/live/internal/core"
)

func testConfig() *config.Config {
	return &config.Config{
		Mode:       "release",
		Port:       5000,
		ReadLimit:  32768,
		PingPeriod: 50 * time.Millisecond,
		Secret:     "test-secret",
		SendBuffer: 32,
		ICEServers: []string{"stun:stun.l.google.com:19302"},
	}
}

func testRouter(t *testing.T) (*gin.Engine, *Deps) {
	t.Helper()
	registry := app.NewRegistry()
	designs := core.NewDesignStore(0, 0)
	hub := app.NewHub(registry, designs)
	relay := app.NewRelay()
	directory := app.NewDirectory(0)
	registry.OnDeregister(hub.HandleDisconnect)
	registry.OnDeregister(relay.HandleDisconnect)

	deps := &Deps{Registry: registry, Hub: hub, Relay: relay, Directory: directory}
	return SetupRouter(context.Background(), testConfig(), deps), deps
}

func doJSON(t *testing.T, r *gin.Engine, method, path string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	req.RemoteAddr = "10.1.2.3:5555"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad response body %q: %v", w.Body.String(), err)
	}
	return w.Code, body
}

func TestRoomsCreateLookupDelete(t *testing.T) {
	r, _ := testRouter(t)

	codePattern := regexp.MustCompile(`^ALLEY-[A-Z0-9]{4}$`)

	status, first := doJSON(t, r, http.MethodPost, "/api/rooms")
	assert.Equal(t, status, http.StatusOK)
	code1 := first["code"].(string)
	assert.Equal(t, codePattern.MatchString(code1), true)
	assert.Equal(t, first["address"], "10.1.2.3")
	assert.Equal(t, first["shareUrl"], "/digital-twin?room="+code1)

	status, second := doJSON(t, r, http.MethodPost, "/api/rooms")
	assert.Equal(t, status, http.StatusOK)
	code2 := second["code"].(string)
	assert.NotEqual(t, code1, code2)

	status, got := doJSON(t, r, http.MethodGet, "/api/rooms/"+code1)
	assert.Equal(t, status, http.StatusOK)
	assert.Equal(t, got["code"], code1)
	assert.Equal(t, got["address"], "10.1.2.3")

	status, deleted := doJSON(t, r, http.MethodDelete, "/api/rooms/"+code1)
	assert.Equal(t, status, http.StatusOK)
	assert.Equal(t, deleted["success"], true)

	status, _ = doJSON(t, r, http.MethodGet, "/api/rooms/"+code1)
	assert.Equal(t, status, http.StatusNotFound)

	status, _ = doJSON(t, r, http.MethodGet, "/api/rooms/"+code2)
	assert.Equal(t, status, http.StatusOK)
}

func TestRoomsLookupIsCaseInsensitive(t *testing.T) {
	r, _ := testRouter(t)

	_, created := doJSON(t, r, http.MethodPost, "/api/rooms")
	code := created["code"].(string)

	status, got := doJSON(t, r, http.MethodGet, "/api/rooms/alley-"+code[len("ALLEY-"):])
	assert.Equal(t, status, http.StatusOK)
	assert.Equal(t, got["code"], code)
}

func TestRoomsList(t *testing.T) {
	r, _ := testRouter(t)

	_, _ = doJSON(t, r, http.MethodPost, "/api/rooms")
	_, _ = doJSON(t, r, http.MethodPost, "/api/rooms")

	status, body := doJSON(t, r, http.MethodGet, "/api/rooms")
	assert.Equal(t, status, http.StatusOK)
	rooms := body["rooms"].([]any)
	assert.Equal(t, len(rooms), 2)
}

func TestRoomsDeleteUnknown(t *testing.T) {
	r, _ := testRouter(t)
	status, body := doJSON(t, r, http.MethodDelete, "/api/rooms/ALLEY-ZZZZ")
	assert.Equal(t, status, http.StatusNotFound)
	assert.Equal(t, body["error"], "Room not found")
}

func TestRoomsCapacity(t *testing.T) {
	registry := app.NewRegistry()
	deps := &Deps{
		Registry:  registry,
		Hub:       app.NewHub(registry, core.NewDesignStore(0, 0)),
		Relay:     app.NewRelay(),
		Directory: app.NewDirectory(1),
	}
	r := SetupRouter(context.Background(), testConfig(), deps)

	status, _ := doJSON(t, r, http.MethodPost, "/api/rooms")
	assert.Equal(t, status, http.StatusOK)
	status, body := doJSON(t, r, http.MethodPost, "/api/rooms")
	assert.Equal(t, status, http.StatusTooManyRequests)
	assert.Equal(t, body["error"], "room capacity reached")
}

func TestPixelStreamingStatus(t *testing.T) {
	r, deps := testRouter(t)

	status, body := doJSON(t, r, http.MethodGet, "/api/pixel-streaming/status")
	assert.Equal(t, status, http.StatusOK)
	assert.Equal(t, body["status"], "waiting_for_streamer")
	assert.Equal(t, body["streamers_connected"], float64(0))

	deps.Relay.RegisterStreamer("s1", nopSender{})
	deps.Relay.RegisterPlayer("p1", nopSender{})

	status, body = doJSON(t, r, http.MethodGet, "/api/pixel-streaming/status")
	assert.Equal(t, status, http.StatusOK)
	assert.Equal(t, body["status"], "ready")
	assert.Equal(t, body["streamers_connected"], float64(1))
	assert.Equal(t, body["players_connected"], float64(1))
	assert.Equal(t, body["server_url"], "ws://localhost:5000/ws/pixelstreaming")
}

type nopSender struct{}

func (nopSender) TrySend(core.Frame) error { return nil }
func (nopSender) Close()                   {}
