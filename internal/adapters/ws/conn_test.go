package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"
	"github.com/gorilla/websocket"

	"github.com/alleybloom/live/internal/core"
)

// wsPair upgrades one connection on an httptest server and returns both ends.
func wsPair(t *testing.T) (server *websocket.Conn, client *websocket.Conn) {
	t.Helper()

	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	serverCh := make(chan *websocket.Conn, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		serverCh <- c
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	select {
	case server = <-serverCh:
	case <-time.After(time.Second):
		t.Fatal("server side never upgraded")
	}
	return server, client
}

func TestTrySendBackpressure(t *testing.T) {
	server, _ := wsPair(t)
	conn := NewConn(server, 1)
	defer conn.Close()

	// no write pump draining, so the second frame overflows the buffer
	assert.Equal(t, conn.TrySend(core.Frame(`{"type":"a"}`)), nil)
	assert.Equal(t, conn.TrySend(core.Frame(`{"type":"b"}`)), ErrBackpressure)
}

func TestTrySendAfterClose(t *testing.T) {
	server, _ := wsPair(t)
	conn := NewConn(server, 4)

	conn.Close()
	conn.Close() // idempotent

	err := conn.TrySend(core.Frame(`{"type":"a"}`))
	assert.NotEqual(t, err, nil)
}

func TestWritePumpDeliversFrames(t *testing.T) {
	server, client := wsPair(t)
	conn := NewConn(server, 4)
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go conn.WritePump(ctx, time.Minute)

	want := `{"type":"item_added","item":{"id":"m1"}}`
	assert.Equal(t, conn.TrySend(core.Frame(want)), nil)

	_ = client.SetReadDeadline(time.Now().Add(time.Second))
	_, data, err := client.ReadMessage()
	assert.Equal(t, err, nil)
	assert.Equal(t, string(data), want)
}

func TestReadPumpHandsFramesToHandler(t *testing.T) {
	server, client := wsPair(t)
	conn := NewConn(server, 4)
	defer conn.Close()

	frames := make(chan string, 1)
	done := make(chan struct{})
	go func() {
		conn.ReadPump(context.Background(), 1024, func(f core.Frame) {
			frames <- string(f)
		})
		close(done)
	}()

	want := `{"type":"join_alley","alley_id":"alley7"}`
	if err := client.WriteMessage(websocket.TextMessage, []byte(want)); err != nil {
		t.Fatalf("client write: %v", err)
	}

	select {
	case got := <-frames:
		assert.Equal(t, got, want)
	case <-time.After(time.Second):
		t.Fatal("handler never saw the frame")
	}

	// a client close ends the pump
	_ = client.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("read pump did not return after close")
	}
}
