package websocket

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/modelcast/internal/catalog"
	pkgerrors "github.com/agentstation/modelcast/pkg/errors"
)

func snapshot(t *testing.T, content string) *catalog.Snapshot {
	t.Helper()
	path := filepath.Join(t.TempDir(), "models.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	logger := zerolog.Nop()
	return catalog.NewStore(path, catalog.WithLogger(&logger)).Current()
}

// serve upgrades one connection and hands the client to the test.
func serve(t *testing.T, queueSize int) (*websocket.Conn, <-chan *Client, <-chan struct{}) {
	t.Helper()
	logger := zerolog.Nop()
	clients := make(chan *Client, 1)
	closed := make(chan struct{})
	var once sync.Once

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		c := NewClient("c1", conn, queueSize, &logger)
		clients <- c
		go c.WritePump()
		go c.ReadPump(func() { once.Do(func() { close(closed) }) })
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn, clients, closed
}

func TestClientDeliversTextFrames(t *testing.T) {
	conn, clients, _ := serve(t, 4)
	c := <-clients

	require.NoError(t, c.Send(snapshot(t, `[{"id":"m1","name":"Elephant-v1"}]`)))
	require.NoError(t, c.Send(snapshot(t, `[]`)))

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	kind, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.TextMessage, kind)
	assert.Equal(t, `[{"id":"m1","name":"Elephant-v1"}]`, string(data))

	_, data, err = conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(data))
}

func TestClientCloseSendsCloseFrame(t *testing.T) {
	conn, clients, _ := serve(t, 4)
	c := <-clients

	require.NoError(t, c.Close())

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
	assert.True(t, pkgerrors.IsClosed(c.Send(snapshot(t, "[]"))))
}

func TestClientPeerDisconnect(t *testing.T) {
	conn, clients, closed := serve(t, 4)
	c := <-clients

	require.NoError(t, conn.Close())

	select {
	case <-closed:
	case <-time.After(5 * time.Second):
		t.Fatal("onClose not called after peer disconnect")
	}
	select {
	case <-c.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("client not closed after peer disconnect")
	}
}

func TestClientQueueFull(t *testing.T) {
	logger := zerolog.Nop()
	// No pumps running, so nothing drains the queue.
	c := NewClient("c1", nil, 1, &logger)
	snap := snapshot(t, "[]")

	require.NoError(t, c.Send(snap))
	assert.ErrorIs(t, c.Send(snap), ErrQueueFull)
	assert.Equal(t, "websocket", c.Transport())
	assert.Equal(t, "c1", c.ID())
}
