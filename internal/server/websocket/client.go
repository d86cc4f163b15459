// Package websocket delivers catalog snapshots over WebSocket connections.
// Each snapshot is sent as one text frame holding the whole JSON array.
package websocket

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/agentstation/modelcast/internal/catalog"
	pkgerrors "github.com/agentstation/modelcast/pkg/errors"
)

// Transport is the transport name reported to the distribution service.
const Transport = "websocket"

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512
)

// ErrQueueFull is returned by Send when the peer is not keeping up.
var ErrQueueFull = errors.New("websocket send queue full")

// Client is one WebSocket subscriber. Send only enqueues; WritePump owns
// all writes to the connection.
type Client struct {
	id     string
	conn   *websocket.Conn
	send   chan []byte
	done   chan struct{}
	once   sync.Once
	logger *zerolog.Logger
}

// NewClient creates a client with a send queue of the given size.
func NewClient(id string, conn *websocket.Conn, queueSize int, logger *zerolog.Logger) *Client {
	return &Client{
		id:     id,
		conn:   conn,
		send:   make(chan []byte, queueSize),
		done:   make(chan struct{}),
		logger: logger,
	}
}

// ID returns the client id.
func (c *Client) ID() string {
	return c.id
}

// Transport implements distribution.Subscriber.
func (c *Client) Transport() string {
	return Transport
}

// Send queues the snapshot without blocking.
func (c *Client) Send(snap *catalog.Snapshot) error {
	select {
	case <-c.done:
		return pkgerrors.WrapResource("send", "subscriber", c.id, pkgerrors.ErrClosed)
	default:
	}

	select {
	case c.send <- snap.JSON():
		return nil
	default:
		return pkgerrors.WrapResource("send", "subscriber", c.id, ErrQueueFull)
	}
}

// Close stops the write pump, which sends a close frame and closes the
// connection. It is safe to call more than once.
func (c *Client) Close() error {
	c.once.Do(func() { close(c.done) })
	return nil
}

// Done is closed once the client is closed.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// ReadPump reads from the connection until it fails, which is how peer
// disconnects are detected. Inbound messages are ignored. onClose runs
// once the connection is gone.
func (c *Client) ReadPump(onClose func()) {
	defer func() {
		if onClose != nil {
			onClose()
		}
		_ = c.Close()
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.Warn().Err(err).Msg("WebSocket read error")
			}
			return
		}
	}
}

// WritePump writes queued snapshots and keepalive pings until the client
// is closed or a write fails.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Close()
		_ = c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
			return

		case payload := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				c.logger.Debug().Err(err).Msg("WebSocket write failed")
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
