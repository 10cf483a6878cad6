package websocket

import (
	"time"

	"github.com/gofiber/websocket/v2"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// Inbound frames are read only to be discarded.
	inboundLimit = 512
	sendBuffer   = 256
)

// Client is one open events socket. The hub queues encoded frames on Send;
// nothing the browser writes is forwarded anywhere.
type Client struct {
	Hub  *Hub
	Conn *websocket.Conn

	// Owner of the connection; events addressed to it are written here.
	UserID string

	Send chan []byte
}

func newClient(hub *Hub, conn *websocket.Conn, userID string) *Client {
	return &Client{Hub: hub, Conn: conn, UserID: userID, Send: make(chan []byte, sendBuffer)}
}

// serve registers c and pushes frames until the peer leaves, a write fails or
// the hub drops the client.
func (c *Client) serve() {
	c.Hub.register <- c
	c.Hub.logger.Debug("WebSocket", "Events socket opened", map[string]interface{}{"user_id": c.UserID})

	gone := make(chan struct{})
	go c.awaitClose(gone)

	reason := c.push(gone)

	c.Hub.unregister <- c
	_ = c.Conn.Close()
	c.Hub.logger.Debug("WebSocket", "Events socket closed", map[string]interface{}{"user_id": c.UserID, "reason": reason})
}

// awaitClose reads until the connection fails. Inbound frames are discarded;
// reading keeps pong handling alive.
func (c *Client) awaitClose(gone chan<- struct{}) {
	defer close(gone)

	c.Conn.SetReadLimit(inboundLimit)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.Hub.logger.Warn("WebSocket", "Events socket read failed", map[string]interface{}{"user_id": c.UserID, "error": err.Error()})
			}
			return
		}
	}
}

func (c *Client) push(gone <-chan struct{}) string {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-gone:
			return "peer closed"
		case frame, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "dropped by server"))
				return "dropped"
			}
			// One event per text frame; clients parse each message as a single Frame.
			if err := c.Conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return "write failed"
			}
		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return "ping failed"
			}
		}
	}
}
