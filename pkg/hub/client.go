package hub

import (
	"context"
	"time"

	"github.com/gofiber/websocket/v2"
)

const (
	// writeWait is how long to wait for a write to complete
	writeWait = 10 * time.Second

	// pongWait is how long to wait for a pong response
	pongWait = 60 * time.Second

	// pingPeriod must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize is the maximum inbound message size; clients only send
	// control frames
	maxMessageSize = 4 * 1024

	// sendBuffer is the per-client outbound queue length
	sendBuffer = 64
)

// Client represents a single websocket connection
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan Frame
}

// NewClient creates a client for conn. Call Serve to run it.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		send: make(chan Frame, sendBuffer),
	}
}

// Queue implements Sender.
func (c *Client) Queue() chan Frame {
	return c.send
}

// Serve registers the client, optionally sends greeting first, and pumps
// messages until the connection closes. It blocks; call it from the
// websocket handler.
func (c *Client) Serve(ctx context.Context, greeting *Frame) {
	if greeting != nil {
		c.send <- *greeting
	}
	if !c.hub.Register(ctx, c) {
		c.conn.Close()
		return
	}
	go c.writePump()
	c.readPump(ctx)
}

// readPump reads from the connection to detect disconnection and pongs
func (c *Client) readPump(ctx context.Context) {
	defer func() {
		c.hub.Unregister(ctx, c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump is the only goroutine that writes to the connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			wsType := websocket.TextMessage
			if frame.Binary {
				wsType = websocket.BinaryMessage
			}
			if err := c.conn.WriteMessage(wsType, frame.Payload); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
