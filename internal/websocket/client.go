package websocket

import (
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const (
	alertWriteTimeout = 10 * time.Second
	adminIdleTimeout  = 60 * time.Second
	keepAliveInterval = 50 * time.Second

	// Admins never send payloads; anything beyond control frames is refused.
	inboundLimit = 512
)

// Client is one admin tab subscribed to moderation alerts.
type Client struct {
	Hub    *Hub
	Conn   *websocket.Conn
	UserID uuid.UUID

	// Send carries encoded alerts. The hub closes it on unregister.
	Send chan []byte
}

func (c *Client) extendIdle() error {
	return c.Conn.SetReadDeadline(time.Now().Add(adminIdleTimeout))
}

// watchClose reads until the admin goes away, then unregisters.
func (c *Client) watchClose() {
	defer func() {
		c.Hub.unregister <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(inboundLimit)
	_ = c.extendIdle()
	c.Conn.SetPongHandler(func(string) error { return c.extendIdle() })

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.logger.Warn("Hub", "Admin alert feed closed unexpectedly", map[string]interface{}{
					"user_id": c.UserID,
					"error":   err.Error(),
				})
			}
			return
		}
	}
}

// deliverAlerts writes every alert as its own text frame so each one stays a
// standalone JSON document, and pings while the feed is quiet.
func (c *Client) deliverAlerts() {
	keepAlive := time.NewTicker(keepAliveInterval)
	defer func() {
		keepAlive.Stop()
		c.Conn.Close()
	}()

	write := func(messageType int, data []byte) error {
		if err := c.Conn.SetWriteDeadline(time.Now().Add(alertWriteTimeout)); err != nil {
			return err
		}
		return c.Conn.WriteMessage(messageType, data)
	}

	for {
		select {
		case alert, ok := <-c.Send:
			if !ok {
				_ = write(websocket.CloseMessage, []byte{})
				return
			}
			if err := write(websocket.TextMessage, alert); err != nil {
				return
			}
		case <-keepAlive.C:
			if err := write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
