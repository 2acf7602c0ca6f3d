package websocket

import (
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const alertBuffer = 256

// ServeWs subscribes an admin connection to the alert feed and blocks until it closes.
func ServeWs(hub *Hub, c *websocket.Conn, userID uuid.UUID) {
	client := &Client{Hub: hub, Conn: c, UserID: userID, Send: make(chan []byte, alertBuffer)}
	hub.register <- client

	go client.deliverAlerts()
	client.watchClose()
}
