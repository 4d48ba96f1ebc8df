package websocket

import (
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// ServeWs attaches an upgraded, authenticated connection to the hub and
// blocks until the connection closes. Called from inside the fiber websocket
// handler, which owns the goroutine.
func ServeWs(hub *Hub, c *websocket.Conn, userId uuid.UUID, userName string) {
	client := &Client{
		Hub:       hub,
		Conn:      c,
		SessionId: uuid.New(),
		UserId:    userId,
		UserName:  userName,
		Send:      make(chan []byte, 256),
	}
	client.Hub.register <- client

	go client.writePump()
	client.readPump()
}
