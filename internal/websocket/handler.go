package websocket

import (
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// ServeWs attaches a connection to the hub and blocks until it closes.
// onAttach runs after registration and returns a detach callback; the chat
// controller uses it to bind and unbind the engine observer.
func ServeWs(hub *Hub, c *websocket.Conn, userID uuid.UUID, onAttach func() (detach func())) {
	client := &Client{Hub: hub, Conn: c, UserID: userID, Send: make(chan []byte, 256)}
	client.Hub.register <- client

	var detach func()
	if onAttach != nil {
		detach = onAttach()
	}

	go client.writePump()
	client.readPump() // Run readPump in current goroutine (handler)

	if detach != nil {
		detach()
	}
}
