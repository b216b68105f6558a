package websocket

import (
	"docchat-be/internal/conversation"
	"docchat-be/internal/dto"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// ServeWs wires one upgraded connection to a fresh conversation machine.
// Runs on the fiber handler goroutine until the connection closes.
func ServeWs(hub *Hub, conn *websocket.Conn, deps conversation.Deps, identity dto.Identity, maxMessageSize int64) {
	var userID uuid.UUID
	if identity.UserId != nil {
		userID = *identity.UserId
	}
	client := newClient(hub, conn, userID)
	client.machine = conversation.NewMachine(deps, identity, client)
	hub.register <- client

	go client.writePump()

	// The chooser goes out immediately; the client answers with a connect
	// event naming the chosen profile.
	if profiles, err := client.machine.Profiles(client.ctx); err == nil {
		client.sendProfiles(profiles)
	}

	client.readPump(maxMessageSize)
}
