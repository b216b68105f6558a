package websocket

import (
	"encoding/json"
	"sync"

	"docchat-be/internal/pkg/logger"

	"github.com/google/uuid"
)

// Hub tracks connected clients per user so out-of-band notifications can
// reach every open device of a user.
type Hub struct {
	// UserID -> connected clients (multi-device).
	clients map[uuid.UUID][]*Client

	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	logger logger.ILogger
}

func NewHub(log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[uuid.UUID][]*Client),
		logger:     log,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.UserID] = append(h.clients[client.UserID], client)
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{"user_id": client.UserID})

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.UserID]; ok {
				for i, c := range clients {
					if c == client {
						h.clients[client.UserID] = append(clients[:i], clients[i+1:]...)
						break
					}
				}
				if len(h.clients[client.UserID]) == 0 {
					delete(h.clients, client.UserID)
				}
			}
			h.mu.Unlock()

			// The Send channel is never closed; the read pump owns the
			// connection's lifetime. Closing the socket unblocks both
			// pumps, and late sends just land in a buffer nobody drains.
			if client.Conn != nil {
				client.Conn.Close()
			}
		}
	}
}

// Send delivers a notification to every open connection of one user. A
// client with a full buffer is dropped.
func (h *Hub) Send(userID uuid.UUID, payload interface{}) {
	data, err := json.Marshal(outboundEnvelope{Type: "notification", Data: payload})
	if err != nil {
		return
	}

	h.mu.RLock()
	clients := h.clients[userID]
	h.mu.RUnlock()

	for _, client := range clients {
		select {
		case client.Send <- data:
		default:
			h.logger.Warn("Hub", "Client send buffer full, dropping connection", map[string]interface{}{"user_id": userID})
			h.unregister <- client
		}
	}
}

// Broadcast delivers a notification to every connected client.
func (h *Hub) Broadcast(payload interface{}) {
	data, err := json.Marshal(outboundEnvelope{Type: "notification", Data: payload})
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, clients := range h.clients {
		for _, client := range clients {
			select {
			case client.Send <- data:
			default:
			}
		}
	}
}
