package websocket

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error                                                  { return nil }

func runningHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(nopLogger{})
	go hub.Run()
	return hub
}

func (h *Hub) hasClient(client *Client) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients[client.UserID] {
		if c == client {
			return true
		}
	}
	return false
}

func TestHubDropsSlowClientWithoutClosingSend(t *testing.T) {
	hub := runningHub(t)
	userID := uuid.New()

	client := newClient(hub, nil, userID)
	client.Send = make(chan []byte, 1)
	hub.register <- client
	require.Eventually(t, func() bool { return hub.hasClient(client) },
		time.Second, 5*time.Millisecond)

	// Fill the buffer so the next delivery hits the drop path.
	client.Send <- []byte(`{}`)
	hub.Send(userID, map[string]string{"message": "hello"})

	require.Eventually(t, func() bool { return !hub.hasClient(client) },
		time.Second, 5*time.Millisecond)

	// The channel stays open after the drop: a racing Emit reports a full
	// buffer instead of panicking, and further hub sends are no-ops.
	err := client.Emit(nil)
	assert.Error(t, err)
	hub.Send(userID, map[string]string{"message": "again"})
}

func TestHubSendReachesEveryDevice(t *testing.T) {
	hub := runningHub(t)
	userID := uuid.New()

	first := newClient(hub, nil, userID)
	second := newClient(hub, nil, userID)
	other := newClient(hub, nil, uuid.New())
	hub.register <- first
	hub.register <- second
	hub.register <- other
	require.Eventually(t, func() bool { return hub.hasClient(other) },
		time.Second, 5*time.Millisecond)

	hub.Send(userID, map[string]string{"message": "hello"})

	assert.Len(t, first.Send, 1)
	assert.Len(t, second.Send, 1)
	assert.Len(t, other.Send, 0)
}

func TestClientTeardownCancelsContext(t *testing.T) {
	hub := runningHub(t)

	client := newClient(hub, nil, uuid.New())
	hub.register <- client
	require.Eventually(t, func() bool { return hub.hasClient(client) },
		time.Second, 5*time.Millisecond)
	require.NoError(t, client.ctx.Err())

	client.teardown()

	assert.Equal(t, context.Canceled, client.ctx.Err())
	require.Eventually(t, func() bool { return !hub.hasClient(client) },
		time.Second, 5*time.Millisecond)
}
