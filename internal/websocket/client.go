package websocket

import (
	"context"
	"encoding/json"
	"time"

	"docchat-be/internal/conversation"
	"docchat-be/internal/dto"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Inbound event envelope. Exactly one payload field matches Type.
type inboundEnvelope struct {
	Type    string            `json:"type"`
	Connect *dto.ConnectEvent `json:"connect,omitempty"`
	Message *dto.MessageEvent `json:"message,omitempty"`
	Action  *dto.ActionEvent  `json:"action,omitempty"`
}

type outboundEnvelope struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Client binds one websocket connection to its conversation machine. The
// readPump goroutine is the only driver of the machine, so events are
// processed strictly in arrival order.
type Client struct {
	Hub    *Hub
	Conn   *websocket.Conn
	UserID uuid.UUID
	Send   chan []byte

	// ctx covers the connection's lifetime; cancelled on teardown so
	// in-flight work (ingestion polling in particular) stops with it.
	ctx    context.Context
	cancel context.CancelFunc

	machine *conversation.Machine
}

func newClient(hub *Hub, conn *websocket.Conn, userID uuid.UUID) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		Hub:    hub,
		Conn:   conn,
		UserID: userID,
		Send:   make(chan []byte, 256),
		ctx:    ctx,
		cancel: cancel,
	}
}

// teardown cancels the connection context and hands the client back to the
// hub. Only the read pump calls this; the Send channel stays open so late
// Emits never panic.
func (c *Client) teardown() {
	c.cancel()
	c.Hub.unregister <- c
}

// Emit implements conversation.Emitter. A full send buffer fails the emit
// rather than blocking the machine.
func (c *Client) Emit(display *dto.Display) error {
	data, err := json.Marshal(outboundEnvelope{Type: "display", Data: display})
	if err != nil {
		return err
	}
	select {
	case c.Send <- data:
		return nil
	default:
		return errors.New("send buffer full")
	}
}

func (c *Client) sendProfiles(profiles []dto.Profile) {
	data, err := json.Marshal(outboundEnvelope{Type: "profiles", Data: profiles})
	if err != nil {
		return
	}
	select {
	case c.Send <- data:
	default:
	}
}

// readPump reads inbound events and drives the machine. It runs on the
// fiber handler goroutine; returning here tears the connection down.
func (c *Client) readPump(maxMessageSize int64) {
	defer c.teardown()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.logger.Warn("Websocket", "unexpected close", map[string]interface{}{
					"user_id": c.UserID.String(),
					"error":   err.Error(),
				})
			}
			break
		}

		var envelope inboundEnvelope
		if err := json.Unmarshal(raw, &envelope); err != nil {
			_ = c.Emit(dto.SystemDisplay("Could not read that event."))
			continue
		}
		c.dispatch(&envelope)
	}
}

func (c *Client) dispatch(envelope *inboundEnvelope) {
	ctx := c.ctx

	var err error
	switch {
	case envelope.Type == "connect" && envelope.Connect != nil:
		err = c.machine.HandleConnect(ctx, envelope.Connect)
	case envelope.Type == "message" && envelope.Message != nil:
		err = c.machine.HandleMessage(ctx, envelope.Message)
	case envelope.Type == "action" && envelope.Action != nil:
		err = c.machine.HandleAction(ctx, envelope.Action)
	default:
		_ = c.Emit(dto.SystemDisplay("Could not read that event."))
		return
	}

	if err != nil {
		c.Hub.logger.Error("Websocket", "event handling failed", map[string]interface{}{
			"user_id": c.UserID.String(),
			"type":    envelope.Type,
			"error":   err.Error(),
		})
	}
}

// writePump pumps the send channel to the connection and keeps it alive
// with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
