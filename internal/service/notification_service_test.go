package service

import (
	"context"
	"testing"
	"time"

	"docchat-be/internal/dto"
	"docchat-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type quietLogger struct{}

func (quietLogger) Debug(module, message string, details map[string]interface{}) {}
func (quietLogger) Info(module, message string, details map[string]interface{})  {}
func (quietLogger) Warn(module, message string, details map[string]interface{})  {}
func (quietLogger) Error(module, message string, details map[string]interface{}) {}
func (quietLogger) Sync() error                                                  { return nil }

type captureDelivery struct {
	sent chan dto.Notification
}

func (d *captureDelivery) Send(_ uuid.UUID, payload interface{}) {
	if n, ok := payload.(dto.Notification); ok {
		d.sent <- n
	}
}

func (d *captureDelivery) Broadcast(interface{}) {}

func TestBuildNotificationMessages(t *testing.T) {
	svc := NewNotificationService(nil, nil, "notifications", nil, quietLogger{})
	userId := uuid.New()

	tests := []struct {
		name     string
		typeCode string
		payload  map[string]interface{}
		want     string
	}{
		{
			name:     "user registered",
			typeCode: events.TypeUserRegistered,
			payload:  map[string]interface{}{"user_id": userId.String(), "username": "alice"},
			want:     "Welcome aboard, alice!",
		},
		{
			name:     "document ingested",
			typeCode: events.TypeDocumentIngested,
			payload:  map[string]interface{}{"user_id": userId.String(), "filename": "report.pdf"},
			want:     "report.pdf is ready to chat with.",
		},
		{
			name:     "session deleted",
			typeCode: events.TypeSessionDeleted,
			payload:  map[string]interface{}{"user_id": userId.String(), "title": "Old Chat"},
			want:     `Chat "Old Chat" was deleted.`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			notification, ok := svc.buildNotification(tc.typeCode, events.New(tc.typeCode, tc.payload))
			require.True(t, ok)
			assert.Equal(t, userId, notification.UserId)
			assert.Equal(t, tc.typeCode, notification.TypeCode)
			assert.Equal(t, tc.want, notification.Message)
		})
	}
}

func TestBuildNotificationSkipsUntargetable(t *testing.T) {
	svc := NewNotificationService(nil, nil, "notifications", nil, quietLogger{})

	_, ok := svc.buildNotification(events.TypeUserRegistered,
		events.New(events.TypeUserRegistered, map[string]interface{}{"username": "alice"}))
	assert.False(t, ok)

	_, ok = svc.buildNotification("SOMETHING_ELSE",
		events.New("SOMETHING_ELSE", map[string]interface{}{"user_id": uuid.New().String()}))
	assert.False(t, ok)
}

func TestNotificationBridgeDelivers(t *testing.T) {
	ctx := context.Background()
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	delivery := &captureDelivery{sent: make(chan dto.Notification, 1)}
	svc := NewNotificationService(nil, pubSub, "notifications", delivery, quietLogger{})

	messages, err := pubSub.Subscribe(ctx, "notifications")
	require.NoError(t, err)
	go svc.deliverLoop(messages)

	userId := uuid.New()
	// The subject prefix rides in on the event type and must be stripped
	// before the type code is matched.
	err = svc.handleEvent(ctx, events.BaseEvent{
		Type:       "events." + events.TypeDocumentIngested,
		Data:       map[string]interface{}{"user_id": userId.String(), "filename": "report.pdf"},
		OccurredAt: time.Now(),
	})
	require.NoError(t, err)

	select {
	case notification := <-delivery.sent:
		assert.Equal(t, userId, notification.UserId)
		assert.Equal(t, events.TypeDocumentIngested, notification.TypeCode)
		assert.Contains(t, notification.Message, "report.pdf")
	case <-time.After(2 * time.Second):
		t.Fatal("notification never delivered")
	}
}
