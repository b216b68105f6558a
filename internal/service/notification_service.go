package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"docchat-be/internal/dto"
	"docchat-be/internal/pkg/logger"
	"docchat-be/pkg/events"
	pktNats "docchat-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

// NotificationDelivery defines how to push real-time updates. Implemented
// by the websocket hub.
type NotificationDelivery interface {
	Send(userID uuid.UUID, payload interface{})
	Broadcast(payload interface{})
}

// NotificationService turns domain events from the NATS bus into push
// notifications. Events are re-published onto an in-process channel so the
// NATS handler can ack immediately; delivery to connected clients happens
// on the channel's consumer.
type NotificationService struct {
	subscriber *pktNats.Subscriber
	pubSub     *gochannel.GoChannel
	topic      string
	delivery   NotificationDelivery
	logger     logger.ILogger
}

func NewNotificationService(
	sub *pktNats.Subscriber,
	pubSub *gochannel.GoChannel,
	topic string,
	delivery NotificationDelivery,
	log logger.ILogger,
) *NotificationService {
	return &NotificationService{
		subscriber: sub,
		pubSub:     pubSub,
		topic:      topic,
		delivery:   delivery,
		logger:     log,
	}
}

// Start wires the bus end to end: the durable NATS consumer feeds the
// in-process channel, and the channel consumer delivers to the hub.
func (s *NotificationService) Start(ctx context.Context) error {
	messages, err := s.pubSub.Subscribe(ctx, s.topic)
	if err != nil {
		return err
	}
	go s.deliverLoop(messages)

	if err := s.subscriber.Subscribe("events.>", "notif-service-worker", s.handleEvent); err != nil {
		return err
	}

	s.logger.Info("NotificationService", "Notification service started, listening to events.>", nil)
	return nil
}

func (s *NotificationService) handleEvent(ctx context.Context, event events.Event) error {
	typeCode := strings.TrimPrefix(event.EventType(), "events.")

	notification, ok := s.buildNotification(typeCode, event)
	if !ok {
		// No user to target or nothing to say; ack and move on.
		return nil
	}

	data, err := json.Marshal(notification)
	if err != nil {
		return err
	}
	return s.pubSub.Publish(s.topic, message.NewMessage(watermill.NewUUID(), data))
}

func (s *NotificationService) deliverLoop(messages <-chan *message.Message) {
	for msg := range messages {
		var notification dto.Notification
		if err := json.Unmarshal(msg.Payload, &notification); err != nil {
			s.logger.Warn("NotificationService", "Dropping unreadable notification", map[string]interface{}{"error": err.Error()})
			msg.Ack()
			continue
		}

		if s.delivery != nil {
			s.delivery.Send(notification.UserId, notification)
		}
		msg.Ack()
	}
}

func (s *NotificationService) buildNotification(typeCode string, event events.Event) (dto.Notification, bool) {
	payload := event.Payload()

	uidStr, _ := payload["user_id"].(string)
	userId, err := uuid.Parse(uidStr)
	if err != nil {
		s.logger.Warn("NotificationService", fmt.Sprintf("No user_id in payload for event %s", typeCode), nil)
		return dto.Notification{}, false
	}

	var msg string
	switch typeCode {
	case events.TypeUserRegistered:
		username, _ := payload["username"].(string)
		msg = fmt.Sprintf("Welcome aboard, %s!", username)
	case events.TypeDocumentIngested:
		filename, _ := payload["filename"].(string)
		msg = fmt.Sprintf("%s is ready to chat with.", filename)
	case events.TypeSessionDeleted:
		title, _ := payload["title"].(string)
		msg = fmt.Sprintf("Chat \"%s\" was deleted.", title)
	default:
		return dto.Notification{}, false
	}

	return dto.Notification{
		Id:        uuid.New(),
		UserId:    userId,
		TypeCode:  typeCode,
		Message:   msg,
		Metadata:  payload,
		CreatedAt: event.Timestamp(),
	}, true
}
