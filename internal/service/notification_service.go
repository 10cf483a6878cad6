package service

import (
	"context"
	"fmt"

	"amanai-be/internal/pkg/logger"
	"amanai-be/pkg/events"
	pktNats "amanai-be/pkg/nats" // Renamed to avoid collision
)

const (
	notificationSubject = "events.>"
	notificationDurable = "notif-service-worker"
)

// NotificationDelivery defines how to push real-time updates.
// Typically implemented by the WebSocket Hub.
type NotificationDelivery interface {
	Send(userID string, event events.Event)
}

// EventSubscriber is satisfied by *pktNats.Subscriber.
type EventSubscriber interface {
	Subscribe(ctx context.Context, subject string, durableName string, handler pktNats.EventHandler) error
}

// NotificationService relays lifecycle events from the bus to the owner's
// open sockets.
type NotificationService struct {
	subscriber EventSubscriber
	delivery   NotificationDelivery
	logger     logger.ILogger
}

func NewNotificationService(sub EventSubscriber, delivery NotificationDelivery, log logger.ILogger) *NotificationService {
	return &NotificationService{
		subscriber: sub,
		delivery:   delivery,
		logger:     log,
	}
}

// Start begins listening to the event bus.
func (s *NotificationService) Start(ctx context.Context) {
	if s.subscriber == nil {
		s.logger.Warn("NotificationService", "No event subscriber, real-time events disabled", nil)
		return
	}
	if err := s.subscriber.Subscribe(ctx, notificationSubject, notificationDurable, s.HandleEvent); err != nil {
		s.logger.Error("NotificationService", "Failed to start notification subscriber", map[string]interface{}{"error": err})
		return
	}
	s.logger.Info("NotificationService", "Notification service started, listening to events.>", nil)
}

// HandleEvent pushes event to its owner. Events without an owner are dropped.
func (s *NotificationService) HandleEvent(ctx context.Context, event events.Event) error {
	userID := events.UserID(event)
	if userID == "" {
		s.logger.Warn("NotificationService", fmt.Sprintf("No user_id in payload for event %s", event.EventType()), nil)
		return nil
	}

	if s.delivery != nil {
		s.delivery.Send(userID, event)
	}
	s.logger.Debug("NotificationService", "Event delivered", map[string]interface{}{
		"type":    event.EventType(),
		"user_id": userID,
	})
	return nil
}
