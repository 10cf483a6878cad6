package service

import (
	"context"
	"errors"
	"testing"

	"amanai-be/internal/pkg/logger"
	"amanai-be/pkg/events"
	pktNats "amanai-be/pkg/nats"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedDelivery struct {
	users  []string
	events []events.Event
}

func (d *recordedDelivery) Send(userID string, event events.Event) {
	d.users = append(d.users, userID)
	d.events = append(d.events, event)
}

type fakeSubscriber struct {
	subject string
	durable string
	handler pktNats.EventHandler
	err     error
}

func (f *fakeSubscriber) Subscribe(ctx context.Context, subject string, durableName string, handler pktNats.EventHandler) error {
	f.subject = subject
	f.durable = durableName
	f.handler = handler
	return f.err
}

func TestNotificationServiceRelaysToOwner(t *testing.T) {
	sub := &fakeSubscriber{}
	delivery := &recordedDelivery{}
	svc := NewNotificationService(sub, delivery, logger.NewNopLogger())

	svc.Start(context.Background())
	assert.Equal(t, "events.>", sub.subject)
	assert.Equal(t, "notif-service-worker", sub.durable)
	require.NotNil(t, sub.handler)

	event := events.NewEncounterEvent(events.EncounterPaused, "doc-1", "enc-1", "paused")
	require.NoError(t, sub.handler(context.Background(), event))

	assert.Equal(t, []string{"doc-1"}, delivery.users)
	assert.Equal(t, events.EncounterPaused, delivery.events[0].EventType())
}

func TestNotificationServiceDropsOwnerlessEvents(t *testing.T) {
	delivery := &recordedDelivery{}
	svc := NewNotificationService(nil, delivery, logger.NewNopLogger())

	err := svc.HandleEvent(context.Background(), events.BaseEvent{Type: "SYSTEM", Data: map[string]interface{}{}})
	require.NoError(t, err)
	assert.Empty(t, delivery.users)
}

func TestNotificationServiceSubscribeFailure(t *testing.T) {
	sub := &fakeSubscriber{err: errors.New("no jetstream")}
	svc := NewNotificationService(sub, &recordedDelivery{}, logger.NewNopLogger())

	assert.NotPanics(t, func() { svc.Start(context.Background()) })
}
