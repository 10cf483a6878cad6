package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"amanai-be/internal/pkg/logger"
	"amanai-be/pkg/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registered(t *testing.T, hub *Hub, userID string, buffer int) *Client {
	t.Helper()
	c := &Client{Hub: hub, UserID: userID, Send: make(chan []byte, buffer)}
	hub.register <- c
	require.Eventually(t, func() bool { return hub.Connected(userID) > 0 }, time.Second, 5*time.Millisecond)
	return c
}

func TestHubSendReachesOnlyTheOwner(t *testing.T) {
	hub := NewHub(nil, logger.NewNopLogger())
	go hub.Run()

	alice := registered(t, hub, "alice", 4)
	bob := registered(t, hub, "bob", 4)

	hub.Send("alice", events.NewEncounterEvent(events.EncounterPaused, "alice", "enc-1", "paused"))

	select {
	case raw := <-alice.Send:
		var frame Frame
		require.NoError(t, json.Unmarshal(raw, &frame))
		assert.Equal(t, "event", frame.Type)
		assert.Equal(t, events.EncounterPaused, frame.Event)
		assert.Equal(t, "enc-1", frame.Data["encounter_id"])
	case <-time.After(time.Second):
		t.Fatal("alice did not receive the event")
	}

	assert.Empty(t, bob.Send)
}

func TestHubUnregisterClosesSendChannel(t *testing.T) {
	hub := NewHub(nil, logger.NewNopLogger())
	go hub.Run()

	c := registered(t, hub, "alice", 1)
	hub.unregister <- c

	require.Eventually(t, func() bool { return hub.Connected("alice") == 0 }, time.Second, 5*time.Millisecond)
	_, open := <-c.Send
	assert.False(t, open)
}

func TestHubDropsClientWithFullBuffer(t *testing.T) {
	hub := NewHub(nil, logger.NewNopLogger())
	go hub.Run()

	registered(t, hub, "alice", 0)
	hub.Send("alice", events.NewEncounterEvent(events.EncounterStarted, "alice", "enc-1", "active"))

	assert.Eventually(t, func() bool { return hub.Connected("alice") == 0 }, time.Second, 5*time.Millisecond)
}
