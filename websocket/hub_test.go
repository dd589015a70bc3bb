package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rightbridge-server/models"
)

func newTestClient(id string) *Client {
	return &Client{
		ID:     id,
		UserID: 1,
		Role:   models.RoleAdmin,
		Send:   make(chan []byte, 8),
	}
}

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub()
	go hub.Run()
	return hub
}

func register(t *testing.T, hub *Hub, client *Client) {
	t.Helper()
	hub.Register <- client
	require.Eventually(t, func() bool {
		return hub.IsConnected(client.ID)
	}, time.Second, 5*time.Millisecond)
}

func receiveEvent(t *testing.T, client *Client) *Event {
	t.Helper()
	select {
	case data := <-client.Send:
		var event Event
		require.NoError(t, json.Unmarshal(data, &event))
		return &event
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func TestSubscriberReceivesPublishedEvent(t *testing.T) {
	hub := startHub(t)
	client := newTestClient("conn-1")
	register(t, hub, client)

	hub.Subscribe(client, TopicAdminDashboard)
	assert.Equal(t, 1, hub.SubscriberCount(TopicAdminDashboard))

	hub.Publish(TopicAdminDashboard, &Event{
		Type:      EventBookingCreated,
		Data:      map[string]interface{}{"booking_id": float64(7)},
		Timestamp: time.Now(),
	})

	event := receiveEvent(t, client)
	assert.Equal(t, EventBookingCreated, event.Type)
}

func TestUnsubscribedClientGetsNothing(t *testing.T) {
	hub := startHub(t)
	subscriber := newTestClient("conn-sub")
	bystander := newTestClient("conn-bystander")
	register(t, hub, subscriber)
	register(t, hub, bystander)

	hub.Subscribe(subscriber, TopicAdminDashboard)

	hub.Publish(TopicAdminDashboard, &Event{
		Type:      EventBookingDeleted,
		Timestamp: time.Now(),
	})

	receiveEvent(t, subscriber)

	select {
	case <-bystander.Send:
		t.Fatal("bystander should not receive dashboard events")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	hub := startHub(t)
	client := newTestClient("conn-2")
	register(t, hub, client)

	hub.Subscribe(client, TopicAdminDashboard)
	hub.Unsubscribe(client, TopicAdminDashboard)
	assert.Equal(t, 0, hub.SubscriberCount(TopicAdminDashboard))

	hub.Publish(TopicAdminDashboard, &Event{
		Type:      EventProviderAssigned,
		Timestamp: time.Now(),
	})

	select {
	case <-client.Send:
		t.Fatal("unsubscribed client should not receive events")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestUnregisterCleansUpSubscriptions(t *testing.T) {
	hub := startHub(t)
	client := newTestClient("conn-3")
	register(t, hub, client)
	hub.Subscribe(client, TopicAdminDashboard)

	hub.Unregister <- client
	require.Eventually(t, func() bool {
		return !hub.IsConnected(client.ID)
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, 0, hub.SubscriberCount(TopicAdminDashboard))
}

func TestSlowSubscriberIsDropped(t *testing.T) {
	hub := startHub(t)
	slow := &Client{
		ID:     "conn-slow",
		UserID: 2,
		Role:   models.RoleAdmin,
		Send:   make(chan []byte), // unbuffered, nobody reading
	}
	register(t, hub, slow)
	hub.Subscribe(slow, TopicAdminDashboard)

	hub.Publish(TopicAdminDashboard, &Event{
		Type:      EventBookingStatusUpdated,
		Timestamp: time.Now(),
	})

	require.Eventually(t, func() bool {
		return !hub.IsConnected(slow.ID)
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, hub.SubscriberCount(TopicAdminDashboard))
}

func TestDroppedClientToleratesLateMessages(t *testing.T) {
	hub := startHub(t)
	slow := &Client{
		ID:     "conn-late",
		UserID: 3,
		Role:   models.RoleAdmin,
		hub:    hub,
		Send:   make(chan []byte, 1),
	}
	register(t, hub, slow)
	hub.Subscribe(slow, TopicAdminDashboard)

	// Fill the buffer, then publish until the hub drops the client
	slow.Send <- []byte("{}")
	hub.Publish(TopicAdminDashboard, &Event{
		Type:      EventBookingStatusUpdated,
		Timestamp: time.Now(),
	})
	require.Eventually(t, func() bool {
		return !hub.IsConnected(slow.ID)
	}, time.Second, 5*time.Millisecond)

	// The read loop may still be dispatching inbound messages after the
	// drop; replies must be discarded, not panic on the closed channel
	assert.NotPanics(t, func() {
		slow.sendJSON(map[string]interface{}{"type": "pong"})
	})
	assert.False(t, slow.trySend([]byte("{}")))

	// The eventual unregister from the read loop must also be harmless
	assert.NotPanics(t, func() {
		hub.Unregister <- slow
		require.Eventually(t, func() bool {
			return !hub.IsConnected(slow.ID)
		}, time.Second, 5*time.Millisecond)
	})
}
