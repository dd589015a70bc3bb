package websocket

import (
	"encoding/json"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// TopicAdminDashboard carries live booking events to admin viewers
const TopicAdminDashboard = "admin-dashboard"

// Event types published on the dashboard topic
const (
	EventBookingCreated       = "bookingCreated"
	EventBookingStatusUpdated = "bookingStatusUpdated"
	EventProviderAssigned     = "providerAssigned"
	EventBookingDeleted       = "bookingDeleted"
)

// Event is a structured message delivered to topic subscribers
type Event struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// publication pairs an event with the topic it is published on
type publication struct {
	topic string
	event *Event
}

// Hub owns the connection registry and topic subscriptions. Connections are
// keyed by connection id, added on connect and removed on disconnect.
type Hub struct {
	// Registered clients by connection id
	clients map[string]*Client

	// Topic subscriptions: topic -> set of connection ids
	topics map[string]map[string]bool

	// Register requests from clients
	Register chan *Client

	// Unregister requests from clients
	Unregister chan *Client

	publish chan publication

	mu sync.RWMutex
}

// NewHub creates a new hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		topics:     make(map[string]map[string]bool),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		publish:    make(chan publication, 64),
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.mu.Unlock()
			log.Debugf("dashboard client connected: conn=%s user=%d", client.ID, client.UserID)

		case client := <-h.Unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ID]; ok {
				for topic := range h.topics {
					delete(h.topics[topic], client.ID)
				}
				delete(h.clients, client.ID)
			}
			h.mu.Unlock()
			client.closeSend()
			log.Debugf("dashboard client disconnected: conn=%s user=%d", client.ID, client.UserID)

		case pub := <-h.publish:
			h.deliver(pub.topic, pub.event)
		}
	}
}

// Subscribe adds a client to a topic
func (h *Hub) Subscribe(client *Client, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.topics[topic] == nil {
		h.topics[topic] = make(map[string]bool)
	}
	h.topics[topic][client.ID] = true
}

// Unsubscribe removes a client from a topic
func (h *Hub) Unsubscribe(client *Client, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.topics[topic] != nil {
		delete(h.topics[topic], client.ID)
	}
}

// Publish queues an event for delivery to all subscribers of a topic.
// Never blocks the caller: when the queue is full the event is dropped.
func (h *Hub) Publish(topic string, event *Event) {
	select {
	case h.publish <- publication{topic: topic, event: event}:
	default:
		log.Warnf("event queue full, dropping %s event on %s", event.Type, topic)
	}
}

// deliver sends an event to every subscriber of a topic. Clients whose send
// buffer is full are disconnected rather than blocking delivery.
func (h *Hub) deliver(topic string, event *Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	data, err := json.Marshal(event)
	if err != nil {
		log.Errorf("error marshaling %s event: %v", event.Type, err)
		return
	}

	for connID := range h.topics[topic] {
		client, ok := h.clients[connID]
		if !ok {
			delete(h.topics[topic], connID)
			continue
		}
		if !client.trySend(data) {
			delete(h.topics[topic], connID)
			delete(h.clients, connID)
			client.closeSend()
			log.Warnf("dashboard client %s too slow, disconnected", connID)
		}
	}
}

// SubscriberCount returns the number of clients subscribed to a topic
func (h *Hub) SubscriberCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

// IsConnected checks if a connection is currently registered
func (h *Hub) IsConnected(connID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, exists := h.clients[connID]
	return exists
}
