package websocket

import (
	"time"

	log "github.com/sirupsen/logrus"

	"rightbridge-server/database"
	"rightbridge-server/models"
)

// DashboardBroadcaster publishes booking lifecycle events to the admin
// dashboard topic. All methods are best-effort: broadcast failures are logged
// and never surfaced to the request that triggered them.
type DashboardBroadcaster struct {
	hub *Hub
}

// NewDashboardBroadcaster creates a broadcaster bound to a hub
func NewDashboardBroadcaster(hub *Hub) *DashboardBroadcaster {
	return &DashboardBroadcaster{hub: hub}
}

// loadBooking fetches a booking with the relations the dashboard renders
func (b *DashboardBroadcaster) loadBooking(bookingID uint) (*models.Booking, error) {
	var booking models.Booking
	err := database.DB.
		Preload("Service").
		Preload("Customer").
		Preload("AssignedProvider").
		First(&booking, bookingID).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// BookingCreated notifies dashboard viewers of a new booking
func (b *DashboardBroadcaster) BookingCreated(bookingID uint) {
	booking, err := b.loadBooking(bookingID)
	if err != nil {
		log.Errorf("broadcast bookingCreated: failed to load booking %d: %v", bookingID, err)
		return
	}

	b.hub.Publish(TopicAdminDashboard, &Event{
		Type:      EventBookingCreated,
		Data:      booking,
		Timestamp: time.Now(),
	})
}

// StatusUpdated notifies dashboard viewers of a status change
func (b *DashboardBroadcaster) StatusUpdated(bookingID uint, previous models.BookingStatus) {
	booking, err := b.loadBooking(bookingID)
	if err != nil {
		log.Errorf("broadcast bookingStatusUpdated: failed to load booking %d: %v", bookingID, err)
		return
	}

	b.hub.Publish(TopicAdminDashboard, &Event{
		Type: EventBookingStatusUpdated,
		Data: map[string]interface{}{
			"booking":         booking,
			"previous_status": previous,
		},
		Timestamp: time.Now(),
	})
}

// ProviderAssigned notifies dashboard viewers that a provider was assigned
func (b *DashboardBroadcaster) ProviderAssigned(bookingID uint) {
	booking, err := b.loadBooking(bookingID)
	if err != nil {
		log.Errorf("broadcast providerAssigned: failed to load booking %d: %v", bookingID, err)
		return
	}

	b.hub.Publish(TopicAdminDashboard, &Event{
		Type:      EventProviderAssigned,
		Data:      booking,
		Timestamp: time.Now(),
	})
}

// BookingDeleted notifies dashboard viewers that a booking was removed. The
// row is gone by the time this runs, so only the id is published.
func (b *DashboardBroadcaster) BookingDeleted(bookingID uint) {
	b.hub.Publish(TopicAdminDashboard, &Event{
		Type: EventBookingDeleted,
		Data: map[string]interface{}{
			"booking_id": bookingID,
		},
		Timestamp: time.Now(),
	})
}
