package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"rightbridge-server/models"
	"rightbridge-server/websocket"
)

// CreateBookingInput carries the customer-supplied fields of a new booking
type CreateBookingInput struct {
	ServiceID uint      `json:"service_id" binding:"required"`
	Date      time.Time `json:"date" binding:"required"`
	Address   string    `json:"address" binding:"required"`
	Notes     string    `json:"notes"`
	Quantity  int       `json:"quantity"`
}

// UpdateBookingInput carries editable schedule details of a booking
type UpdateBookingInput struct {
	Date     *time.Time `json:"date"`
	Address  *string    `json:"address"`
	Notes    *string    `json:"notes"`
	Quantity *int       `json:"quantity"`
}

// UpdateStatusInput carries a requested status transition
type UpdateStatusInput struct {
	Status models.BookingStatus `json:"status" binding:"required"`
	Notes  string               `json:"notes"`
	Images []string             `json:"images"`
}

// BookingService implements the booking lifecycle: creation, provider
// assignment, status transitions, and queries. Every mutation appends to the
// status history inside the same transaction; dashboard events and emails
// fire only after the transaction commits.
type BookingService struct {
	db          *gorm.DB
	broadcaster *websocket.DashboardBroadcaster
	email       *EmailService
}

// NewBookingService wires the booking service with its side-effect sinks
func NewBookingService(db *gorm.DB, broadcaster *websocket.DashboardBroadcaster, email *EmailService) *BookingService {
	return &BookingService{
		db:          db,
		broadcaster: broadcaster,
		email:       email,
	}
}

// bookingPreloads loads the relations API responses render
func bookingPreloads(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Service").
		Preload("Customer").
		Preload("AssignedProvider").
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB {
			return db.Order("changed_at ASC")
		})
}

// CreateBooking creates a pending booking for a customer. The total amount is
// computed from the current service price, never taken from the client.
func (s *BookingService) CreateBooking(customerID uint, input CreateBookingInput) (*models.Booking, error) {
	var service models.Service
	if err := s.db.First(&service, input.ServiceID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: service %d", ErrNotFound, input.ServiceID)
		}
		return nil, err
	}

	quantity := input.Quantity
	if quantity < 1 {
		quantity = 1
	}
	if input.Address == "" {
		return nil, fmt.Errorf("%w: address is required", ErrInvalidArgument)
	}

	booking := models.Booking{
		ServiceID:   service.ID,
		CustomerID:  customerID,
		Date:        input.Date,
		Address:     input.Address,
		Notes:       input.Notes,
		Quantity:    quantity,
		TotalAmount: service.Price * float64(quantity),
		Status:      models.BookingStatusPending,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&booking).Error; err != nil {
			return err
		}
		return tx.Create(&models.BookingStatusHistory{
			BookingID:   booking.ID,
			Status:      models.BookingStatusPending,
			ChangedByID: customerID,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	log.Infof("booking %d created by customer %d for service %d", booking.ID, customerID, service.ID)
	s.broadcaster.BookingCreated(booking.ID)

	return s.loadBooking(booking.ID)
}

// AssignProvider assigns a provider to a booking. Allowed from any
// non-terminal state; assigning while pending also advances the booking to
// assigned. Reassignment later in the lifecycle keeps the current status.
func (s *BookingService) AssignProvider(bookingID, providerID, actorID uint) (*models.Booking, error) {
	booking, err := s.loadBooking(bookingID)
	if err != nil {
		return nil, err
	}

	if booking.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: booking is %s", ErrInvalidTransition, booking.Status)
	}

	var provider models.User
	if err := s.db.First(&provider, providerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: provider %d", ErrNotFound, providerID)
		}
		return nil, err
	}
	if !provider.IsProvider() {
		return nil, fmt.Errorf("%w: user %d is not a service provider", ErrInvalidArgument, providerID)
	}
	if !provider.IsActive {
		return nil, fmt.Errorf("%w: provider %d is deactivated", ErrInvalidArgument, providerID)
	}

	previous := booking.Status
	nextStatus := booking.Status
	if booking.Status == models.BookingStatusPending {
		nextStatus = models.BookingStatusAssigned
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"assigned_provider_id": providerID,
			"status":               nextStatus,
			"version":              booking.Version + 1,
		}

		result := tx.Model(&models.Booking{}).
			Where("id = ? AND version = ?", booking.ID, booking.Version).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: booking %d was modified concurrently", ErrConflict, booking.ID)
		}

		// Audit trail grows on every assignment, including reassignments
		// that keep the current status
		note := ""
		if nextStatus == previous {
			note = "provider reassigned"
		}
		return tx.Create(&models.BookingStatusHistory{
			BookingID:   booking.ID,
			Status:      nextStatus,
			ChangedByID: actorID,
			Notes:       note,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	log.Infof("provider %d assigned to booking %d by user %d", providerID, bookingID, actorID)

	updated, err := s.loadBooking(bookingID)
	if err != nil {
		return nil, err
	}

	s.broadcaster.ProviderAssigned(bookingID)
	if nextStatus != previous {
		s.broadcaster.StatusUpdated(bookingID, previous)
		s.email.SendStatusUpdate(updated)
	}

	return updated, nil
}

// UpdateBookingDetails edits a booking's date, address, notes, or quantity.
// Only non-terminal bookings can be edited; quantity changes recompute the
// total from the current service price.
func (s *BookingService) UpdateBookingDetails(bookingID uint, input UpdateBookingInput) (*models.Booking, error) {
	booking, err := s.loadBooking(bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: booking is %s", ErrInvalidTransition, booking.Status)
	}

	updates := map[string]interface{}{}
	if input.Date != nil {
		updates["date"] = *input.Date
	}
	if input.Address != nil {
		if *input.Address == "" {
			return nil, fmt.Errorf("%w: address cannot be empty", ErrInvalidArgument)
		}
		updates["address"] = *input.Address
	}
	if input.Notes != nil {
		updates["notes"] = *input.Notes
	}
	if input.Quantity != nil {
		if *input.Quantity < 1 {
			return nil, fmt.Errorf("%w: quantity must be at least 1", ErrInvalidArgument)
		}
		updates["quantity"] = *input.Quantity
		updates["total_amount"] = booking.Service.Price * float64(*input.Quantity)
	}
	if len(updates) == 0 {
		return nil, fmt.Errorf("%w: no fields to update", ErrInvalidArgument)
	}
	updates["version"] = booking.Version + 1

	result := s.db.Model(&models.Booking{}).
		Where("id = ? AND version = ?", booking.ID, booking.Version).
		Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: booking %d was modified concurrently", ErrConflict, booking.ID)
	}

	return s.loadBooking(bookingID)
}

// UpdateStatus moves a booking to the requested status after checking that
// the transition is legal and that the actor is allowed to make it. Returns
// ErrConflict when a concurrent update wins the race.
func (s *BookingService) UpdateStatus(bookingID uint, actor *models.User, input UpdateStatusInput) (*models.Booking, error) {
	if !input.Status.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidArgument, input.Status)
	}

	booking, err := s.loadBooking(bookingID)
	if err != nil {
		return nil, err
	}

	if err := s.authorizeTransition(booking, actor, input.Status); err != nil {
		return nil, err
	}

	if !booking.Status.CanTransitionTo(input.Status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, booking.Status, input.Status)
	}

	previous := booking.Status
	now := time.Now()

	updates := map[string]interface{}{
		"status":  input.Status,
		"version": booking.Version + 1,
	}
	switch input.Status {
	case models.BookingStatusInProgress:
		updates["started_at"] = now
	case models.BookingStatusCompleted:
		updates["completed_at"] = now
		updates["work_completed"] = true
		updates["work_completed_at"] = now
		updates["work_notes"] = input.Notes
		updates["work_completed_by_id"] = actor.ID
		if len(input.Images) > 0 {
			updates["work_images"] = pq.StringArray(input.Images)
		}
	case models.BookingStatusCancelled:
		updates["cancelled_at"] = now
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Booking{}).
			Where("id = ? AND version = ?", booking.ID, booking.Version).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: booking %d was modified concurrently", ErrConflict, booking.ID)
		}

		return tx.Create(&models.BookingStatusHistory{
			BookingID:   booking.ID,
			Status:      input.Status,
			ChangedByID: actor.ID,
			Notes:       input.Notes,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	log.Infof("booking %d moved %s -> %s by user %d", bookingID, previous, input.Status, actor.ID)

	updated, err := s.loadBooking(bookingID)
	if err != nil {
		return nil, err
	}

	s.broadcaster.StatusUpdated(bookingID, previous)
	s.email.SendStatusUpdate(updated)

	return updated, nil
}

// authorizeTransition enforces who may request which transition: admins may
// make any legal transition, the assigned provider may start and complete
// their own bookings, and customers may only cancel their own.
func (s *BookingService) authorizeTransition(booking *models.Booking, actor *models.User, next models.BookingStatus) error {
	if actor.IsAdmin() {
		return nil
	}

	if actor.IsProvider() {
		if booking.AssignedProviderID == nil || *booking.AssignedProviderID != actor.ID {
			return fmt.Errorf("%w: booking is not assigned to you", ErrForbidden)
		}
		if next == models.BookingStatusInProgress || next == models.BookingStatusCompleted {
			return nil
		}
		return fmt.Errorf("%w: providers may only start or complete bookings", ErrForbidden)
	}

	// Customers
	if booking.CustomerID != actor.ID {
		return fmt.Errorf("%w: not your booking", ErrForbidden)
	}
	if next != models.BookingStatusCancelled {
		return fmt.Errorf("%w: customers may only cancel bookings", ErrForbidden)
	}
	return nil
}

// DeleteBooking removes a booking and its history. Admin only, enforced by
// the route.
func (s *BookingService) DeleteBooking(bookingID uint) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&models.Booking{}, bookingID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: booking %d", ErrNotFound, bookingID)
		}
		return tx.Where("booking_id = ?", bookingID).Delete(&models.BookingStatusHistory{}).Error
	})
	if err != nil {
		return err
	}

	log.Infof("booking %d deleted", bookingID)
	s.broadcaster.BookingDeleted(bookingID)
	return nil
}

// GetBooking returns a booking the actor is allowed to see: the customer who
// made it, the provider assigned to it, or any admin.
func (s *BookingService) GetBooking(bookingID uint, actor *models.User) (*models.Booking, error) {
	booking, err := s.loadBooking(bookingID)
	if err != nil {
		return nil, err
	}

	if actor.IsAdmin() {
		return booking, nil
	}
	if booking.CustomerID == actor.ID {
		return booking, nil
	}
	if booking.AssignedProviderID != nil && *booking.AssignedProviderID == actor.ID {
		return booking, nil
	}

	return nil, fmt.Errorf("%w: not your booking", ErrForbidden)
}

// ListCustomerBookings returns a customer's own bookings, newest first
func (s *BookingService) ListCustomerBookings(customerID uint) ([]models.Booking, error) {
	var bookings []models.Booking
	err := bookingPreloads(s.db).
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Find(&bookings).Error
	return bookings, err
}

// ListProviderBookings returns the bookings assigned to a provider. Rejects
// callers who are not providers.
func (s *BookingService) ListProviderBookings(actor *models.User) ([]models.Booking, error) {
	if !actor.IsProvider() {
		return nil, fmt.Errorf("%w: provider role required", ErrForbidden)
	}

	var bookings []models.Booking
	err := bookingPreloads(s.db).
		Where("assigned_provider_id = ?", actor.ID).
		Order("date ASC").
		Find(&bookings).Error
	return bookings, err
}

// ListUnassignedBookings returns pending bookings with no provider yet
func (s *BookingService) ListUnassignedBookings() ([]models.Booking, error) {
	var bookings []models.Booking
	err := bookingPreloads(s.db).
		Where("assigned_provider_id IS NULL AND status = ?", models.BookingStatusPending).
		Order("created_at ASC").
		Find(&bookings).Error
	return bookings, err
}

// ListAllBookings returns every booking, optionally filtered by status
func (s *BookingService) ListAllBookings(status models.BookingStatus) ([]models.Booking, error) {
	query := bookingPreloads(s.db)
	if status != "" {
		if !status.IsValid() {
			return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidArgument, status)
		}
		query = query.Where("status = ?", status)
	}

	var bookings []models.Booking
	err := query.Order("created_at DESC").Find(&bookings).Error
	return bookings, err
}

func (s *BookingService) loadBooking(bookingID uint) (*models.Booking, error) {
	var booking models.Booking
	err := bookingPreloads(s.db).First(&booking, bookingID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: booking %d", ErrNotFound, bookingID)
		}
		return nil, err
	}
	return &booking, nil
}
