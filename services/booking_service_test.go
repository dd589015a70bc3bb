package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"rightbridge-server/models"
)

func authTestBooking() *models.Booking {
	providerID := uint(9)
	return &models.Booking{
		ID:                 1,
		CustomerID:         5,
		AssignedProviderID: &providerID,
		Status:             models.BookingStatusAssigned,
	}
}

func TestAuthorizeTransitionAdminAllowed(t *testing.T) {
	svc := &BookingService{}
	admin := &models.User{ID: 99, Role: models.RoleAdmin}

	err := svc.authorizeTransition(authTestBooking(), admin, models.BookingStatusCancelled)
	assert.NoError(t, err)
}

func TestAuthorizeTransitionAssignedProvider(t *testing.T) {
	svc := &BookingService{}
	provider := &models.User{ID: 9, Role: models.RoleProvider}
	booking := authTestBooking()

	assert.NoError(t, svc.authorizeTransition(booking, provider, models.BookingStatusInProgress))
	assert.NoError(t, svc.authorizeTransition(booking, provider, models.BookingStatusCompleted))

	err := svc.authorizeTransition(booking, provider, models.BookingStatusCancelled)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestAuthorizeTransitionOtherProviderForbidden(t *testing.T) {
	svc := &BookingService{}
	other := &models.User{ID: 10, Role: models.RoleProvider}

	err := svc.authorizeTransition(authTestBooking(), other, models.BookingStatusInProgress)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestAuthorizeTransitionUnassignedBookingForbiddenForProvider(t *testing.T) {
	svc := &BookingService{}
	provider := &models.User{ID: 9, Role: models.RoleProvider}
	booking := authTestBooking()
	booking.AssignedProviderID = nil

	err := svc.authorizeTransition(booking, provider, models.BookingStatusInProgress)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestAuthorizeTransitionCustomerMayOnlyCancelOwn(t *testing.T) {
	svc := &BookingService{}
	owner := &models.User{ID: 5, Role: models.RoleCustomer}
	stranger := &models.User{ID: 6, Role: models.RoleCustomer}
	booking := authTestBooking()

	assert.NoError(t, svc.authorizeTransition(booking, owner, models.BookingStatusCancelled))

	err := svc.authorizeTransition(booking, owner, models.BookingStatusCompleted)
	assert.ErrorIs(t, err, ErrForbidden)

	err = svc.authorizeTransition(booking, stranger, models.BookingStatusCancelled)
	assert.ErrorIs(t, err, ErrForbidden)
}
