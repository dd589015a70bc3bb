package services

import (
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rightbridge-server/config"
	"rightbridge-server/models"
)

func setupEmailTestConfig() {
	config.AppConfig = &config.Config{
		Email: config.EmailConfig{
			Host:         "localhost",
			Port:         587,
			From:         "RightBridge <no-reply@rightbridge.test>",
			SupportEmail: "support@rightbridge.test",
		},
	}
}

func testBooking(status models.BookingStatus) *models.Booking {
	providerID := uint(9)
	return &models.Booking{
		ID:                 101,
		ServiceID:          3,
		CustomerID:         5,
		AssignedProviderID: &providerID,
		Date:               time.Date(2025, time.June, 12, 9, 0, 0, 0, time.UTC),
		Status:             status,
		Service:            models.Service{ID: 3, Title: "Kitchen Sink Repair"},
		Customer:           models.User{ID: 5, Name: "Asha", Email: "asha@example.com"},
		AssignedProvider:   &models.User{ID: 9, Name: "Mo", Email: "mo@example.com"},
	}
}

func TestRenderStatusUpdateAssigned(t *testing.T) {
	setupEmailTestConfig()

	body, err := RenderStatusUpdate(testBooking(models.BookingStatusAssigned))
	require.NoError(t, err)

	assert.Contains(t, body, "A provider has been assigned to your booking")
	assert.Contains(t, body, "Kitchen Sink Repair")
	assert.Contains(t, body, "Asha")
	assert.Contains(t, body, "Mo")
	assert.Contains(t, body, "support@rightbridge.test")
}

func TestRenderStatusUpdateInProgress(t *testing.T) {
	setupEmailTestConfig()

	body, err := RenderStatusUpdate(testBooking(models.BookingStatusInProgress))
	require.NoError(t, err)

	assert.Contains(t, body, "Service is in progress")
}

func TestRenderStatusUpdateCancelled(t *testing.T) {
	setupEmailTestConfig()

	body, err := RenderStatusUpdate(testBooking(models.BookingStatusCancelled))
	require.NoError(t, err)

	assert.Contains(t, body, "Booking has been cancelled")
	assert.NotContains(t, body, "Completion Notes")
}

func TestRenderStatusUpdateCompletedIncludesWorkRecord(t *testing.T) {
	setupEmailTestConfig()

	booking := testBooking(models.BookingStatusCompleted)
	completedAt := time.Now()
	booking.WorkCompleted = models.WorkCompletion{
		Completed:   true,
		CompletedAt: &completedAt,
		Notes:       "Replaced the trap and resealed the drain",
		Images:      pq.StringArray{"https://cdn.example.com/photo1.jpg"},
	}

	body, err := RenderStatusUpdate(booking)
	require.NoError(t, err)

	assert.Contains(t, body, "Service has been completed")
	assert.Contains(t, body, "Replaced the trap and resealed the drain")
	assert.Contains(t, body, "https://cdn.example.com/photo1.jpg")
}

func TestRenderStatusUpdateEscapesCustomerContent(t *testing.T) {
	setupEmailTestConfig()

	booking := testBooking(models.BookingStatusCompleted)
	booking.WorkCompleted = models.WorkCompletion{
		Completed: true,
		Notes:     "<script>alert('x')</script>",
	}

	body, err := RenderStatusUpdate(booking)
	require.NoError(t, err)

	assert.NotContains(t, body, "<script>")
}
