package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"rightbridge-server/models"
	"rightbridge-server/services"
)

// BookingRoutes registers booking endpoints for authenticated users and the
// admin-only assignment and deletion endpoints.
type BookingRoutes struct {
	bookings *services.BookingService
}

// NewBookingRoutes creates the booking route handlers
func NewBookingRoutes(bookings *services.BookingService) *BookingRoutes {
	return &BookingRoutes{bookings: bookings}
}

// Register wires the authenticated booking endpoints
func (r *BookingRoutes) Register(router *gin.RouterGroup) {
	router.POST("/bookings", r.CreateBooking)
	router.GET("/bookings/my", r.GetMyBookings)
	router.GET("/bookings/provider", r.GetAssignedBookings)
	router.GET("/bookings/:id", r.GetBooking)
	router.PUT("/bookings/:id/status", r.UpdateBookingStatus)
}

// RegisterAdmin wires the admin-only booking endpoints
func (r *BookingRoutes) RegisterAdmin(router *gin.RouterGroup) {
	router.GET("/bookings", r.ListAllBookings)
	router.GET("/bookings/unassigned", r.ListUnassignedBookings)
	router.PUT("/bookings/:id", r.UpdateBooking)
	router.PUT("/bookings/:id/assign-provider", r.AssignProvider)
	router.DELETE("/bookings/:id", r.DeleteBooking)
}

// CreateBooking creates a pending booking for the authenticated customer
func (r *BookingRoutes) CreateBooking(c *gin.Context) {
	var input services.CreateBookingInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"message": err.Error(),
		})
		return
	}

	booking, err := r.bookings.CreateBooking(c.GetUint("user_id"), input)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"booking": booking})
}

// GetMyBookings returns the authenticated customer's bookings
func (r *BookingRoutes) GetMyBookings(c *gin.Context) {
	bookings, err := r.bookings.ListCustomerBookings(c.GetUint("user_id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"bookings": bookings,
		"count":    len(bookings),
	})
}

// GetAssignedBookings returns the bookings assigned to the authenticated
// provider
func (r *BookingRoutes) GetAssignedBookings(c *gin.Context) {
	user := currentUser(c)
	bookings, err := r.bookings.ListProviderBookings(&user)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"bookings": bookings,
		"count":    len(bookings),
	})
}

// GetBooking returns a single booking visible to the caller
func (r *BookingRoutes) GetBooking(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	user := currentUser(c)
	booking, err := r.bookings.GetBooking(id, &user)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"booking": booking})
}

// UpdateBookingStatus requests a status transition on a booking
func (r *BookingRoutes) UpdateBookingStatus(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var input services.UpdateStatusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"message": err.Error(),
		})
		return
	}

	user := currentUser(c)
	booking, err := r.bookings.UpdateStatus(id, &user, input)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"booking": booking})
}

// UpdateBooking edits a booking as an admin: a status change, schedule
// details, or both. Status changes go through the same transition rules as
// the provider-facing endpoint.
func (r *BookingRoutes) UpdateBooking(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Status   models.BookingStatus `json:"status"`
		Notes    string               `json:"notes"`
		Date     *time.Time           `json:"date"`
		Address  *string              `json:"address"`
		Quantity *int                 `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"message": err.Error(),
		})
		return
	}

	user := currentUser(c)
	var booking *models.Booking
	var err error

	if req.Date != nil || req.Address != nil || req.Quantity != nil {
		booking, err = r.bookings.UpdateBookingDetails(id, services.UpdateBookingInput{
			Date:     req.Date,
			Address:  req.Address,
			Quantity: req.Quantity,
		})
		if err != nil {
			respondServiceError(c, err)
			return
		}
	}

	if req.Status != "" {
		booking, err = r.bookings.UpdateStatus(id, &user, services.UpdateStatusInput{
			Status: req.Status,
			Notes:  req.Notes,
		})
		if err != nil {
			respondServiceError(c, err)
			return
		}
	}

	if booking == nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"message": "No fields to update",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"booking": booking})
}

// ListAllBookings returns every booking, optionally filtered by status
func (r *BookingRoutes) ListAllBookings(c *gin.Context) {
	status := models.BookingStatus(c.Query("status"))
	bookings, err := r.bookings.ListAllBookings(status)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"bookings": bookings,
		"count":    len(bookings),
	})
}

// ListUnassignedBookings returns pending bookings awaiting assignment
func (r *BookingRoutes) ListUnassignedBookings(c *gin.Context) {
	bookings, err := r.bookings.ListUnassignedBookings()
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"bookings": bookings,
		"count":    len(bookings),
	})
}

// AssignProvider assigns a service provider to a booking
func (r *BookingRoutes) AssignProvider(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		ProviderID uint `json:"provider_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"message": err.Error(),
		})
		return
	}

	booking, err := r.bookings.AssignProvider(id, req.ProviderID, c.GetUint("user_id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"booking": booking})
}

// DeleteBooking removes a booking entirely
func (r *BookingRoutes) DeleteBooking(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := r.bookings.DeleteBooking(id); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Booking deleted",
	})
}
