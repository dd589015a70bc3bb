package routes

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"rightbridge-server/database"
	"rightbridge-server/models"
)

type serviceRequest struct {
	Title       string  `json:"title" binding:"required"`
	Description string  `json:"description"`
	Price       float64 `json:"price" binding:"required,gt=0"`
	Category    string  `json:"category"`
	Image       string  `json:"image"`
	ProviderID  *uint   `json:"provider_id"`
}

// RegisterServiceRoutes registers the public service catalog endpoints
func RegisterServiceRoutes(router *gin.RouterGroup) {
	router.GET("/services", ListServices)
	router.GET("/services/:id", GetService)
}

// RegisterAdminServiceRoutes registers admin-only catalog management
func RegisterAdminServiceRoutes(router *gin.RouterGroup) {
	router.POST("/services", CreateService)
	router.PUT("/services/:id", UpdateService)
	router.DELETE("/services/:id", DeleteService)
}

// ListServices returns the catalog, optionally filtered by category or a
// case-insensitive title search
func ListServices(c *gin.Context) {
	query := database.DB.Model(&models.Service{}).Preload("Provider")

	if category := c.Query("category"); category != "" {
		query = query.Where("category = ?", category)
	}
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		query = query.Where("LOWER(title) LIKE ?", "%"+strings.ToLower(search)+"%")
	}

	var list []models.Service
	if err := query.Order("title ASC").Find(&list).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal server error",
			"message": "Failed to load services",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"services": list,
		"count":    len(list),
	})
}

// GetService returns a single catalog entry
func GetService(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var service models.Service
	if err := database.DB.Preload("Provider").First(&service, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Not found",
			"message": "Service not found",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"service": service})
}

// CreateService adds a catalog entry
func CreateService(c *gin.Context) {
	var req serviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"message": err.Error(),
		})
		return
	}

	if req.ProviderID != nil {
		var provider models.User
		if err := database.DB.First(&provider, *req.ProviderID).Error; err != nil || !provider.IsProvider() {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid request",
				"message": "provider_id must reference a service provider",
			})
			return
		}
	}

	service := models.Service{
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		Image:       req.Image,
		ProviderID:  req.ProviderID,
	}

	if err := database.DB.Create(&service).Error; err != nil {
		log.Errorf("failed to create service: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal server error",
			"message": "Failed to create service",
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"service": service})
}

// UpdateService edits a catalog entry. Price changes never touch existing
// bookings, whose totals were fixed at creation time.
func UpdateService(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var service models.Service
	if err := database.DB.First(&service, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Not found",
			"message": "Service not found",
		})
		return
	}

	var req serviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"message": err.Error(),
		})
		return
	}

	service.Title = strings.TrimSpace(req.Title)
	service.Description = req.Description
	service.Price = req.Price
	service.Category = req.Category
	service.Image = req.Image
	service.ProviderID = req.ProviderID

	if err := database.DB.Save(&service).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal server error",
			"message": "Failed to update service",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"service": service})
}

// DeleteService removes a catalog entry unless bookings reference it
func DeleteService(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var bookingCount int64
	database.DB.Model(&models.Booking{}).Where("service_id = ?", id).Count(&bookingCount)
	if bookingCount > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"message": "Service has bookings and cannot be deleted",
		})
		return
	}

	result := database.DB.Delete(&models.Service{}, id)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal server error",
			"message": "Failed to delete service",
		})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Not found",
			"message": "Service not found",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Service deleted"})
}
