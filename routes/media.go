package routes

import (
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
	log "github.com/sirupsen/logrus"

	"rightbridge-server/database"
	"rightbridge-server/models"
)

// validateImageFile validates mimetype and size (<= 5MB)
func validateImageFile(h *multipart.FileHeader) bool {
	if h == nil || h.Size <= 0 || h.Size > 5*1024*1024 {
		return false
	}
	ext := strings.ToLower(filepath.Ext(h.Filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".webp":
		return true
	default:
		return false
	}
}

// newCloudinary builds a client from CLOUDINARY_* environment variables
func newCloudinary() (*cloudinary.Cloudinary, error) {
	cloudName := os.Getenv("CLOUDINARY_CLOUD_NAME")
	apiKey := os.Getenv("CLOUDINARY_API_KEY")
	apiSecret := os.Getenv("CLOUDINARY_API_SECRET")
	if cloudName == "" || apiKey == "" || apiSecret == "" {
		return nil, fmt.Errorf("cloudinary is not configured")
	}
	return cloudinary.NewFromURL(fmt.Sprintf("cloudinary://%s:%s@%s", apiKey, apiSecret, cloudName))
}

// RegisterMediaRoutes registers the work photo upload endpoint
func RegisterMediaRoutes(router *gin.RouterGroup) {
	router.POST("/bookings/:id/work-photos", UploadWorkPhotos)
}

// UploadWorkPhotos accepts multipart photo uploads for a booking, stores them
// in Cloudinary, and appends the resulting URLs to the booking's work record.
// Only the assigned provider may upload, and only while the booking is in
// progress or completed.
func UploadWorkPhotos(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	userID := c.GetUint("user_id")

	var booking models.Booking
	if err := database.DB.First(&booking, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Not found",
			"message": "Booking not found",
		})
		return
	}

	if booking.AssignedProviderID == nil || *booking.AssignedProviderID != userID {
		c.JSON(http.StatusForbidden, gin.H{
			"error":   "Forbidden",
			"message": "Only the assigned provider can upload work photos",
		})
		return
	}
	if booking.Status != models.BookingStatusInProgress && booking.Status != models.BookingStatusCompleted {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":   "Invalid status transition",
			"message": "Work photos can only be added to in-progress or completed bookings",
		})
		return
	}

	if err := c.Request.ParseMultipartForm(10 << 20); err != nil { // 10MB
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"message": "Invalid form data",
		})
		return
	}

	form := c.Request.MultipartForm
	headers := form.File["photos"]
	if len(headers) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"message": "No files provided",
		})
		return
	}
	for _, h := range headers {
		if !validateImageFile(h) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid request",
				"message": fmt.Sprintf("Invalid image file: %s", h.Filename),
			})
			return
		}
	}

	cld, err := newCloudinary()
	if err != nil {
		log.Errorf("cloudinary init failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal server error",
			"message": "Image storage is not configured",
		})
		return
	}

	ctx := context.Background()
	folder := fmt.Sprintf("bookings/%d/work_photos", booking.ID)
	overwrite := true
	unique := true

	urls := make([]string, 0, len(headers))
	for _, h := range headers {
		file, err := h.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid request",
				"message": fmt.Sprintf("Failed to read file: %s", h.Filename),
			})
			return
		}

		up, err := cld.Upload.Upload(ctx, file, uploader.UploadParams{
			Folder:         folder,
			PublicID:       strings.TrimSuffix(h.Filename, filepath.Ext(h.Filename)),
			Overwrite:      &overwrite,
			UniqueFilename: &unique,
			ResourceType:   "image",
		})
		file.Close()
		if err != nil {
			log.Errorf("work photo upload failed for booking %d: %v", booking.ID, err)
			c.JSON(http.StatusBadGateway, gin.H{
				"error":   "Upload failed",
				"message": fmt.Sprintf("Failed to upload %s", h.Filename),
			})
			return
		}
		urls = append(urls, up.SecureURL)
	}

	images := append([]string(booking.WorkCompleted.Images), urls...)
	if err := database.DB.Model(&booking).Update("work_images", pq.StringArray(images)).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal server error",
			"message": "Failed to save photo URLs",
		})
		return
	}

	log.Infof("provider %d uploaded %d work photos for booking %d", userID, len(urls), booking.ID)
	c.JSON(http.StatusOK, gin.H{
		"uploaded": urls,
		"images":   images,
	})
}
