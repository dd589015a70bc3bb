package routes

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"rightbridge-server/models"
	"rightbridge-server/services"
)

// respondServiceError maps service-layer sentinel errors to HTTP responses.
// Anything unrecognized is logged and reported as a 500.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Not found",
			"message": err.Error(),
		})
	case errors.Is(err, services.ErrInvalidArgument):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"message": err.Error(),
		})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{
			"error":   "Forbidden",
			"message": err.Error(),
		})
	case errors.Is(err, services.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{
			"error":   "Conflict",
			"message": err.Error(),
		})
	case errors.Is(err, services.ErrInvalidTransition):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":   "Invalid status transition",
			"message": err.Error(),
		})
	default:
		log.Errorf("unhandled error in %s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal server error",
			"message": "Something went wrong. Please try again.",
		})
	}
}

// currentUser returns the authenticated user set by AuthMiddleware
func currentUser(c *gin.Context) models.User {
	return c.MustGet("user").(models.User)
}

// parseIDParam parses a numeric path parameter, writing a 400 on failure
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"message": "Invalid " + name + " parameter",
		})
		return 0, false
	}
	return uint(id), true
}
