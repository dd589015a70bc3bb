package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"rightbridge-server/database"
	"rightbridge-server/models"
	"rightbridge-server/utils"
)

// RegisterReportRoutes registers the admin reporting endpoints. All accept a
// ?period=week|month|year query, defaulting to week.
func RegisterReportRoutes(router *gin.RouterGroup) {
	router.GET("/reports/stats", GetReportStats)
	router.GET("/reports/providers", GetProviderReport)
	router.GET("/reports/services", GetServiceReport)
	router.GET("/reports/services/distribution", GetServiceReport)
	router.GET("/reports/distribution", GetStatusDistribution)
	router.GET("/reports/trends", GetBookingTrends)
}

func reportPeriod(c *gin.Context) (string, time.Time, time.Time) {
	period := c.DefaultQuery("period", utils.PeriodWeek)
	switch period {
	case utils.PeriodWeek, utils.PeriodMonth, utils.PeriodYear:
	default:
		period = utils.PeriodWeek
	}
	start, end := utils.PeriodRange(period, time.Now())
	return period, start, end
}

// GetReportStats returns headline numbers for the selected period
func GetReportStats(c *gin.Context) {
	period, start, end := reportPeriod(c)

	var totalBookings int64
	var completedBookings int64
	var cancelledBookings int64
	var revenue float64
	var newUsers int64

	base := database.DB.Model(&models.Booking{}).Where("created_at BETWEEN ? AND ?", start, end)
	base.Count(&totalBookings)

	database.DB.Model(&models.Booking{}).
		Where("status = ? AND completed_at BETWEEN ? AND ?", models.BookingStatusCompleted, start, end).
		Count(&completedBookings)
	database.DB.Model(&models.Booking{}).
		Where("status = ? AND cancelled_at BETWEEN ? AND ?", models.BookingStatusCancelled, start, end).
		Count(&cancelledBookings)

	row := database.DB.Model(&models.Booking{}).
		Where("status = ? AND completed_at BETWEEN ? AND ?", models.BookingStatusCompleted, start, end).
		Select("COALESCE(SUM(total_amount), 0)").
		Row()
	if err := row.Scan(&revenue); err != nil {
		log.Errorf("report stats: revenue scan failed: %v", err)
	}

	database.DB.Model(&models.User{}).
		Where("created_at BETWEEN ? AND ?", start, end).
		Count(&newUsers)

	c.JSON(http.StatusOK, gin.H{
		"period":       period,
		"period_start": start,
		"period_end":   end,
		"bookings": gin.H{
			"total":     totalBookings,
			"completed": completedBookings,
			"cancelled": cancelledBookings,
		},
		"revenue":   revenue,
		"new_users": newUsers,
	})
}

// GetProviderReport ranks providers by completed bookings in the period
func GetProviderReport(c *gin.Context) {
	period, start, end := reportPeriod(c)

	type providerRow struct {
		ProviderID     uint    `json:"provider_id"`
		Name           string  `json:"name"`
		Assigned       int64   `json:"assigned"`
		Completed      int64   `json:"completed"`
		CompletionRate float64 `json:"completion_rate"`
		Revenue        float64 `json:"revenue"`
		RatingAverage  float64 `json:"rating_average"`
	}

	var rows []providerRow
	err := database.DB.Model(&models.Booking{}).
		Select(`bookings.assigned_provider_id as provider_id,
			users.name,
			COUNT(*) as assigned,
			COUNT(*) FILTER (WHERE bookings.status = ?) as completed,
			COALESCE(SUM(bookings.total_amount) FILTER (WHERE bookings.status = ?), 0) as revenue,
			users.rating_average`,
			models.BookingStatusCompleted, models.BookingStatusCompleted).
		Joins("JOIN users ON users.id = bookings.assigned_provider_id").
		Where("bookings.assigned_provider_id IS NOT NULL AND bookings.created_at BETWEEN ? AND ?",
			start, end).
		Group("bookings.assigned_provider_id, users.name, users.rating_average").
		Order("completed DESC").
		Scan(&rows).Error
	if err != nil {
		log.Errorf("provider report failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal server error",
			"message": "Failed to load provider report",
		})
		return
	}

	for i := range rows {
		if rows[i].Assigned > 0 {
			rows[i].CompletionRate = float64(rows[i].Completed) / float64(rows[i].Assigned)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"period":    period,
		"providers": rows,
	})
}

// GetServiceReport ranks services by booking volume in the period
func GetServiceReport(c *gin.Context) {
	period, start, end := reportPeriod(c)

	type serviceRow struct {
		ServiceID uint    `json:"service_id"`
		Title     string  `json:"title"`
		Bookings  int64   `json:"bookings"`
		Revenue   float64 `json:"revenue"`
	}

	var rows []serviceRow
	err := database.DB.Model(&models.Booking{}).
		Select(`bookings.service_id,
			services.title,
			COUNT(*) as bookings,
			COALESCE(SUM(bookings.total_amount) FILTER (WHERE bookings.status = ?), 0) as revenue`,
			models.BookingStatusCompleted).
		Joins("JOIN services ON services.id = bookings.service_id").
		Where("bookings.created_at BETWEEN ? AND ?", start, end).
		Group("bookings.service_id, services.title").
		Order("bookings DESC").
		Scan(&rows).Error
	if err != nil {
		log.Errorf("service report failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal server error",
			"message": "Failed to load service report",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"period":   period,
		"services": rows,
	})
}

// GetStatusDistribution returns booking counts per status for the period
func GetStatusDistribution(c *gin.Context) {
	period, start, end := reportPeriod(c)

	type statusRow struct {
		Status models.BookingStatus `json:"status"`
		Count  int64                `json:"count"`
	}

	var rows []statusRow
	err := database.DB.Model(&models.Booking{}).
		Select("status, COUNT(*) as count").
		Where("created_at BETWEEN ? AND ?", start, end).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		log.Errorf("status distribution failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal server error",
			"message": "Failed to load status distribution",
		})
		return
	}

	distribution := gin.H{}
	var total int64
	for _, row := range rows {
		distribution[string(row.Status)] = row.Count
		total += row.Count
	}

	c.JSON(http.StatusOK, gin.H{
		"period":       period,
		"total":        total,
		"distribution": distribution,
	})
}

// GetBookingTrends returns a bucketed booking-count series for the period:
// by weekday for weekly reports (1=Sunday), by day of month for monthly, and
// by month for yearly.
func GetBookingTrends(c *gin.Context) {
	period, start, end := reportPeriod(c)

	var bookings []models.Booking
	err := database.DB.
		Select("id", "created_at", "total_amount", "status").
		Where("created_at BETWEEN ? AND ?", start, end).
		Find(&bookings).Error
	if err != nil {
		log.Errorf("booking trends failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal server error",
			"message": "Failed to load booking trends",
		})
		return
	}

	type trendBucket struct {
		Bucket   int     `json:"bucket"`
		Bookings int64   `json:"bookings"`
		Revenue  float64 `json:"revenue"`
	}

	size := 7
	switch period {
	case utils.PeriodMonth:
		size = 31
	case utils.PeriodYear:
		size = 12
	}

	buckets := make([]trendBucket, size)
	for i := range buckets {
		buckets[i].Bucket = i + 1
	}
	for _, b := range bookings {
		idx := utils.TrendBucket(period, b.CreatedAt) - 1
		if idx < 0 || idx >= size {
			continue
		}
		buckets[idx].Bookings++
		if b.Status == models.BookingStatusCompleted {
			buckets[idx].Revenue += b.TotalAmount
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"period": period,
		"trends": buckets,
	})
}
