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

// RegisterAdminDashboardRoutes registers the aggregate dashboard endpoints
func RegisterAdminDashboardRoutes(router *gin.RouterGroup) {
	router.GET("/stats", GetDashboardStats)
	router.GET("/services/stats", GetServiceStats)
	router.GET("/analytics/revenue", GetRevenueAnalytics)
}

// GetDashboardStats returns the admin dashboard aggregate: user counts per
// role, booking counts and sums per status, total completed revenue, a
// 12-slot monthly revenue series for the trailing year, and the five most
// recent bookings.
func GetDashboardStats(c *gin.Context) {
	// Users per role, total and active
	type roleRow struct {
		Role   models.UserRole
		Total  int64
		Active int64
	}
	var roleRows []roleRow
	if err := database.DB.Model(&models.User{}).
		Select("role, COUNT(*) as total, COUNT(*) FILTER (WHERE is_active) as active").
		Group("role").
		Scan(&roleRows).Error; err != nil {
		log.Errorf("dashboard stats: user counts failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal server error",
			"message": "Failed to load dashboard stats",
		})
		return
	}

	users := gin.H{}
	var totalUsers int64
	for _, row := range roleRows {
		users[string(row.Role)] = gin.H{
			"total":  row.Total,
			"active": row.Active,
		}
		totalUsers += row.Total
	}
	users["total"] = totalUsers

	// Bookings per status with amount sums
	type statusRow struct {
		Status models.BookingStatus
		Count  int64
		Amount float64
	}
	var statusRows []statusRow
	if err := database.DB.Model(&models.Booking{}).
		Select("status, COUNT(*) as count, COALESCE(SUM(total_amount), 0) as amount").
		Group("status").
		Scan(&statusRows).Error; err != nil {
		log.Errorf("dashboard stats: booking counts failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal server error",
			"message": "Failed to load dashboard stats",
		})
		return
	}

	bookings := gin.H{}
	var totalBookings int64
	var completedRevenue float64
	for _, row := range statusRows {
		bookings[string(row.Status)] = gin.H{
			"count":  row.Count,
			"amount": row.Amount,
		}
		totalBookings += row.Count
		if row.Status == models.BookingStatusCompleted {
			completedRevenue = row.Amount
		}
	}
	bookings["total"] = totalBookings

	// Monthly revenue from completed bookings over the trailing year,
	// bucketed by calendar month of completion
	monthly := make([]float64, 12)
	var completed []models.Booking
	since := utils.TrailingYear(time.Now())
	database.DB.
		Select("id", "total_amount", "completed_at").
		Where("status = ? AND completed_at >= ?", models.BookingStatusCompleted, since).
		Find(&completed)
	for _, b := range completed {
		if b.CompletedAt != nil {
			monthly[utils.MonthIndex(*b.CompletedAt)] += b.TotalAmount
		}
	}

	var recent []models.Booking
	database.DB.
		Preload("Service").
		Preload("Customer").
		Preload("AssignedProvider").
		Order("created_at DESC").
		Limit(5).
		Find(&recent)

	c.JSON(http.StatusOK, gin.H{
		"users":    users,
		"bookings": bookings,
		"revenue": gin.H{
			"total":   completedRevenue,
			"monthly": monthly,
		},
		"recent_bookings": recent,
	})
}

// GetServiceStats returns per-service booking volume and revenue
func GetServiceStats(c *gin.Context) {
	type serviceRow struct {
		ServiceID     uint    `json:"service_id"`
		Title         string  `json:"title"`
		Category      string  `json:"category"`
		BookingCount  int64   `json:"booking_count"`
		Revenue       float64 `json:"revenue"`
		AverageRating float64 `json:"average_rating"`
	}

	var rows []serviceRow
	err := database.DB.Model(&models.Booking{}).
		Select(`bookings.service_id,
			services.title,
			services.category,
			COUNT(*) as booking_count,
			COALESCE(SUM(bookings.total_amount) FILTER (WHERE bookings.status = ?), 0) as revenue,
			COALESCE(AVG(providers.rating_average), 0) as average_rating`,
			models.BookingStatusCompleted).
		Joins("JOIN services ON services.id = bookings.service_id").
		Joins("LEFT JOIN users providers ON providers.id = bookings.assigned_provider_id").
		Group("bookings.service_id, services.title, services.category").
		Order("booking_count DESC").
		Scan(&rows).Error
	if err != nil {
		log.Errorf("service stats failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal server error",
			"message": "Failed to load service stats",
		})
		return
	}

	var totalServices int64
	database.DB.Model(&models.Service{}).Count(&totalServices)

	c.JSON(http.StatusOK, gin.H{
		"total_services": totalServices,
		"services":       rows,
	})
}

// GetRevenueAnalytics returns completed revenue grouped into daily, weekly,
// or monthly buckets over the trailing year.
func GetRevenueAnalytics(c *gin.Context) {
	granularity := c.Query("granularity")
	if granularity == "" {
		granularity = c.DefaultQuery("period", utils.GranularityMonthly)
	}
	switch granularity {
	case utils.GranularityDaily, utils.GranularityWeekly, utils.GranularityMonthly:
	default:
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"message": "granularity must be daily, weekly, or monthly",
		})
		return
	}

	since := utils.TrailingYear(time.Now())

	var completed []models.Booking
	err := database.DB.
		Select("id", "total_amount", "completed_at").
		Where("status = ? AND completed_at >= ?", models.BookingStatusCompleted, since).
		Order("completed_at ASC").
		Find(&completed).Error
	if err != nil {
		log.Errorf("revenue analytics failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal server error",
			"message": "Failed to load revenue analytics",
		})
		return
	}

	type bucket struct {
		Period        string  `json:"period"`
		Revenue       float64 `json:"revenue"`
		Count         int64   `json:"count"`
		AvgOrderValue float64 `json:"avg_order_value"`
	}

	totals := make(map[string]*bucket)
	order := []string{}
	for _, b := range completed {
		if b.CompletedAt == nil {
			continue
		}
		key := utils.RevenueBucketKey(granularity, *b.CompletedAt)
		entry, ok := totals[key]
		if !ok {
			entry = &bucket{Period: key}
			totals[key] = entry
			order = append(order, key)
		}
		entry.Revenue += b.TotalAmount
		entry.Count++
	}

	series := make([]bucket, 0, len(order))
	var total float64
	for _, key := range order {
		entry := totals[key]
		if entry.Count > 0 {
			entry.AvgOrderValue = entry.Revenue / float64(entry.Count)
		}
		series = append(series, *entry)
		total += entry.Revenue
	}

	c.JSON(http.StatusOK, gin.H{
		"granularity": granularity,
		"total":       total,
		"series":      series,
	})
}
