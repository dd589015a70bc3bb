package main

import (
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"rightbridge-server/config"
	"rightbridge-server/database"
	"rightbridge-server/jobs"
	"rightbridge-server/middleware"
	"rightbridge-server/routes"
	"rightbridge-server/services"
	"rightbridge-server/websocket"
)

func setupLogging() {
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})
	if level, err := log.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		log.SetLevel(level)
	} else {
		log.SetLevel(log.InfoLevel)
	}
}

func main() {
	// .env is optional; real deployments use environment variables
	if err := godotenv.Load(); err != nil {
		log.Debug("no .env file found, using environment variables")
	}

	config.Load()
	setupLogging()
	gin.SetMode(config.AppConfig.Server.GinMode)

	if err := database.Initialize(); err != nil {
		log.Fatalf("database initialization failed: %v", err)
	}
	log.Info("database connected and migrated")

	// Live dashboard hub
	hub := websocket.NewHub()
	go hub.Run()

	broadcaster := websocket.NewDashboardBroadcaster(hub)
	emailService := services.NewEmailService()
	bookingService := services.NewBookingService(database.DB, broadcaster, emailService)

	reminderJob := jobs.NewReminderJob(emailService)
	if err := reminderJob.Start(); err != nil {
		log.Fatalf("failed to start reminder job: %v", err)
	}

	middleware.StartRateLimiterCleanup()

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.SecurityHeadersMiddleware())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.RateLimitMiddleware())

	router.GET("/health", func(c *gin.Context) {
		sqlDB, err := database.DB.DB()
		if err != nil || sqlDB.Ping() != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "down",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "ok",
			"database": "up",
		})
	})

	bookingRoutes := routes.NewBookingRoutes(bookingService)

	api := router.Group("/api")
	{
		authGroup := api.Group("/users")
		authGroup.Use(middleware.AuthRateLimitMiddleware())
		routes.RegisterAuthRoutes(authGroup)

		// Public catalog
		routes.RegisterServiceRoutes(api)
		routes.RegisterSkillRoutes(api)

		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware())
		{
			usersGroup := protected.Group("/users")
			routes.RegisterUserRoutes(usersGroup)

			bookingRoutes.Register(protected)
			routes.RegisterMediaRoutes(protected)
		}

		// Admin-gated endpoints that share the public path space: booking
		// management, catalog writes, reports
		adminOnly := api.Group("")
		adminOnly.Use(middleware.AuthMiddleware(), middleware.AdminMiddleware())
		{
			bookingRoutes.RegisterAdmin(adminOnly)
			routes.RegisterAdminServiceRoutes(adminOnly)
			routes.RegisterAdminSkillRoutes(adminOnly)
			routes.RegisterReportRoutes(adminOnly)
		}

		admin := api.Group("/admin")
		admin.Use(middleware.AuthMiddleware(), middleware.AdminMiddleware())
		{
			routes.RegisterAdminUserRoutes(admin)
			routes.RegisterAdminDashboardRoutes(admin)
		}
	}

	// Dashboard websocket, token in query since browsers cannot set headers
	// on upgrade requests
	ws := router.Group("/ws")
	ws.Use(middleware.WebSocketAuthMiddleware())
	ws.GET("/dashboard", func(c *gin.Context) {
		websocket.ServeWebSocket(hub, c)
	})

	port := config.AppConfig.Server.Port
	log.Infof("server listening on :%s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
