package routes

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgconn"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"rightbridge-server/database"
	"rightbridge-server/models"
	"rightbridge-server/utils"
)

type registerRequest struct {
	Name         string `json:"name" binding:"required"`
	MobileNumber string `json:"mobile_number" binding:"required"`
	Email        string `json:"email"`
	Password     string `json:"password" binding:"required,min=6"`
	Role         string `json:"role"`
}

type loginRequest struct {
	// Identifier is an email address or mobile number
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

type updateProfileRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
	Bio   *string `json:"bio"`
}

type providerSkillRequest struct {
	SkillID    uint    `json:"skill_id" binding:"required"`
	Experience float64 `json:"experience"`
	HourlyRate float64 `json:"hourly_rate"`
	IsPrimary  bool    `json:"is_primary"`
}

// RegisterAuthRoutes registers signup and login endpoints
func RegisterAuthRoutes(router *gin.RouterGroup) {
	router.POST("/register", Register)
	router.POST("/login", Login)
}

// RegisterUserRoutes registers authenticated profile and skill endpoints
func RegisterUserRoutes(router *gin.RouterGroup) {
	router.GET("/me", GetProfile)
	router.PUT("/me", UpdateProfile)
	router.GET("/providers", ListProviders)
	router.GET("/skills", GetMySkills)
	router.PUT("/skills", UpdateMySkills)
}

// RegisterAdminUserRoutes registers admin-only user management endpoints
func RegisterAdminUserRoutes(router *gin.RouterGroup) {
	router.GET("/users", ListUsers)
	router.GET("/users/stats", GetUserStats)
	router.GET("/users/:id", GetUser)
	router.PUT("/users/:id", UpdateUser)
	router.PUT("/users/:id/status", SetUserStatus)
	router.DELETE("/users/:id", DeleteUser)
}

// Register creates a new account. Self-registration is limited to customer
// and provider roles.
func Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"message": err.Error(),
		})
		return
	}

	role := models.UserRole(req.Role)
	if role == "" {
		role = models.RoleCustomer
	}
	if role != models.RoleCustomer && role != models.RoleProvider {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"message": "Role must be customer or service_provider",
		})
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal server error",
			"message": "Failed to process password",
		})
		return
	}

	user := models.User{
		Name:         strings.TrimSpace(req.Name),
		MobileNumber: strings.TrimSpace(req.MobileNumber),
		Email:        strings.TrimSpace(strings.ToLower(req.Email)),
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
	}

	if err := database.DB.Create(&user).Error; err != nil {
		if isUniqueViolation(err) {
			c.JSON(http.StatusConflict, gin.H{
				"error":   "Conflict",
				"message": "An account with this mobile number already exists",
			})
			return
		}
		log.Errorf("failed to create user: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal server error",
			"message": "Failed to create account",
		})
		return
	}

	token, err := utils.GenerateToken(user.ID, string(user.Role))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal server error",
			"message": "Failed to generate token",
		})
		return
	}

	log.Infof("user %d registered as %s", user.ID, user.Role)
	c.JSON(http.StatusCreated, gin.H{
		"token": token,
		"user":  user,
	})
}

// Login authenticates by email or mobile number
func Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"message": err.Error(),
		})
		return
	}

	identifier := strings.TrimSpace(req.Identifier)

	var user models.User
	err := database.DB.
		Where("mobile_number = ? OR email = ?", identifier, strings.ToLower(identifier)).
		First(&user).Error
	if err != nil || !utils.CheckPasswordHash(req.Password, user.PasswordHash) {
		// Same response for unknown identifier and wrong password
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   "Invalid credentials",
			"message": "Identifier or password is incorrect",
		})
		return
	}

	if !user.IsActive {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   "User inactive",
			"message": "User account is deactivated",
		})
		return
	}

	token, err := utils.GenerateToken(user.ID, string(user.Role))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal server error",
			"message": "Failed to generate token",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  user,
	})
}

// GetProfile returns the authenticated user with skills preloaded
func GetProfile(c *gin.Context) {
	user := currentUser(c)

	var full models.User
	if err := database.DB.Preload("Skills.Skill").First(&full, user.ID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal server error",
			"message": "Failed to load profile",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": full})
}

// UpdateProfile updates name, email, and bio. Mobile number and role are
// immutable through this endpoint.
func UpdateProfile(c *gin.Context) {
	user := currentUser(c)

	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"message": err.Error(),
		})
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		updates["email"] = strings.TrimSpace(strings.ToLower(*req.Email))
	}
	if req.Bio != nil {
		updates["bio"] = *req.Bio
	}
	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"message": "No fields to update",
		})
		return
	}

	if err := database.DB.Model(&user).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal server error",
			"message": "Failed to update profile",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// ListProviders returns active service providers with their skills,
// filterable by skill and minimum rating
func ListProviders(c *gin.Context) {
	query := database.DB.
		Preload("Skills.Skill").
		Where("role = ? AND is_active = ?", models.RoleProvider, true)

	if skillID := c.Query("skill_id"); skillID != "" {
		query = query.Where(
			"id IN (SELECT user_id FROM provider_skills WHERE skill_id = ?)", skillID)
	}
	if minRating := c.Query("min_rating"); minRating != "" {
		query = query.Where("rating_average >= ?", minRating)
	}

	var providers []models.User
	err := query.
		Order("rating_average DESC").
		Find(&providers).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal server error",
			"message": "Failed to load providers",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"providers": providers,
		"count":     len(providers),
	})
}

// GetMySkills returns the authenticated provider's skill profile
func GetMySkills(c *gin.Context) {
	user := currentUser(c)
	if !user.IsProvider() {
		c.JSON(http.StatusForbidden, gin.H{
			"error":   "Forbidden",
			"message": "Only service providers have skill profiles",
		})
		return
	}

	var skills []models.ProviderSkill
	if err := database.DB.Preload("Skill").Where("user_id = ?", user.ID).Find(&skills).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal server error",
			"message": "Failed to load skills",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"skills": skills})
}

// UpdateMySkills replaces the provider's skill set. At most one skill may be
// primary; when none is flagged the first becomes primary. Every referenced
// skill must exist and be active.
func UpdateMySkills(c *gin.Context) {
	user := currentUser(c)
	if !user.IsProvider() {
		c.JSON(http.StatusForbidden, gin.H{
			"error":   "Forbidden",
			"message": "Only service providers can update skills",
		})
		return
	}

	var req struct {
		Skills []providerSkillRequest `json:"skills" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"message": err.Error(),
		})
		return
	}

	submitted := make([]models.ProviderSkill, len(req.Skills))
	skillIDs := make([]uint, len(req.Skills))
	for i, s := range req.Skills {
		submitted[i] = models.ProviderSkill{
			UserID:     user.ID,
			SkillID:    s.SkillID,
			Experience: s.Experience,
			HourlyRate: s.HourlyRate,
			IsPrimary:  s.IsPrimary,
		}
		skillIDs[i] = s.SkillID
	}

	normalized, err := models.NormalizeProviderSkills(submitted)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"message": err.Error(),
		})
		return
	}

	if len(skillIDs) > 0 {
		var count int64
		database.DB.Model(&models.Skill{}).
			Where("id IN ? AND is_active = ?", skillIDs, true).
			Count(&count)
		if count != int64(len(uniqueIDs(skillIDs))) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid request",
				"message": "One or more skills do not exist or are inactive",
			})
			return
		}
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.ProviderSkill{}).Error; err != nil {
			return err
		}
		if len(normalized) == 0 {
			return nil
		}
		return tx.Create(&normalized).Error
	})
	if err != nil {
		log.Errorf("failed to update skills for user %d: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal server error",
			"message": "Failed to update skills",
		})
		return
	}

	var skills []models.ProviderSkill
	database.DB.Preload("Skill").Where("user_id = ?", user.ID).Find(&skills)

	c.JSON(http.StatusOK, gin.H{"skills": skills})
}

// ListUsers returns users filtered by role and a keyword over name, mobile,
// and email, paginated with ?page= and ?limit=
func ListUsers(c *gin.Context) {
	query := database.DB.Model(&models.User{})
	if role := c.Query("role"); role != "" {
		query = query.Where("role = ?", role)
	}
	if keyword := strings.TrimSpace(c.Query("search")); keyword != "" {
		like := "%" + strings.ToLower(keyword) + "%"
		query = query.Where(
			"LOWER(name) LIKE ? OR mobile_number LIKE ? OR LOWER(email) LIKE ?",
			like, "%"+keyword+"%", like)
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit < 1 || limit > 100 {
		limit = 20
	}

	var total int64
	query.Count(&total)

	var users []models.User
	err := query.
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&users).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal server error",
			"message": "Failed to load users",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"users": users,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

// GetUser returns a single user with skills preloaded
func GetUser(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var user models.User
	if err := database.DB.Preload("Skills.Skill").First(&user, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Not found",
			"message": "User not found",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// UpdateUser edits a user's profile fields as an admin
func UpdateUser(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var user models.User
	if err := database.DB.First(&user, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Not found",
			"message": "User not found",
		})
		return
	}

	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"message": err.Error(),
		})
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		updates["email"] = strings.TrimSpace(strings.ToLower(*req.Email))
	}
	if req.Bio != nil {
		updates["bio"] = *req.Bio
	}
	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"message": "No fields to update",
		})
		return
	}

	if err := database.DB.Model(&user).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal server error",
			"message": "Failed to update user",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// DeleteUser removes an account. Admin accounts cannot be deleted.
func DeleteUser(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var user models.User
	if err := database.DB.First(&user, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Not found",
			"message": "User not found",
		})
		return
	}
	if user.IsAdmin() {
		c.JSON(http.StatusForbidden, gin.H{
			"error":   "Forbidden",
			"message": "Admin accounts cannot be deleted",
		})
		return
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.ProviderSkill{}).Error; err != nil {
			return err
		}
		return tx.Delete(&user).Error
	})
	if err != nil {
		log.Errorf("failed to delete user %d: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal server error",
			"message": "Failed to delete user",
		})
		return
	}

	log.Infof("user %d deleted by admin %d", user.ID, c.GetUint("user_id"))
	c.JSON(http.StatusOK, gin.H{"message": "User deleted"})
}

// SetUserStatus activates or deactivates an account
func SetUserStatus(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		IsActive *bool `json:"is_active" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"message": err.Error(),
		})
		return
	}

	var user models.User
	if err := database.DB.First(&user, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Not found",
			"message": "User not found",
		})
		return
	}

	if err := database.DB.Model(&user).Update("is_active", *req.IsActive).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal server error",
			"message": "Failed to update user status",
		})
		return
	}

	log.Infof("user %d active=%t set by admin %d", user.ID, *req.IsActive, c.GetUint("user_id"))
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// GetUserStats returns per-role counts and a 12-slot monthly signup series
// for the trailing year.
func GetUserStats(c *gin.Context) {
	type roleCount struct {
		Role  models.UserRole
		Count int64
	}

	var counts []roleCount
	if err := database.DB.Model(&models.User{}).
		Select("role, COUNT(*) as count").
		Group("role").
		Scan(&counts).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal server error",
			"message": "Failed to load user stats",
		})
		return
	}

	byRole := gin.H{}
	var total int64
	for _, rc := range counts {
		byRole[string(rc.Role)] = rc.Count
		total += rc.Count
	}

	var recent []models.User
	since := utils.TrailingYear(time.Now())
	database.DB.Select("id", "created_at").Where("created_at >= ?", since).Find(&recent)

	monthly := make([]int64, 12)
	for _, u := range recent {
		monthly[utils.MonthIndex(u.CreatedAt)]++
	}

	c.JSON(http.StatusOK, gin.H{
		"total":           total,
		"by_role":         byRole,
		"monthly_signups": monthly,
	})
}

// isUniqueViolation reports whether err is a Postgres unique constraint error
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
