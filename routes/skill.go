package routes

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"rightbridge-server/database"
	"rightbridge-server/models"
)

type skillRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Category    string `json:"category" binding:"required"`
	IsActive    *bool  `json:"is_active"`
}

// RegisterSkillRoutes registers the public skill catalog endpoints
func RegisterSkillRoutes(router *gin.RouterGroup) {
	router.GET("/skills", ListSkills)
	router.GET("/skills/:id", GetSkill)
}

// RegisterAdminSkillRoutes registers admin-only skill management
func RegisterAdminSkillRoutes(router *gin.RouterGroup) {
	router.POST("/skills", CreateSkill)
	router.PUT("/skills/:id", UpdateSkill)
	router.DELETE("/skills/:id", DeleteSkill)
}

// normalizeSkillName lowercases and trims a skill name. Uniqueness is
// case-insensitive, so names are stored in canonical form.
func normalizeSkillName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// ListSkills returns active skills, filterable by category and name search
func ListSkills(c *gin.Context) {
	query := database.DB.Model(&models.Skill{}).Where("is_active = ?", true)

	if category := c.Query("category"); category != "" {
		query = query.Where("category = ?", category)
	}
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		query = query.Where("name LIKE ?", "%"+strings.ToLower(search)+"%")
	}

	var skills []models.Skill
	if err := query.Order("name ASC").Find(&skills).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal server error",
			"message": "Failed to load skills",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"skills": skills,
		"count":  len(skills),
	})
}

// GetSkill returns a single skill
func GetSkill(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var skill models.Skill
	if err := database.DB.First(&skill, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Not found",
			"message": "Skill not found",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"skill": skill})
}

// CreateSkill adds a skill to the catalog. Names are unique regardless of
// case.
func CreateSkill(c *gin.Context) {
	var req skillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"message": err.Error(),
		})
		return
	}

	skill := models.Skill{
		Name:        normalizeSkillName(req.Name),
		Description: req.Description,
		Category:    models.SkillCategory(req.Category),
		IsActive:    true,
	}
	if req.IsActive != nil {
		skill.IsActive = *req.IsActive
	}

	if skill.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"message": "Skill name is required",
		})
		return
	}
	if !skill.IsValidCategory() {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"message": "Unknown skill category",
		})
		return
	}

	var existing int64
	database.DB.Model(&models.Skill{}).Where("name = ?", skill.Name).Count(&existing)
	if existing > 0 {
		c.JSON(http.StatusConflict, gin.H{
			"error":   "Conflict",
			"message": "A skill with this name already exists",
		})
		return
	}

	if err := database.DB.Create(&skill).Error; err != nil {
		if isUniqueViolation(err) {
			c.JSON(http.StatusConflict, gin.H{
				"error":   "Conflict",
				"message": "A skill with this name already exists",
			})
			return
		}
		log.Errorf("failed to create skill: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal server error",
			"message": "Failed to create skill",
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"skill": skill})
}

// UpdateSkill edits a skill's attributes
func UpdateSkill(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var skill models.Skill
	if err := database.DB.First(&skill, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Not found",
			"message": "Skill not found",
		})
		return
	}

	var req skillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"message": err.Error(),
		})
		return
	}

	name := normalizeSkillName(req.Name)
	if name != skill.Name {
		var existing int64
		database.DB.Model(&models.Skill{}).Where("name = ? AND id <> ?", name, skill.ID).Count(&existing)
		if existing > 0 {
			c.JSON(http.StatusConflict, gin.H{
				"error":   "Conflict",
				"message": "A skill with this name already exists",
			})
			return
		}
	}

	skill.Name = name
	skill.Description = req.Description
	skill.Category = models.SkillCategory(req.Category)
	if req.IsActive != nil {
		skill.IsActive = *req.IsActive
	}

	if !skill.IsValidCategory() {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"message": "Unknown skill category",
		})
		return
	}

	if err := database.DB.Save(&skill).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal server error",
			"message": "Failed to update skill",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"skill": skill})
}

// DeleteSkill removes a skill unless providers still reference it
func DeleteSkill(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var inUse int64
	database.DB.Model(&models.ProviderSkill{}).Where("skill_id = ?", id).Count(&inUse)
	if inUse > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"message": "Skill is referenced by provider profiles and cannot be deleted",
		})
		return
	}

	result := database.DB.Delete(&models.Skill{}, id)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal server error",
			"message": "Failed to delete skill",
		})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Not found",
			"message": "Skill not found",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Skill deleted"})
}
