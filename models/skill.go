package models

import "time"

type SkillCategory string

const (
	SkillCategoryHomeRepair SkillCategory = "home_repair"
	SkillCategoryCleaning   SkillCategory = "cleaning"
	SkillCategoryPlumbing   SkillCategory = "plumbing"
	SkillCategoryElectrical SkillCategory = "electrical"
	SkillCategoryOther      SkillCategory = "other"
)

// Skill is a named, categorized capability used to tag provider expertise.
// Names are unique case-insensitively and stored trimmed and lowercased.
type Skill struct {
	ID          uint          `json:"id" gorm:"primaryKey"`
	Name        string        `json:"name" gorm:"size:100;uniqueIndex;not null"`
	Description string        `json:"description" gorm:"size:500"`
	Category    SkillCategory `json:"category" gorm:"type:varchar(20);not null;check:category IN ('home_repair','cleaning','plumbing','electrical','other')"`
	IsActive    bool          `json:"is_active" gorm:"default:true"`
	CreatedAt   time.Time     `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time     `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for the Skill model
func (Skill) TableName() string {
	return "skills"
}

// IsValidCategory checks if the skill category is one of the known values
func (s *Skill) IsValidCategory() bool {
	switch s.Category {
	case SkillCategoryHomeRepair, SkillCategoryCleaning, SkillCategoryPlumbing,
		SkillCategoryElectrical, SkillCategoryOther:
		return true
	default:
		return false
	}
}
