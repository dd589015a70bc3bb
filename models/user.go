package models

import (
	"errors"
	"time"
)

type UserRole string

const (
	RoleCustomer UserRole = "customer"
	RoleProvider UserRole = "service_provider"
	RoleAdmin    UserRole = "admin"
)

// ErrMultiplePrimarySkills is returned when more than one submitted skill is
// flagged primary.
var ErrMultiplePrimarySkills = errors.New("only one skill can be marked as primary")

type User struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	Name          string    `json:"name" gorm:"size:255;not null"`
	MobileNumber  string    `json:"mobile_number" gorm:"size:20;uniqueIndex;not null"`
	Email         string    `json:"email" gorm:"size:255"`
	PasswordHash  string    `json:"-" gorm:"size:255;not null"`
	Role          UserRole  `json:"role" gorm:"type:varchar(20);not null;default:'customer';check:role IN ('customer','service_provider','admin')"`
	Bio           string    `json:"bio,omitempty" gorm:"size:1000"`
	IsActive      bool      `json:"is_active" gorm:"default:true"`
	RatingAverage float64   `json:"rating_average" gorm:"type:decimal(3,2);default:0"`
	RatingCount   int       `json:"rating_count" gorm:"default:0"`
	CreatedAt     time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt     time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	// Relationships
	Skills []ProviderSkill `json:"skills,omitempty" gorm:"foreignKey:UserID"`
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "users"
}

// IsProvider checks if the user is a service provider
func (u *User) IsProvider() bool {
	return u.Role == RoleProvider
}

// IsAdmin checks if the user is an admin
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsCustomer checks if the user is a customer
func (u *User) IsCustomer() bool {
	return u.Role == RoleCustomer
}

// ProviderSkill links a service provider to a skill with their experience,
// hourly rate, and whether it is their leading specialty.
type ProviderSkill struct {
	ID         uint    `json:"-" gorm:"primaryKey"`
	UserID     uint    `json:"-" gorm:"not null;index"`
	SkillID    uint    `json:"skill_id" gorm:"not null;index"`
	Experience float64 `json:"experience" gorm:"default:0"` // years
	HourlyRate float64 `json:"hourly_rate" gorm:"type:decimal(10,2);default:0"`
	IsPrimary  bool    `json:"is_primary" gorm:"default:false"`

	Skill Skill `json:"skill,omitempty" gorm:"foreignKey:SkillID"`
}

// TableName specifies the table name for the ProviderSkill model
func (ProviderSkill) TableName() string {
	return "provider_skills"
}

// NormalizeProviderSkills clamps negative experience and hourly rate to zero
// and enforces the single-primary rule: more than one primary is rejected, and
// when none is flagged the first skill is promoted.
func NormalizeProviderSkills(skills []ProviderSkill) ([]ProviderSkill, error) {
	normalized := make([]ProviderSkill, len(skills))
	primaries := 0
	for i, s := range skills {
		if s.Experience < 0 {
			s.Experience = 0
		}
		if s.HourlyRate < 0 {
			s.HourlyRate = 0
		}
		if s.IsPrimary {
			primaries++
		}
		normalized[i] = s
	}

	if primaries > 1 {
		return nil, ErrMultiplePrimarySkills
	}
	if primaries == 0 && len(normalized) > 0 {
		normalized[0].IsPrimary = true
	}

	return normalized, nil
}
